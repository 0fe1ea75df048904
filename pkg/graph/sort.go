package graph

import (
	"sort"

	"github.com/lintang-b-s/roadmatch/pkg/concurrent"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
)

func recordLess(a, b *datastructure.SegmentRecord) bool {
	if a.WayId != b.WayId {
		return a.WayId < b.WayId
	}
	if a.WaySubSeq != b.WaySubSeq {
		return a.WaySubSeq < b.WaySubSeq
	}
	return a.SplitSeq < b.SplitSeq
}

// parallelSortRecords. sorts chunks on the worker pool, then merges pairwise. stable, so for duplicate ids
// the first record wins.
func parallelSortRecords(records []datastructure.SegmentRecord, numWorkers int) []datastructure.SegmentRecord {
	ranges := concurrent.SplitRange(len(records), numWorkers)
	if len(ranges) <= 1 {
		sort.SliceStable(records, func(i, j int) bool {
			return recordLess(&records[i], &records[j])
		})
		return records
	}

	concurrent.RunJobs(numWorkers, ranges, func(r concurrent.IndexRange) struct{} {
		chunk := records[r.From:r.To]
		sort.SliceStable(chunk, func(i, j int) bool {
			return recordLess(&chunk[i], &chunk[j])
		})
		return struct{}{}
	})

	src := records
	dst := make([]datastructure.SegmentRecord, len(records))
	for len(ranges) > 1 {
		next := make([]concurrent.IndexRange, 0, (len(ranges)+1)/2)
		pairs := make([][2]concurrent.IndexRange, 0, len(ranges)/2+1)
		for i := 0; i < len(ranges); i += 2 {
			if i+1 < len(ranges) {
				pairs = append(pairs, [2]concurrent.IndexRange{ranges[i], ranges[i+1]})
				next = append(next, concurrent.IndexRange{From: ranges[i].From, To: ranges[i+1].To})
			} else {
				pairs = append(pairs, [2]concurrent.IndexRange{ranges[i], {From: ranges[i].To, To: ranges[i].To}})
				next = append(next, ranges[i])
			}
		}
		concurrent.RunJobs(numWorkers, pairs, func(p [2]concurrent.IndexRange) struct{} {
			mergeRecords(dst[p[0].From:p[1].To], src[p[0].From:p[0].To], src[p[1].From:p[1].To])
			return struct{}{}
		})
		src, dst = dst, src
		ranges = next
	}
	return src
}

func mergeRecords(dst, a, b []datastructure.SegmentRecord) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if recordLess(&b[j], &a[i]) {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}
