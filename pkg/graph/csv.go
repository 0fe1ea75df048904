package graph

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/concurrent"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/util"
)

const (
	minSegmentFields = 13
	tagDelimiter     = ","
)

var SEGMENT_CSV_HEADER = []string{"seg_id", "from_lat", "from_lng", "to_lat", "to_lng", "one_way",
	"length", "way_id", "way_sub_seq", "split_seq", "from_nd", "to_nd", "way_type", "way_name",
	"struct_type", "layer", "opt_tags"}

// ParseTags. "k=v,k=v" into a map
func ParseTags(s string) map[string]string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	tags := make(map[string]string)
	for _, kv := range strings.Split(s, tagDelimiter) {
		k, v, _ := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		tags[k] = strings.TrimSpace(v)
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// TagsToString. inverse of ParseTags with sorted keys
func TagsToString(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(tagDelimiter)
		}
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(tags[k])
	}
	return sb.String()
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// ParseSegmentRecord. false when the row is skipped (too few columns or header)
func ParseSegmentRecord(fields []string) (datastructure.SegmentRecord, bool, error) {
	var rec datastructure.SegmentRecord
	if len(fields) < minSegmentFields {
		return rec, false, nil
	}
	if strings.TrimSpace(fields[0]) == "seg_id" {
		return rec, false, nil
	}

	ints := [6]int64{}
	for i, col := range [6]int{0, 7, 8, 9, 10, 11} {
		v, err := parseInt(fields[col])
		if err != nil {
			return rec, false, fmt.Errorf("column %s: %w", SEGMENT_CSV_HEADER[col], err)
		}
		ints[i] = v
	}
	if ints[0] == 0 {
		return rec, false, fmt.Errorf("invalid segment id %q", fields[0])
	}

	floats := [5]float64{}
	for i, col := range [5]int{1, 2, 3, 4, 6} {
		v, err := parseFloat(fields[col])
		if err != nil {
			return rec, false, fmt.Errorf("column %s: %w", SEGMENT_CSV_HEADER[col], err)
		}
		floats[i] = v
	}

	wayType, err := parseInt(fields[12])
	if err != nil {
		return rec, false, fmt.Errorf("column way_type: %w", err)
	}

	rec = datastructure.SegmentRecord{
		SegId:       ints[0],
		FromLat:     floats[0],
		FromLon:     floats[1],
		ToLat:       floats[2],
		ToLon:       floats[3],
		OneWay:      strings.TrimSpace(fields[5]) == "1",
		Length:      floats[4],
		WayId:       ints[1],
		WaySubSeq:   int16(ints[2]),
		SplitSeq:    int16(ints[3]),
		FromNodeId:  ints[4],
		ToNodeId:    ints[5],
		HighwayType: pkg.HighwayType(wayType),
	}
	if len(fields) > 13 {
		rec.WayName = strings.TrimSpace(fields[13])
	}
	if len(fields) > 14 {
		v, err := parseInt(fields[14])
		if err != nil {
			return rec, false, fmt.Errorf("column struct_type: %w", err)
		}
		rec.StructType = pkg.StructType(v)
	}
	if len(fields) > 15 {
		v, err := parseInt(fields[15])
		if err != nil {
			return rec, false, fmt.Errorf("column layer: %w", err)
		}
		rec.Layer = int8(v)
	}
	if len(fields) > 16 {
		rec.Tags = ParseTags(fields[16])
	}
	return rec, true, nil
}

// ReadSegmentRecords. '#' lines are comments, rows with fewer than 13 columns are skipped
func ReadSegmentRecords(rd io.Reader) ([]datastructure.SegmentRecord, error) {
	r := csv.NewReader(rd)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	records := make([]datastructure.SegmentRecord, 0, 1024)
	line := 0
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		rec, ok, err := ParseSegmentRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func readSegmentFile(path string) ([]datastructure.SegmentRecord, error) {
	f, err := util.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := ReadSegmentRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

type shardResult struct {
	records []datastructure.SegmentRecord
	err     error
}

// ReadSegmentsCsv. path may contain '*' for shards, read in parallel. .bz2 files are decompressed.
func ReadSegmentsCsv(pattern string, numWorkers int) ([]datastructure.SegmentRecord, error) {
	paths := []string{pattern}
	if strings.Contains(pattern, "*") {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid segments pattern %s", pattern)
		}
		if len(matches) == 0 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "no segment files match %s", pattern)
		}
		sort.Strings(matches)
		paths = matches
	}

	shards := concurrent.RunJobs(numWorkers, paths, func(path string) shardResult {
		records, err := readSegmentFile(path)
		return shardResult{records: records, err: err}
	})

	total := 0
	var errs []error
	for _, s := range shards {
		if s.err != nil {
			errs = append(errs, s.err)
			continue
		}
		total += len(s.records)
	}
	if len(errs) > 0 {
		return nil, util.WrapErrorf(errors.Join(errs...), util.ErrBadParamInput, "load segments csv")
	}

	records := make([]datastructure.SegmentRecord, 0, total)
	for _, s := range shards {
		records = append(records, s.records...)
	}
	return records, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteSegmentRecords. writes the full 17 column csv with header
func WriteSegmentRecords(w io.Writer, records []datastructure.SegmentRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SEGMENT_CSV_HEADER); err != nil {
		return err
	}
	row := make([]string, len(SEGMENT_CSV_HEADER))
	for _, rec := range records {
		oneWay := "0"
		if rec.OneWay {
			oneWay = "1"
		}
		row[0] = strconv.FormatInt(rec.SegId, 10)
		row[1] = formatFloat(rec.FromLat)
		row[2] = formatFloat(rec.FromLon)
		row[3] = formatFloat(rec.ToLat)
		row[4] = formatFloat(rec.ToLon)
		row[5] = oneWay
		row[6] = strconv.FormatFloat(rec.Length, 'f', 2, 64)
		row[7] = strconv.FormatInt(rec.WayId, 10)
		row[8] = strconv.Itoa(int(rec.WaySubSeq))
		row[9] = strconv.Itoa(int(rec.SplitSeq))
		row[10] = strconv.FormatInt(rec.FromNodeId, 10)
		row[11] = strconv.FormatInt(rec.ToNodeId, 10)
		row[12] = strconv.Itoa(int(rec.HighwayType))
		row[13] = rec.WayName
		row[14] = strconv.Itoa(int(rec.StructType))
		row[15] = strconv.Itoa(int(rec.Layer))
		row[16] = TagsToString(rec.Tags)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
