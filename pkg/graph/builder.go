package graph

import (
	"sort"
	"time"

	"github.com/lintang-b-s/roadmatch/pkg/concurrent"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Builder. builds a datastructure.Store from segment records
type Builder struct {
	log          *zap.Logger
	numWorkers   int
	driveOnRight bool

	// when set, ways whose bounds miss loadBound are skipped
	loadBound datastructure.Bound
}

func NewBuilder(log *zap.Logger, numWorkers int, driveOnRight bool) *Builder {
	return &Builder{
		log:          log,
		numWorkers:   numWorkers,
		driveOnRight: driveOnRight,
		loadBound:    datastructure.NewEmptyBound(),
	}
}

func (b *Builder) SetLoadBound(bound datastructure.Bound) {
	b.loadBound = bound
}

func (b *Builder) LoadSegmentsFromCsv(pattern string, generateReverse bool) (*datastructure.Store, error) {
	start := time.Now()
	records, err := ReadSegmentsCsv(pattern, b.numWorkers)
	if err != nil {
		return nil, err
	}
	b.log.Info("segment records loaded", zap.String("path", pattern), zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)))
	return b.LoadSegments(records, generateReverse)
}

/*
LoadSegments. builds the graph store:
sort records by (way, sub, split), allocate nodes and segments, link incident segments,
optionally synthesise reverse segments, flag nodes, then group into oriented ways.
*/
func (b *Builder) LoadSegments(records []datastructure.SegmentRecord, generateReverse bool) (*datastructure.Store, error) {
	if len(records) < 2 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "too few segments to load: %d", len(records))
	}
	start := time.Now()

	records = parallelSortRecords(records, b.numWorkers)

	var wayBounds map[int64]datastructure.Bound
	if !b.loadBound.IsEmpty() {
		wayBounds = computeWayBounds(records)
	}

	store := datastructure.NewStore(len(records)*3/4, len(records))
	duplicates := 0
	for i := range records {
		rec := &records[i]
		if rec.SegId == 0 {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "invalid segment id 0 at record %d", i)
		}
		if wayBounds != nil && !intersects(wayBounds[rec.WayId], b.loadBound) {
			continue
		}

		seg := datastructure.NewSegment(*rec)
		if _, ok := store.AddSegment(seg); !ok {
			duplicates++
			continue
		}
		store.AddNode(datastructure.NewNode(seg.GetFromNodeId(), seg.GetFrom()))
		store.AddNode(datastructure.NewNode(seg.GetToNodeId(), seg.GetTo()))
	}
	if store.NumberOfSegments() == 0 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "too few segments or invalid bound")
	}
	if duplicates > 0 {
		b.log.Warn("duplicate segment ids ignored", zap.Int("count", duplicates))
	}

	if err := linkSegments(store); err != nil {
		return nil, err
	}

	if generateReverse {
		n := b.generateReversedSegments(store)
		store.ForEachNode(func(_ datastructure.NodeIndex, node *datastructure.Node) {
			node.ClearConnectedSegments()
		})
		if err := linkSegments(store); err != nil {
			return nil, err
		}
		b.log.Info("reversed segments generated", zap.Int("count", n))
	}
	store.SetDriveOnRight(b.driveOnRight)

	b.doneAddNodes(store)

	if err := initWays(store); err != nil {
		return nil, err
	}

	b.log.Info("graph store built", zap.Int("nodes", store.NumberOfNodes()),
		zap.Int("segments", store.NumberOfSegments()), zap.Int("ways", store.NumberOfWays()),
		zap.Duration("elapsed", time.Since(start)))
	return store, nil
}

func computeWayBounds(records []datastructure.SegmentRecord) map[int64]datastructure.Bound {
	bounds := make(map[int64]datastructure.Bound)
	for i := range records {
		rec := &records[i]
		bound, ok := bounds[rec.WayId]
		if !ok {
			bound = datastructure.NewEmptyBound()
		}
		bound.Extend(geo.NewCoordinate(rec.FromLat, rec.FromLon))
		bound.Extend(geo.NewCoordinate(rec.ToLat, rec.ToLon))
		bounds[rec.WayId] = bound
	}
	return bounds
}

func intersects(a, b datastructure.Bound) bool {
	return a.MinLat <= b.MaxLat && a.MaxLat >= b.MinLat && a.MinLon <= b.MaxLon && a.MaxLon >= b.MinLon
}

// linkSegments. fills each segment's from/to NodeIndex and each node's incident list
func linkSegments(store *datastructure.Store) error {
	var err error
	store.ForEachSegment(func(i datastructure.SegIndex, seg *datastructure.Segment) {
		if err != nil {
			return
		}
		from, ok := store.GetNodeById(seg.GetFromNodeId())
		if !ok {
			err = util.WrapErrorf(nil, util.ErrBadParamInput, "cannot get node info for %d", seg.GetFromNodeId())
			return
		}
		to, ok := store.GetNodeById(seg.GetToNodeId())
		if !ok {
			err = util.WrapErrorf(nil, util.ErrBadParamInput, "cannot get node info for %d", seg.GetToNodeId())
			return
		}
		seg.SetNodes(from, to)
		store.GetNode(from).AddConnectedSegment(i)
		store.GetNode(to).AddConnectedSegment(i)
	})
	return err
}

// doneAddNodes. sorts incident segments per node in parallel, then flags connectors, dead ends and weak connectivity
func (b *Builder) doneAddNodes(store *datastructure.Store) {
	n := store.NumberOfNodes()
	concurrent.ParallelRange(n, b.numWorkers, func(i int) {
		node := store.GetNode(datastructure.NodeIndex(i))
		segs := node.GetConnectedSegments()
		sort.SliceStable(segs, func(a, c int) bool {
			return store.GetSegment(segs[a]).GetHighwayType() < store.GetSegment(segs[c]).GetHighwayType()
		})
	})

	// the two phases write disjoint node fields
	var g errgroup.Group
	g.Go(func() error {
		concurrent.ParallelRange(n, b.numWorkers, func(i int) {
			flagNodeInternals(store, datastructure.NodeIndex(i))
		})
		return nil
	})
	g.Go(func() error {
		mainSize := flagWeakConnectivity(store)
		b.log.Info("weak connectivity flagged", zap.Int("main_component_size", mainSize))
		return nil
	})
	_ = g.Wait()
}
