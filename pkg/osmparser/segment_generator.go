package osmparser

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

type osmWay struct {
	id      int64
	nodes   []int64
	oneWay  bool
	highway pkg.HighwayType
	name    string
	st      pkg.StructType
	layer   int8
	tags    map[string]string
}

// SegmentGenerator. osm way -> segment records, one per consecutive node pair.
// two passes, ScanWays first (drivable ways) then ScanNodes for coordinates.
type SegmentGenerator struct {
	log    *zap.Logger
	ways   []osmWay
	coords map[int64]geo.Coordinate
	needed map[int64]struct{}
}

func NewSegmentGenerator(log *zap.Logger) *SegmentGenerator {
	return &SegmentGenerator{
		log:    log,
		ways:   make([]osmWay, 0, 1024),
		coords: make(map[int64]geo.Coordinate),
		needed: make(map[int64]struct{}),
	}
}

func (g *SegmentGenerator) GetNumWays() int {
	return len(g.ways)
}

// ScanWays. first pass, must not be parallel
func (g *SegmentGenerator) ScanWays(scanner osm.Scanner) error {
	countWays := 0
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok || !acceptOsmWay(way) {
			continue
		}
		if (countWays+1)%100000 == 0 {
			g.log.Sugar().Infof("scanning openstreetmap ways: %d...", countWays+1)
		}
		countWays++
		g.addWay(way)
	}
	return scanner.Err()
}

func (g *SegmentGenerator) addWay(way *osm.Way) {
	oneWay, reversed := wayDirection(way.Tags)
	w := osmWay{
		id:      int64(way.ID),
		nodes:   make([]int64, 0, len(way.Nodes)),
		oneWay:  oneWay,
		highway: pkg.GetHighwayType(way.Tags.Find("highway")),
		name:    way.Tags.Find("name"),
		st:      structType(way.Tags),
		layer:   layer(way.Tags),
		tags:    wayTags(way.Tags),
	}
	for _, n := range way.Nodes {
		id := int64(n.ID)
		// consecutive duplicate node
		if len(w.nodes) > 0 && w.nodes[len(w.nodes)-1] == id {
			continue
		}
		w.nodes = append(w.nodes, id)
		g.needed[id] = struct{}{}
		if n.Lat != 0 || n.Lon != 0 {
			g.coords[id] = geo.NewCoordinate(n.Lat, n.Lon)
		}
	}
	if len(w.nodes) < 2 {
		return
	}
	if reversed {
		slices.Reverse(w.nodes)
	}
	g.ways = append(g.ways, w)
}

// ScanNodes. second pass, keeps coordinates of way nodes only
func (g *SegmentGenerator) ScanNodes(scanner osm.Scanner) error {
	countNodes := 0
	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		id := int64(node.ID)
		if _, ok := g.needed[id]; !ok {
			continue
		}
		if (countNodes+1)%500000 == 0 {
			g.log.Sugar().Infof("processing openstreetmap nodes: %d...", countNodes+1)
		}
		countNodes++
		g.coords[id] = geo.NewCoordinate(node.Lat, node.Lon)
	}
	return scanner.Err()
}

// Records. segment ids are sequential from 1. two way roads get backward records with negative way_sub_seq.
// node pairs without coordinates (clipped extracts) are skipped.
func (g *SegmentGenerator) Records() []datastructure.SegmentRecord {
	records := make([]datastructure.SegmentRecord, 0, 2*len(g.needed))
	segId := int64(0)
	missing := 0

	for _, w := range g.ways {
		for i := 0; i+1 < len(w.nodes); i++ {
			fromId, toId := w.nodes[i], w.nodes[i+1]
			from, okFrom := g.coords[fromId]
			to, okTo := g.coords[toId]
			if !okFrom || !okTo {
				missing++
				continue
			}
			length := geo.DistanceBetween(from, to)
			sub := int16(i + 1)

			segId++
			records = append(records, w.record(segId, from, to, fromId, toId, sub, length))
			if w.oneWay {
				continue
			}
			segId++
			records = append(records, w.record(segId, to, from, toId, fromId, -sub, length))
		}
	}
	if missing > 0 {
		g.log.Warn("node pairs skipped, node coordinate not found", zap.Int("count", missing))
	}
	return records
}

func (w osmWay) record(segId int64, from, to geo.Coordinate, fromId, toId int64, sub int16,
	length float64) datastructure.SegmentRecord {
	return datastructure.SegmentRecord{
		SegId:       segId,
		FromLat:     from.Lat,
		FromLon:     from.Lon,
		ToLat:       to.Lat,
		ToLon:       to.Lon,
		OneWay:      w.oneWay,
		Length:      length,
		WayId:       w.id,
		WaySubSeq:   sub,
		SplitSeq:    0,
		FromNodeId:  fromId,
		ToNodeId:    toId,
		HighwayType: w.highway,
		WayName:     w.name,
		StructType:  w.st,
		Layer:       w.layer,
		Tags:        w.tags,
	}
}

// GenerateFromPbf. reads the .osm.pbf twice (ways then nodes)
func GenerateFromPbf(ctx context.Context, mapFile string, log *zap.Logger) ([]datastructure.SegmentRecord, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "open %s", mapFile)
	}
	defer f.Close()

	g := NewSegmentGenerator(log)

	scanner := osmpbf.New(ctx, f, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	err = g.ScanWays(scanner)
	scanner.Close()
	if err != nil {
		return nil, fmt.Errorf("scan ways: %w", err)
	}
	log.Info("openstreetmap ways scanned", zap.Int("ways", g.GetNumWays()))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	scanner = osmpbf.New(ctx, f, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true
	err = g.ScanNodes(scanner)
	scanner.Close()
	if err != nil {
		return nil, fmt.Errorf("scan nodes: %w", err)
	}

	records := g.Records()
	log.Info("segment records generated", zap.Int("segments", len(records)))
	return records, nil
}
