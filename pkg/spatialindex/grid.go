package spatialindex

import (
	"sort"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/concurrent"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"go.uber.org/zap"
)

type ExclusionChecker interface {
	IsSegmentExcluded(seg *datastructure.Segment, t exclusion.TimePoint) bool
}

type tile struct {
	segments []datastructure.SegIndex
	// segments plus those of the 8 neighbour tiles, deduplicated
	halo []datastructure.SegIndex
}

/*
SegmentIndex. grid of ~200m x 200m tiles over the graph bounds.
a segment goes into the tiles of its from and to points, plus its midpoint tile when that differs.
a query reads only the halo of the tile holding the point.
*/
type SegmentIndex struct {
	store   *datastructure.Store
	checker ExclusionChecker

	zoom          float64
	minX, minY    int
	width, height int
	tiles         []tile

	matchPriority pkg.MatchPriority
}

func NewSegmentIndex(store *datastructure.Store, checker ExclusionChecker, matchPriority pkg.MatchPriority,
	log *zap.Logger) (*SegmentIndex, error) {
	bound := store.GetBound()
	if bound.IsEmpty() {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "spatial index: empty graph bound")
	}
	if matchPriority < pkg.MATCH_PRI_BOTH || matchPriority > pkg.MATCH_PRI_DISTANCE {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "spatial index: invalid match priority %d", matchPriority)
	}

	si := &SegmentIndex{
		store:         store,
		checker:       checker,
		matchPriority: matchPriority,
	}
	si.zoom = geo.SpanToZoomLevel(pkg.TILE_SIZE_METERS, (bound.MinLat+bound.MaxLat)/2)
	si.minX = geo.Long2TileX(bound.MinLon, si.zoom)
	si.minY = geo.Lat2TileY(bound.MaxLat, si.zoom)
	maxX := geo.Long2TileX(bound.MaxLon, si.zoom)
	maxY := geo.Lat2TileY(bound.MinLat, si.zoom)
	si.width = maxX - si.minX + 1
	si.height = maxY - si.minY + 1
	si.tiles = make([]tile, si.width*si.height)

	store.ForEachSegment(func(i datastructure.SegIndex, seg *datastructure.Segment) {
		si.addSegment(i, seg)
	})

	concurrent.ParallelRange(len(si.tiles), 0, si.buildHalo)

	log.Info("segment tile index built", zap.Int("tiles", len(si.tiles)),
		zap.Float64("zoom", si.zoom), zap.Int("segments", store.NumberOfSegments()))
	return si, nil
}

func (si *SegmentIndex) tileXY(p geo.Coordinate) (int, int) {
	return geo.Long2TileX(p.Lon, si.zoom), geo.Lat2TileY(p.Lat, si.zoom)
}

func (si *SegmentIndex) tileAt(x, y int) *tile {
	if x < si.minX || x >= si.minX+si.width || y < si.minY || y >= si.minY+si.height {
		return nil
	}
	return &si.tiles[(y-si.minY)*si.width+(x-si.minX)]
}

func (si *SegmentIndex) tileByPos(p geo.Coordinate) *tile {
	return si.tileAt(si.tileXY(p))
}

func (si *SegmentIndex) addSegment(i datastructure.SegIndex, seg *datastructure.Segment) {
	if seg.GetLength() < pkg.MIN_INDEXED_LENGTH {
		return
	}
	x1, y1 := si.tileXY(seg.GetFrom())
	if t := si.tileAt(x1, y1); t != nil {
		t.segments = append(t.segments, i)
	}

	x2, y2 := si.tileXY(seg.GetTo())
	if x1 == x2 && y1 == y2 {
		return
	}
	if t := si.tileAt(x2, y2); t != nil {
		t.segments = append(t.segments, i)
	}

	x0, y0 := si.tileXY(seg.GetMidPoint())
	if (x0 != x1 || y0 != y1) && (x0 != x2 || y0 != y2) {
		if t := si.tileAt(x0, y0); t != nil {
			t.segments = append(t.segments, i)
		}
	}
}

func (si *SegmentIndex) buildHalo(i int) {
	x := si.minX + i%si.width
	y := si.minY + i/si.width

	halo := make([]datastructure.SegIndex, 0, len(si.tiles[i].segments)*9)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if t := si.tileAt(x+dx, y+dy); t != nil {
				halo = append(halo, t.segments...)
			}
		}
	}

	sort.Slice(halo, func(a, b int) bool {
		return halo[a] < halo[b]
	})
	n := 0
	for k := 0; k < len(halo); k++ {
		if k > 0 && halo[k] == halo[k-1] {
			continue
		}
		halo[n] = halo[k]
		n++
	}
	si.tiles[i].halo = halo[:n:n]
}

// candidates. all segments in the halo of p's tile, nil outside the grid
func (si *SegmentIndex) candidates(p geo.Coordinate) []datastructure.SegIndex {
	t := si.tileByPos(p)
	if t == nil {
		return nil
	}
	return t.halo
}

func (si *SegmentIndex) GetZoom() float64 {
	return si.zoom
}

type SegmentDistance struct {
	Seg      datastructure.SegIndex
	Distance float64
}

type NodeDistance struct {
	Node     datastructure.NodeIndex
	Distance float64
}

// FindAdjacentSegments. segments within radius meters of p, nearest first.
// hasName restricts to named roads.
func (si *SegmentIndex) FindAdjacentSegments(p geo.Coordinate, radius float64, hasName bool) []SegmentDistance {
	results := make([]SegmentDistance, 0)
	for _, idx := range si.candidates(p) {
		seg := si.store.GetSegment(idx)
		if hasName && seg.GetWayName() == "" {
			continue
		}
		d := geo.PointToSegmentDistance(p, seg.GetFrom(), seg.GetTo())
		if d <= radius {
			results = append(results, SegmentDistance{Seg: idx, Distance: d})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results
}

// FindAdjacentNodes. distinct segment endpoints within radius of p, nearest first
func (si *SegmentIndex) FindAdjacentNodes(p geo.Coordinate, radius float64) []NodeDistance {
	segs := si.FindAdjacentSegments(p, radius, false)
	seen := make(map[datastructure.NodeIndex]struct{}, len(segs)*2)
	results := make([]NodeDistance, 0, len(segs))
	for _, sd := range segs {
		seg := si.store.GetSegment(sd.Seg)
		for _, n := range [2]datastructure.NodeIndex{seg.GetFromNode(), seg.GetToNode()} {
			if n == datastructure.INVALID_NODE {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			d := geo.DistanceBetween(p, si.store.GetNode(n).GetCoordinate())
			if d <= radius {
				results = append(results, NodeDistance{Node: n, Distance: d})
			}
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results
}
