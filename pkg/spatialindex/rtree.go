package spatialindex

import (
	"math"
	"sort"

	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// SegmentRtree. r-tree over segment bounding boxes, used while building before the tile index exists
type SegmentRtree struct {
	tr    *rtree.RTreeG[datastructure.SegIndex]
	store *datastructure.Store
}

func NewSegmentRtree(store *datastructure.Store) *SegmentRtree {
	var tr rtree.RTreeG[datastructure.SegIndex]
	return &SegmentRtree{
		tr:    &tr,
		store: store,
	}
}

// Build. inserts every segment at least 0.1m long
func (rt *SegmentRtree) Build(log *zap.Logger) {
	log.Info("Building segment R-tree...")
	count := 0
	rt.store.ForEachSegment(func(i datastructure.SegIndex, seg *datastructure.Segment) {
		if seg.GetLength() < 0.1 {
			return
		}
		rt.Insert(i)
		count++
	})
	log.Info("segment R-tree built.", zap.Int("segments", count))
}

func (rt *SegmentRtree) Insert(i datastructure.SegIndex) {
	seg := rt.store.GetSegment(i)
	from, to := seg.GetFrom(), seg.GetTo()
	rt.tr.Insert([2]float64{math.Min(from.Lon, to.Lon), math.Min(from.Lat, to.Lat)},
		[2]float64{math.Max(from.Lon, to.Lon), math.Max(from.Lat, to.Lat)}, i)
}

func (rt *SegmentRtree) Len() int {
	return rt.tr.Len()
}

// SearchWithinRadius. segments within radius meters of p, nearest first
func (rt *SegmentRtree) SearchWithinRadius(p geo.Coordinate, radius float64, hasName bool) []SegmentDistance {
	radiusKm := radius / 1000.0
	lowerLat, lowerLon := geo.GetDestinationPoint(p.Lat, p.Lon, 225, radiusKm*math.Sqrt2)
	upperLat, upperLon := geo.GetDestinationPoint(p.Lat, p.Lon, 45, radiusKm*math.Sqrt2)

	results := make([]SegmentDistance, 0, 10)
	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, i datastructure.SegIndex) bool {
			seg := rt.store.GetSegment(i)
			if hasName && seg.GetWayName() == "" {
				return true
			}
			d := geo.PointToSegmentDistance(p, seg.GetFrom(), seg.GetTo())
			if d <= radius {
				results = append(results, SegmentDistance{Seg: i, Distance: d})
			}
			return true
		})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results
}
