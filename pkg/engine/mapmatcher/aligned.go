package mapmatcher

import (
	"math"

	"github.com/lintang-b-s/roadmatch/pkg"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/engine/routing"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
)

/*
bestAlignedRoute. route between the candidate pair that follows the trace points from..to.
when the group endpoints are close, the route most similar to the trace is tried first, otherwise ShortestPath.
a similar route crossing an excluded segment falls back to ShortestPath, and any route
that leaves a trace point too far behind is rejected.
*/
func (s *session) bestAlignedRoute(pair *routingPair, from, to int) bool {
	found := false
	if to-from > 1 {
		direct := geo.DistanceBetween(s.vias[from].Coord, s.vias[to].Coord)
		if direct < pkg.SIMILAR_ROUTE_MAX_DIRECT_DISTANCE {
			trace := make([]routing.TracePoint, 0, to-from+1)
			for i := from; i <= to; i++ {
				trace = append(trace, routing.TracePoint{Coord: s.vias[i].Coord, Heading: s.vias[i].Heading})
			}
			route, _, ok := s.m.router.SimilarRoutingNearby(pair.fromSeg, pair.toSeg, trace, false)
			if ok && !s.m.router.HasExcludedSegs(route, s.timePoint(from)) {
				pair.route = route
				found = true
			}
		}
	}

	if !found {
		route, ok := s.m.router.ShortestPath(pair.fromSeg, pair.toSeg, false, s.timePoint(from))
		if !ok {
			pair.route = nil
			return false
		}
		pair.route = route
	}

	if !s.isRouteAligned(from, to, pair.route) {
		pair.route = nil
		return false
	}
	return len(pair.route) > 0
}

func (s *session) isRouteAligned(from, to int, route []da.SegIndex) bool {
	if len(route) == 0 {
		return false
	}
	for i := from; i <= to; i++ {
		if s.pointToRouteDist(s.vias[i].Coord, route) > s.distanceLimit {
			return false
		}
	}
	return true
}

// pointToRouteDist. min distance from a point to the route. segments whose from point is far only count that point
func (s *session) pointToRouteDist(p geo.Coordinate, route []da.SegIndex) float64 {
	minDist := math.MaxFloat64
	for _, si := range route {
		seg := s.m.store.GetSegment(si)
		dist := geo.DistanceBetween(seg.GetFrom(), p)
		if dist < 2*pkg.MAX_SEGMENT_LEN {
			dist = geo.PointToSegmentDistance(p, seg.GetFrom(), seg.GetTo())
		}
		if dist < minDist {
			minDist = dist
		}
	}
	return minDist
}

// routeWeight. weight including the first segment, excluding the last
func (s *session) routeWeight(route []da.SegIndex) int {
	w := 0
	for i := 0; i+1 < len(route); i++ {
		seg := s.m.store.GetSegment(route[i])
		w += routing.DistanceToWeight(seg.GetLength(), seg.GetHighwayType())
	}
	return w
}

/*
calculatePairWeight. the first segment counts from the projection of point from to its end,
the last segment from its start to the projection of point to, the rest at full length.
*/
func (s *session) calculatePairWeight(pair *routingPair, from, to int) {
	if len(pair.route) == 0 {
		pair.weight = pkg.INVALID_WEIGHT
		return
	}
	store := s.m.store
	first := store.GetSegment(pair.route[0])
	last := store.GetSegment(pair.route[len(pair.route)-1])

	w := routing.DistanceToWeight(geo.ProjectionDistance(s.vias[from].Coord, first.GetFrom(), first.GetTo(), false),
		first.GetHighwayType())
	w += routing.DistanceToWeight(geo.ProjectionDistance(s.vias[to].Coord, last.GetFrom(), last.GetTo(), true),
		last.GetHighwayType())
	for i := 1; i+1 < len(pair.route); i++ {
		seg := store.GetSegment(pair.route[i])
		w += routing.DistanceToWeight(seg.GetLength(), seg.GetHighwayType())
	}
	pair.weight = w
}
