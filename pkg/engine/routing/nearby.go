package routing

import (
	"math"
	"slices"

	"github.com/lintang-b-s/roadmatch/pkg"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/util"
)

// TracePoint. gps point used to compare route similarity. Heading -1 = no heading
type TracePoint struct {
	Coord   geo.Coordinate
	Heading int
}

type candidateRoute struct {
	route    []da.SegIndex
	length   float64
	distance float64
}

/*
nearbySearch. collects candidate routes seg1 -> seg2 over the shortcuts of routing node rn1
(first routing node ahead of seg1). each candidate is seg1 -> rn1, the shortcut connections, then
last node -> seg2 along the oriented way of seg2.

	 seg1         rn1          mid          mid      seg2
	--->--->----->O------>----->O----->----->O--->--->--->
*/
type nearbySearch struct {
	rm         *RouteManager
	seg1, seg2 da.SegIndex
	way2       int64
	rn1        *RoutingNode
	prefix     []da.SegIndex
	candidates []candidateRoute
}

func (rm *RouteManager) newNearbySearch(seg1, seg2 da.SegIndex) (*nearbySearch, bool) {
	rn1, ok := rm.GetSrcRoutingNode(seg1)
	if !ok {
		return nil, false
	}
	prefix, ok := rm.routeSegToNode(seg1, rm.routingNodes[rn1].node, make([]da.SegIndex, 0, 8))
	if !ok {
		return nil, false
	}
	return &nearbySearch{
		rm:         rm,
		seg1:       seg1,
		seg2:       seg2,
		way2:       rm.store.GetSegment(seg2).GetOrientedWayId(),
		rn1:        &rm.routingNodes[rn1],
		prefix:     prefix,
		candidates: make([]candidateRoute, 0, 16),
	}, true
}

// add. prefix + connection segs + (last -> seg2)
func (s *nearbySearch) add(conns []ConnIndex, last RoutingNodeIndex) bool {
	route := make([]da.SegIndex, len(s.prefix), len(s.prefix)+8*len(conns)+8)
	copy(route, s.prefix)
	for _, c := range conns {
		route = append(route, s.rm.conns[c].segs...)
	}
	route, ok := s.rm.routeNodeToSeg(s.rm.routingNodes[last].node, s.seg2, route)
	if !ok {
		return false
	}
	s.candidates = append(s.candidates, candidateRoute{
		route:  route,
		length: s.rm.store.GetRouteLength(route),
	})
	return true
}

func (s *nearbySearch) rn1Index() RoutingNodeIndex {
	return s.rm.rnIndex[s.rn1.node]
}

func (s *nearbySearch) oneStep() int {
	added := 0
	for _, c := range s.rn1.connTos {
		if s.rm.conns[c].wayId == s.way2 && s.add(nil, s.rn1Index()) {
			added++
		}
	}
	return added
}

func (s *nearbySearch) twoStep() int {
	added := 0
	for i := range s.rn1.twoSteps {
		ts := &s.rn1.twoSteps[i]
		if ts.ways[1] == s.way2 && s.add(ts.conns[:1], ts.mid) {
			added++
		}
	}
	if added > 0 {
		return added
	}
	// seg2's way is not on the last connection, try the out ways
	for _, c := range s.rn1.connTos {
		to := s.rm.conns[c].to
		if s.rm.routingNodes[to].hasOutWay(s.way2) && s.add([]ConnIndex{c}, to) {
			added++
		}
	}
	return added
}

func (s *nearbySearch) threeStep() int {
	added := 0
	fours := s.rn1.fourSteps
	for i := range fours {
		if i > 0 && fours[i].hash == fours[i-1].hash {
			continue
		}
		if fours[i].ways[2] == s.way2 && s.add(fours[i].conns[:2], fours[i].mids[1]) {
			added++
		}
	}
	if added > 0 {
		return added
	}
	for i := range s.rn1.twoSteps {
		ts := &s.rn1.twoSteps[i]
		if s.rm.routingNodes[ts.to].hasOutWay(s.way2) && s.add(ts.conns[:], ts.to) {
			added++
		}
	}
	return added
}

func (s *nearbySearch) fourStep() int {
	added := 0
	fours := s.rn1.fourSteps
	for i := range fours {
		if fours[i].ways[3] == s.way2 && s.add(fours[i].conns[:3], fours[i].mids[2]) {
			added++
		}
	}
	if added > 0 {
		return added
	}
	for i := range fours {
		if i > 0 && fours[i].hash == fours[i-1].hash {
			continue
		}
		if s.rm.routingNodes[fours[i].mids[2]].hasOutWay(s.way2) && s.add(fours[i].conns[:3], fours[i].mids[2]) {
			added++
		}
	}
	return added
}

func (s *nearbySearch) fiveStep() int {
	added := 0
	sixes := s.rn1.sixSteps
	for i := range sixes {
		if i > 0 && sixes[i].hash == sixes[i-1].hash {
			continue
		}
		if sixes[i].ways[4] == s.way2 && s.add(sixes[i].conns[:4], sixes[i].mids[3]) {
			added++
		}
	}
	if added > 0 {
		return added
	}
	for i := range s.rn1.fourSteps {
		fs := &s.rn1.fourSteps[i]
		if s.rm.routingNodes[fs.to].hasOutWay(s.way2) && s.add(fs.conns[:], fs.to) {
			added++
		}
	}
	return added
}

func (s *nearbySearch) sixStep() int {
	added := 0
	for i := range s.rn1.sixSteps {
		ss := &s.rn1.sixSteps[i]
		if ss.ways[5] == s.way2 && s.add(ss.conns[:5], ss.mids[4]) {
			added++
		}
	}
	return added
}

func (s *nearbySearch) sevenStep() int {
	added := 0
	for i := range s.rn1.sixSteps {
		ss := &s.rn1.sixSteps[i]
		if s.rm.routingNodes[ss.to].hasOutWay(s.way2) && s.add(ss.conns[:], ss.to) {
			added++
		}
	}
	return added
}

// collect. steps 5-7 only when steps 1-3 found nothing, unless all
func (s *nearbySearch) collect(all bool) {
	s.oneStep()
	s.twoStep()
	s.threeStep()
	noShortRoutes := len(s.candidates) == 0
	s.fourStep()
	if all || noShortRoutes {
		s.fiveStep()
		s.sixStep()
		s.sevenStep()
	}
}

/*
RoutingNearby. short route seg1 -> seg2 using precomputed shortcuts only (at most 7 connections).
pointsReversed: both points are on the same seg but the second lies behind the first, so the route must loop.
excludeReverse: avoid synthetic reverse segments.
routes crossing a segment closed at t (or ALWAYS when t is unset) are never returned.
*/
func (rm *RouteManager) RoutingNearby(seg1, seg2 da.SegIndex, excludeReverse bool, t exclusion.TimePoint,
	pointsReversed bool) ([]da.SegIndex, bool) {
	sameSeg := seg1 == seg2
	if sameSeg && !pointsReversed {
		return []da.SegIndex{seg1}, true
	}

	if !sameSeg && rm.store.GetSegment(seg1).GetOrientedWayId() == rm.store.GetSegment(seg2).GetOrientedWayId() {
		route, ok := rm.RoutingSameOrientedWay(seg1, seg2, nil)
		if ok && !rm.HasExcludedSegs(route, t) {
			return route, true
		}
	}

	search, ok := rm.newNearbySearch(seg1, seg2)
	if !ok {
		return nil, false
	}
	search.collect(false)
	candidates := search.candidates

	if sameSeg {
		//          seg1 = seg2    ---------o----------o---------->
		//                                point2    point1
		kept := candidates[:0]
		for _, c := range candidates {
			if len(c.route) == 1 && c.route[0] == seg1 {
				continue
			}
			kept = append(kept, c)
		}
		candidates = kept
	}
	if len(candidates) == 0 {
		return nil, false
	}

	switch {
	case excludeReverse:
		best := -1
		for i := range candidates {
			if rm.HasReverseSegs(candidates[i].route) || rm.HasExcludedSegs(candidates[i].route, t) {
				continue
			}
			if best < 0 || candidates[i].length < candidates[best].length {
				best = i
			}
		}
		if best < 0 {
			return nil, false
		}
		return candidates[best].route, true

	default:
		best, bestExcluded := -1, true
		for i := range candidates {
			excluded := rm.HasExcludedSegs(candidates[i].route, t)
			if best < 0 || (bestExcluded && !excluded) ||
				(excluded == bestExcluded && candidates[i].length < candidates[best].length) {
				best, bestExcluded = i, excluded
			}
		}
		if bestExcluded {
			return nil, false
		}
		return candidates[best].route, true
	}
}

/*
SimilarRoutingNearby. like RoutingNearby but every step count is tried and the route most similar to the trace
wins (hausdorff distance with heading, see Distance). near ties (< 0.00003) go to the shorter route.
ALWAYS excluded routes are skipped. distance is -1 when not computed.
*/
func (rm *RouteManager) SimilarRoutingNearby(seg1, seg2 da.SegIndex, trace []TracePoint,
	excludeReverse bool) ([]da.SegIndex, float64, bool) {
	if len(trace) < 2 {
		route, ok := rm.RoutingNearby(seg1, seg2, excludeReverse, exclusion.TimePoint{}, false)
		return route, -1, ok
	}
	if seg1 == seg2 {
		return []da.SegIndex{seg1}, -1, true
	}

	pos1 := rm.wayPosition(seg1)
	if pos1 < 0 {
		return nil, -1, false
	}
	if rm.isSameOrientedWay(seg1, seg2) {
		pos2 := rm.wayPosition(seg2)
		if pos2 < 0 {
			return nil, -1, false
		}
		if pos1 <= pos2 {
			route, ok := rm.RoutingSameOrientedWay(seg1, seg2, nil)
			if ok && excludeReverse && rm.HasReverseSegs(route) {
				ok = false
			}
			if !ok || rm.HasExcludedSegs(route, exclusion.TimePoint{}) {
				return nil, -1, false
			}
			d := rm.Distance(route, trace)
			return route, d, d < pkg.SIMILAR_ROUTE_MAX_DISTANCE
		}
	}

	search, ok := rm.newNearbySearch(seg1, seg2)
	if !ok {
		return nil, -1, false
	}
	search.collect(true)
	candidates := search.candidates
	kept := candidates[:0]
	for _, c := range candidates {
		if excludeReverse && rm.HasReverseSegs(c.route) {
			continue
		}
		// always closed, whatever the time
		if rm.HasExcludedSegs(c.route, exclusion.TimePoint{}) {
			continue
		}
		kept = append(kept, c)
	}
	candidates = kept
	candidates = rm.removeDuplicatedRoutes(candidates)
	if len(candidates) == 0 {
		return nil, -1, false
	}

	for i := range candidates {
		candidates[i].distance = rm.Distance(candidates[i].route, trace)
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		a, b := &candidates[i], &candidates[best]
		if util.Abs(a.distance-b.distance) < pkg.SIMILAR_ROUTE_TIE_DISTANCE {
			if a.length < b.length {
				best = i
			}
		} else if a.distance < b.distance {
			best = i
		}
	}
	d := candidates[best].distance
	return candidates[best].route, d, d < pkg.SIMILAR_ROUTE_MAX_DISTANCE
}

func (rm *RouteManager) removeDuplicatedRoutes(candidates []candidateRoute) []candidateRoute {
	if len(candidates) <= 1 {
		return candidates
	}
	buckets := make(map[int64][]int, len(candidates))
	kept := candidates[:0]
	for _, c := range candidates {
		var h int64
		for _, s := range c.route {
			h += rm.store.GetSegment(s).GetId()
		}
		dup := false
		for _, k := range buckets[h] {
			if slices.Equal(kept[k].route, c.route) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		buckets[h] = append(buckets[h], len(kept))
		kept = append(kept, c)
	}
	return kept
}

/*
Distance. one-way hausdorff distance from trace to route, heading aware:
for each point the distance to the nearest segment heading the same way (40 degree tolerance),
then the maximum. a point with no such segment within 1000m yields MaxFloat64.

	          s2       s1
	     <----------<---------
	     | <--o P2
	 s3  |             <--o P1
	     V----------->----------->
	         s4         s5
*/
func (rm *RouteManager) Distance(route []da.SegIndex, trace []TracePoint) float64 {
	maxDist := -1.0
	for _, p := range trace {
		minDist2 := math.MaxFloat64
		for _, s := range route {
			seg := rm.store.GetSegment(s)
			if seg.GetLength() < pkg.MIN_INDEXED_LENGTH {
				continue
			}
			if p.Heading != -1 && geo.GetAngle(seg.GetHeading(), p.Heading) > pkg.SIMILAR_ROUTE_HEADING_TOLERANCE {
				continue
			}
			if d2 := seg.DistanceSquareMeters(p.Coord); d2 < minDist2 {
				minDist2 = d2
			}
		}
		dist := math.MaxFloat64
		if minDist2 <= pkg.SIMILAR_ROUTE_MAX_DISTANCE {
			dist = math.Sqrt(minDist2)
		}
		if dist > maxDist {
			maxDist = dist
		}
	}
	return maxDist
}
