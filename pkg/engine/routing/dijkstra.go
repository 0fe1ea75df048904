package routing

import (
	"math"
	"time"

	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
)

type SearchStats struct {
	Steps    int
	Duration time.Duration
}

func (rm *RouteManager) budgetExceeded(steps int) bool {
	return rm.maxSearchSteps > 0 && steps >= rm.maxSearchSteps
}

// Dijkstra. connection path from s to t over the routing node graph. false when there is no path
// or the step budget runs out.
func (rm *RouteManager) Dijkstra(s, t RoutingNodeIndex, tp exclusion.TimePoint) ([]ConnIndex, int, bool) {
	rm.dijkstraCalls.Add(1)
	fwd := rm.newSearchSide(s, false)

	found := false
	for !fwd.isEmpty() {
		if rm.budgetExceeded(fwd.steps) {
			break
		}
		u, ui := fwd.settle()
		if u == t {
			found = true
			break
		}
		fwd.relax(u, ui, tp)
	}
	if !found {
		return nil, fwd.steps, false
	}
	rm.dijkstraSuccess.Add(1)
	return fwd.forwardPath(t), fwd.steps, true
}

/*
DijkstraBiDir. alternates forward from s and backward from t. upperBound = best total weight
over the meeting nodes seen so far. a side stops (its heap is emptied) once its minimum node
exceeds upperBound.
*/
func (rm *RouteManager) DijkstraBiDir(s, t RoutingNodeIndex, tp exclusion.TimePoint) ([]ConnIndex, int, bool) {
	rm.dijkstraCalls.Add(1)
	fwd := rm.newSearchSide(s, false)
	bwd := rm.newSearchSide(t, true)

	mid := INVALID_ROUTING_NODE
	upperBound := math.MaxInt
	for !fwd.isEmpty() || !bwd.isEmpty() {
		if rm.budgetExceeded(fwd.steps + bwd.steps) {
			break
		}
		if !fwd.isEmpty() {
			rm.stepBiDir(fwd, bwd, &mid, &upperBound, tp)
		}
		if !bwd.isEmpty() {
			rm.stepBiDir(bwd, fwd, &mid, &upperBound, tp)
		}
	}

	steps := fwd.steps + bwd.steps
	if upperBound == math.MaxInt {
		return nil, steps, false
	}
	rm.dijkstraSuccess.Add(1)
	path := fwd.forwardPath(mid)
	path = append(path, bwd.backwardPath(mid)...)
	return path, steps, true
}

func (rm *RouteManager) stepBiDir(side, other *searchSide, mid *RoutingNodeIndex, upperBound *int,
	tp exclusion.TimePoint) {
	u, ui := side.settle()
	if ui == nil {
		return
	}
	if oi, ok := other.info[u]; ok {
		if w := ui.weight + oi.weight; w < *upperBound {
			*upperBound = w
			*mid = u
		}
	}
	if ui.weight > *upperBound {
		side.pq.RemoveAll()
		return
	}
	side.relax(u, ui, tp)
}

func (rm *RouteManager) search(s, t RoutingNodeIndex, tp exclusion.TimePoint) ([]ConnIndex, int, bool) {
	if rm.biDirectional {
		return rm.DijkstraBiDir(s, t, tp)
	}
	return rm.Dijkstra(s, t, tp)
}

/*
DijkstraShortestPath. route seg1 -> seg2 by dijkstra over the routing node graph.

	                 (source)        (destination)
	  seg1             RN1              RN2             seg2
	--->--->--->------->O----> ... ----->O------>------>----->

the same seg (or seg2 ahead of seg1 on the same oriented way) is handled by RoutingNearby.
both end routing nodes must lie in the same weakly connected component.
*/
func (rm *RouteManager) DijkstraShortestPath(seg1, seg2 da.SegIndex, t exclusion.TimePoint,
	pointsReversed bool) ([]da.SegIndex, SearchStats, bool) {
	start := time.Now()
	if seg1 == seg2 {
		if route, ok := rm.RoutingNearby(seg1, seg2, false, t, pointsReversed); ok {
			return route, SearchStats{Duration: time.Since(start)}, true
		}
	} else if rm.isSameOrientedWay(seg1, seg2) {
		pos1, pos2 := rm.wayPosition(seg1), rm.wayPosition(seg2)
		if pos1 >= 0 && pos1 < pos2 {
			route, ok := rm.RoutingNearby(seg1, seg2, false, t, false)
			return route, SearchStats{Duration: time.Since(start)}, ok
		}
	}

	rn1, ok := rm.GetSrcRoutingNode(seg1)
	if !ok {
		return nil, SearchStats{}, false
	}
	rn2, ok := rm.GetDstRoutingNode(seg2)
	if !ok {
		return nil, SearchStats{}, false
	}
	node1 := rm.store.GetNode(rm.routingNodes[rn1].node)
	node2 := rm.store.GetNode(rm.routingNodes[rn2].node)
	if node1.IsWeakConnected() != node2.IsWeakConnected() {
		return nil, SearchStats{}, false
	}

	conns, steps, ok := rm.search(rn1, rn2, t)
	stats := SearchStats{Steps: steps, Duration: time.Since(start)}
	if !ok {
		return nil, stats, false
	}

	route, ok := rm.routeSegToNode(seg1, rm.routingNodes[rn1].node, make([]da.SegIndex, 0, 8*(len(conns)+2)))
	if !ok {
		return nil, stats, false
	}
	for _, c := range conns {
		route = append(route, rm.conns[c].segs...)
	}
	route, ok = rm.routeNodeToSeg(rm.routingNodes[rn2].node, seg2, route)
	if !ok {
		return nil, stats, false
	}
	stats.Duration = time.Since(start)
	return route, stats, true
}

// ShortestPath. RoutingNearby first, dijkstra when that fails
func (rm *RouteManager) ShortestPath(seg1, seg2 da.SegIndex, excludeReverse bool,
	t exclusion.TimePoint) ([]da.SegIndex, bool) {
	if route, ok := rm.RoutingNearby(seg1, seg2, excludeReverse, t, false); ok {
		return route, true
	}
	route, _, ok := rm.DijkstraShortestPath(seg1, seg2, t, false)
	return route, ok
}

// ShortestEdgePath. ShortestPath as edge ids (id of the first segment after a routing node)
func (rm *RouteManager) ShortestEdgePath(seg1, seg2 da.SegIndex) ([]int64, bool) {
	route, ok := rm.ShortestPath(seg1, seg2, false, exclusion.TimePoint{})
	if !ok {
		return nil, false
	}
	edges := make([]int64, 0, len(route))
	for _, s := range route {
		e := rm.SegmentToEdge(s)
		if len(edges) > 0 && edges[len(edges)-1] == e {
			continue
		}
		edges = append(edges, e)
	}
	return edges, true
}
