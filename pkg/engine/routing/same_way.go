package routing

import (
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
)

// RoutingSameOrientedWay. appends segments seg1..seg2 (inclusive) along seg1's oriented way to route.
// false when seg2 is not ahead of seg1.
func (rm *RouteManager) RoutingSameOrientedWay(seg1, seg2 da.SegIndex, route []da.SegIndex) ([]da.SegIndex, bool) {
	way := rm.store.GetSegmentWay(seg1)
	if way == nil {
		return route, false
	}
	pos1 := way.FindSegment(0, seg1)
	if pos1 < 0 {
		return route, false
	}
	pos2 := way.FindSegment(pos1, seg2)
	if pos2 < 0 {
		return route, false
	}
	return append(route, way.GetSegments()[pos1:pos2+1]...), true
}

// routeSegToNode. forward from seg1 up to the segment whose to node is node
func (rm *RouteManager) routeSegToNode(seg1 da.SegIndex, node da.NodeIndex, route []da.SegIndex) ([]da.SegIndex, bool) {
	way := rm.store.GetSegmentWay(seg1)
	if way == nil {
		return route, false
	}
	pos1 := way.FindSegment(0, seg1)
	if pos1 < 0 {
		return route, false
	}
	segs := way.GetSegments()
	for i := pos1; i < len(segs); i++ {
		if rm.store.GetSegment(segs[i]).GetToNode() == node {
			return append(route, segs[pos1:i+1]...), true
		}
	}
	return route, false
}

// routeNodeToSeg. along seg2's oriented way, from the first segment leaving node up to seg2
func (rm *RouteManager) routeNodeToSeg(node da.NodeIndex, seg2 da.SegIndex, route []da.SegIndex) ([]da.SegIndex, bool) {
	way := rm.store.GetSegmentWay(seg2)
	if way == nil {
		return route, false
	}
	segs := way.GetSegments()
	for i := range segs {
		if rm.store.GetSegment(segs[i]).GetFromNode() != node {
			continue
		}
		pos2 := way.FindSegment(i, seg2)
		if pos2 < 0 {
			return route, false
		}
		return append(route, segs[i:pos2+1]...), true
	}
	return route, false
}

// routeWayNodeToNode. along oriented way wayId, from node n1 to node n2
func (rm *RouteManager) routeWayNodeToNode(wayId int64, n1, n2 da.NodeIndex, route []da.SegIndex) ([]da.SegIndex, bool) {
	wi, ok := rm.store.GetWayById(wayId)
	if !ok {
		return route, false
	}
	segs := rm.store.GetWay(wi).GetSegments()
	for i := range segs {
		if rm.store.GetSegment(segs[i]).GetFromNode() != n1 {
			continue
		}
		for k := i; k < len(segs); k++ {
			if rm.store.GetSegment(segs[k]).GetToNode() == n2 {
				return append(route, segs[i:k+1]...), true
			}
		}
		return route, false
	}
	return route, false
}

// GetSrcRoutingNode. first routing node ahead of seg, counting seg's own to node
func (rm *RouteManager) GetSrcRoutingNode(seg da.SegIndex) (RoutingNodeIndex, bool) {
	way := rm.store.GetSegmentWay(seg)
	if way == nil {
		return INVALID_ROUTING_NODE, false
	}
	pos := way.FindSegment(0, seg)
	if pos < 0 {
		return INVALID_ROUTING_NODE, false
	}
	segs := way.GetSegments()
	for i := pos; i < len(segs); i++ {
		if rn, ok := rm.GetRoutingNodeOf(rm.store.GetSegment(segs[i]).GetToNode()); ok {
			return rn, true
		}
	}
	return INVALID_ROUTING_NODE, false
}

// GetDstRoutingNode. last routing node behind seg, counting seg's own from node
func (rm *RouteManager) GetDstRoutingNode(seg da.SegIndex) (RoutingNodeIndex, bool) {
	way := rm.store.GetSegmentWay(seg)
	if way == nil {
		return INVALID_ROUTING_NODE, false
	}
	pos := way.FindSegment(0, seg)
	if pos < 0 {
		return INVALID_ROUTING_NODE, false
	}
	segs := way.GetSegments()
	for i := pos; i >= 0; i-- {
		if rn, ok := rm.GetRoutingNodeOf(rm.store.GetSegment(segs[i]).GetFromNode()); ok {
			return rn, true
		}
	}
	return INVALID_ROUTING_NODE, false
}

/*
GetLeadSeg. first segment of the edge containing seg. seg itself when its from node is a routing node,
otherwise walk back along the oriented way to the segment leaving a routing node, or the way's first segment.
*/
func (rm *RouteManager) GetLeadSeg(seg da.SegIndex) da.SegIndex {
	if _, ok := rm.GetRoutingNodeOf(rm.store.GetSegment(seg).GetFromNode()); ok {
		return seg
	}
	way := rm.store.GetSegmentWay(seg)
	if way == nil {
		return seg
	}
	pos := way.FindSegment(0, seg)
	if pos < 0 {
		return seg
	}
	segs := way.GetSegments()
	for i := pos; i >= 0; i-- {
		if _, ok := rm.GetRoutingNodeOf(rm.store.GetSegment(segs[i]).GetFromNode()); ok {
			return segs[i]
		}
	}
	return segs[0]
}

// SegmentToEdge. edge id = id of the first segment after a routing node
func (rm *RouteManager) SegmentToEdge(seg da.SegIndex) int64 {
	return rm.store.GetSegment(rm.GetLeadSeg(seg)).GetId()
}

// GetAdjacentOutboundSegs. segments leaving node nodeId, nodeId 0 = routing node ahead of seg
func (rm *RouteManager) GetAdjacentOutboundSegs(seg da.SegIndex, nodeId int64) []da.SegIndex {
	node := da.INVALID_NODE
	if nodeId == 0 {
		rn, ok := rm.GetSrcRoutingNode(seg)
		if !ok {
			return nil
		}
		node = rm.routingNodes[rn].node
	} else {
		n, ok := rm.store.GetNodeById(nodeId)
		if !ok {
			return nil
		}
		node = n
	}

	out := make([]da.SegIndex, 0, 4)
	for _, s := range rm.store.GetNode(node).GetConnectedSegments() {
		if rm.store.GetSegment(s).GetFromNode() == node {
			out = append(out, s)
		}
	}
	return out
}

func (rm *RouteManager) isSameOrientedWay(seg1, seg2 da.SegIndex) bool {
	return rm.store.GetSegment(seg1).GetWay() == rm.store.GetSegment(seg2).GetWay()
}

// wayPosition. position of seg in its oriented way, -1 if absent
func (rm *RouteManager) wayPosition(seg da.SegIndex) int {
	way := rm.store.GetSegmentWay(seg)
	if way == nil {
		return -1
	}
	return way.FindSegment(0, seg)
}
