package routing

import (
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
)

// vertexInfo. per-search state of a routing node.
// absent from the map = unvisited, present but not scanned = tentative, scanned = finished.
type vertexInfo struct {
	weight     int
	parentConn ConnIndex // forward: incoming connection, backward: outgoing
	scanned    bool
	heapNode   *da.PriorityQueueNode[RoutingNodeIndex]
}

func newVertexInfo(weight int, parentConn ConnIndex, hnode *da.PriorityQueueNode[RoutingNodeIndex]) *vertexInfo {
	return &vertexInfo{
		weight:     weight,
		parentConn: parentConn,
		heapNode:   hnode,
	}
}

func (vi *vertexInfo) GetWeight() int {
	return vi.weight
}

func (vi *vertexInfo) IsScanned() bool {
	return vi.scanned
}

// searchSide. one direction of a dijkstra search, created per query so queries can run in parallel
type searchSide struct {
	rm       *RouteManager
	backward bool
	info     map[RoutingNodeIndex]*vertexInfo
	pq       *da.MinHeap[RoutingNodeIndex]
	steps    int
}

func (rm *RouteManager) newSearchSide(source RoutingNodeIndex, backward bool) *searchSide {
	s := &searchSide{
		rm:       rm,
		backward: backward,
		info:     make(map[RoutingNodeIndex]*vertexInfo, 256),
		pq:       da.NewFourAryHeap[RoutingNodeIndex](),
	}
	s.pq.Preallocate(256)
	hnode := da.NewPriorityQueueNode(0, source)
	s.pq.Insert(hnode)
	s.info[source] = newVertexInfo(0, INVALID_CONN, hnode)
	return s
}

func (s *searchSide) isEmpty() bool {
	return s.pq.IsEmpty()
}

// settle. pop the minimum weight node and mark it finished
func (s *searchSide) settle() (RoutingNodeIndex, *vertexInfo) {
	hnode, err := s.pq.ExtractMin()
	if err != nil {
		return INVALID_ROUTING_NODE, nil
	}
	u := hnode.GetItem()
	ui := s.info[u]
	ui.scanned = true
	s.steps++
	return u, ui
}

// relax. connections closed at time t are skipped
func (s *searchSide) relax(u RoutingNodeIndex, ui *vertexInfo, t exclusion.TimePoint) {
	rn := &s.rm.routingNodes[u]
	conns := rn.connTos
	if s.backward {
		conns = rn.connFroms
	}
	for _, c := range conns {
		conn := &s.rm.conns[c]
		if s.rm.isConnExcludedAt(conn, t) {
			continue
		}
		v := conn.to
		if s.backward {
			v = conn.from
		}
		newWeight := ui.weight + conn.weight

		vi, ok := s.info[v]
		if !ok {
			hnode := da.NewPriorityQueueNode(newWeight, v)
			s.pq.Insert(hnode)
			s.info[v] = newVertexInfo(newWeight, c, hnode)
			continue
		}
		if vi.scanned || newWeight >= vi.weight {
			continue
		}
		if err := s.pq.DecreaseKey(vi.heapNode, newWeight); err != nil {
			continue
		}
		vi.weight = newWeight
		vi.parentConn = c
	}
}

// forwardPath. connections from source to target (forward side)
func (s *searchSide) forwardPath(target RoutingNodeIndex) []ConnIndex {
	path := make([]ConnIndex, 0, 16)
	v := target
	for {
		vi := s.info[v]
		if vi.parentConn == INVALID_CONN {
			break
		}
		path = append(path, vi.parentConn)
		v = s.rm.conns[vi.parentConn].from
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// backwardPath. connections from node to the backward search's target
func (s *searchSide) backwardPath(from RoutingNodeIndex) []ConnIndex {
	path := make([]ConnIndex, 0, 16)
	v := from
	for {
		vi := s.info[v]
		if vi.parentConn == INVALID_CONN {
			break
		}
		path = append(path, vi.parentConn)
		v = s.rm.conns[vi.parentConn].to
	}
	return path
}
