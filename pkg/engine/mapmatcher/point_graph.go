package mapmatcher

import (
	"github.com/lintang-b-s/roadmatch/pkg"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
)

// pointGraph. small graph, node = candidate segment of a point, edge = ShortestPath between candidates of consecutive points
type pointGraph struct {
	nodes []graphNode
	edges []graphEdge
}

type graphNode struct {
	seg   da.SegIndex
	edges []int
}

type graphEdge struct {
	from, to int
	weight   int
	segs     []da.SegIndex // first and last segment included
}

func (g *pointGraph) reset() {
	g.nodes = g.nodes[:0]
	g.edges = g.edges[:0]
}

func (g *pointGraph) isEmpty() bool {
	return len(g.nodes) == 0
}

func (g *pointGraph) addEdge(from, to, weight int, segs []da.SegIndex) {
	g.edges = append(g.edges, graphEdge{from: from, to: to, weight: weight, segs: segs})
	g.nodes[from].edges = append(g.nodes[from].edges, len(g.edges)-1)
}

// buildGraph. one node per candidate of points from..to, edges between consecutive matched points.
// when two points are not connected at all the next point is skipped once, if that fails too the graph is emptied.
func (s *session) buildGraph(from, to int) *pointGraph {
	g := &pointGraph{}
	for i := from; i <= to; i++ {
		mp := &s.points[i]
		for k, seg := range mp.segs {
			mp.gnodes[k] = INVALID_GRAPH_NODE
			if seg == da.INVALID_SEG {
				continue
			}
			mp.gnodes[k] = len(g.nodes)
			g.nodes = append(g.nodes, graphNode{seg: seg})
		}
	}
	if g.isEmpty() {
		return g
	}

	connect := func(i1, i2 int) int {
		p1, p2 := &s.points[i1], &s.points[i2]
		count := 0
		for c1, seg1 := range p1.segs {
			if seg1 == da.INVALID_SEG {
				continue
			}
			for c2, seg2 := range p2.segs {
				if seg2 == da.INVALID_SEG {
					continue
				}
				route, ok := s.m.router.ShortestPath(seg1, seg2, false, s.timePoint(i1))
				if !ok {
					continue
				}
				g.addEdge(p1.gnodes[c1], p2.gnodes[c2], s.routeWeight(route), route)
				count++
			}
		}
		return count
	}

	nextMatched := func(i int) int {
		for i < to && !s.points[i].hasMatched() {
			i++
		}
		return i
	}

	for i := from; i < to; {
		i2 := nextMatched(i + 1)
		count := connect(i, i2)
		if count == 0 && i2 < to {
			i2 = nextMatched(i2 + 1)
			count = connect(i, i2)
		}
		if count == 0 {
			g.reset()
			return g
		}
		i = i2
	}
	return g
}

// findRoutePointByPoint. new pair from the candidates of points from and to, routed by dijkstra over pointGraph
func (s *session) findRoutePointByPoint(from, to int) ([]routingPair, bool) {
	g := s.buildGraph(from, to)
	if g.isEmpty() {
		return nil, false
	}

	fromPt, toPt := &s.points[from], &s.points[to]
	pairs := make([]routingPair, 0, pkg.MAX_MATCH_CANDIDATES*pkg.MAX_MATCH_CANDIDATES)
	for c1, gn1 := range fromPt.gnodes {
		if gn1 == INVALID_GRAPH_NODE {
			continue
		}
		for c2, gn2 := range toPt.gnodes {
			if gn2 == INVALID_GRAPH_NODE {
				continue
			}
			pairs = append(pairs, newRoutingPair(fromPt.segs[c1], toPt.segs[c2], gn1, gn2))
		}
	}
	if len(pairs) == 0 {
		return nil, false
	}

	for i := range pairs {
		p := &pairs[i]
		p.route = g.shortestRoute(p.fromGnode, p.toGnode)
		s.calculatePairWeight(p, from, to)
		if p.isValid() && !s.isRouteAligned(from, to, p.route) {
			p.weight = pkg.INVALID_WEIGHT
			p.route = nil
		}
	}
	return pairs, true
}

// shortestRoute. dijkstra from node s to t, route = concatenated segs of each edge
func (g *pointGraph) shortestRoute(s, t int) []da.SegIndex {
	if s == t {
		return nil
	}
	dist := make([]int, len(g.nodes))
	parentEdge := make([]int, len(g.nodes))
	finished := make([]bool, len(g.nodes))
	hnodes := make([]*da.PriorityQueueNode[int], len(g.nodes))
	for i := range dist {
		dist[i] = pkg.INVALID_WEIGHT
		parentEdge[i] = -1
	}

	pq := da.NewBinaryHeap[int]()
	pq.Preallocate(len(g.nodes))
	dist[s] = 0
	hnodes[s] = da.NewPriorityQueueNode(0, s)
	pq.Insert(hnodes[s])

	found := false
	for !pq.IsEmpty() {
		hnode, err := pq.ExtractMin()
		if err != nil {
			break
		}
		u := hnode.GetItem()
		finished[u] = true
		if u == t {
			found = true
			break
		}
		for _, ei := range g.nodes[u].edges {
			e := &g.edges[ei]
			if finished[e.to] {
				continue
			}
			nd := dist[u] + e.weight
			if hnodes[e.to] == nil {
				dist[e.to] = nd
				parentEdge[e.to] = ei
				hnodes[e.to] = da.NewPriorityQueueNode(nd, e.to)
				pq.Insert(hnodes[e.to])
				continue
			}
			if nd < dist[e.to] {
				if err := pq.DecreaseKey(hnodes[e.to], nd); err != nil {
					continue
				}
				dist[e.to] = nd
				parentEdge[e.to] = ei
			}
		}
	}
	if !found {
		return nil
	}

	path := make([]int, 0, 8)
	for v := t; parentEdge[v] != -1; v = g.edges[parentEdge[v]].from {
		path = append(path, parentEdge[v])
	}
	route := make([]da.SegIndex, 0, 4*len(path))
	for i := len(path) - 1; i >= 0; i-- {
		for _, seg := range g.edges[path[i]].segs {
			route = appendSegRoute(route, seg)
		}
	}
	return route
}
