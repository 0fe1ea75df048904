package routing

import (
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/concurrent"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"go.uber.org/zap"
)

type ExclusionChecker interface {
	IsSegmentExcluded(seg *da.Segment, t exclusion.TimePoint) bool
}

/*
RouteManager. routing node graph on top of a Store.
a routing node is a node with IsRoutingNode (way connector or dead end). routing nodes are linked by Connections
(1 step) running along one oriented way, composed into 2, 4 and 6 step shortcuts.

	       conn (way A)          conn (way B)
	RN1 O--->--->--->---O RN2 O--->--->---O RN3
	     \____________ two step ____________/
*/
type RouteManager struct {
	store   *da.Store
	checker ExclusionChecker
	log     *zap.Logger

	numWorkers   int
	shortestMode bool

	rnIndex      []RoutingNodeIndex // NodeIndex -> RoutingNodeIndex
	routingNodes []RoutingNode
	conns        []Connection

	biDirectional  bool
	maxSearchSteps int

	dijkstraCalls   atomic.Int64
	dijkstraSuccess atomic.Int64
}

func NewRouteManager(store *da.Store, checker ExclusionChecker, log *zap.Logger) *RouteManager {
	return &RouteManager{
		store:      store,
		checker:    checker,
		log:        log,
		numWorkers: runtime.NumCPU(),
	}
}

func (rm *RouteManager) SetNumWorkers(n int) {
	if n > 0 {
		rm.numWorkers = n
	}
}

// SetBiDirectional. use bidirectional dijkstra for DijkstraShortestPath
func (rm *RouteManager) SetBiDirectional(v bool) {
	rm.biDirectional = v
}

// SetMaxSearchSteps. 0 = unlimited
func (rm *RouteManager) SetMaxSearchSteps(steps int) {
	rm.maxSearchSteps = steps
}

func (rm *RouteManager) GetStore() *da.Store {
	return rm.store
}

func (rm *RouteManager) NumberOfRoutingNodes() int {
	return len(rm.routingNodes)
}

func (rm *RouteManager) NumberOfConnections() int {
	return len(rm.conns)
}

func (rm *RouteManager) GetRoutingNode(i RoutingNodeIndex) *RoutingNode {
	return &rm.routingNodes[i]
}

func (rm *RouteManager) GetConnection(i ConnIndex) *Connection {
	return &rm.conns[i]
}

// GetRoutingNodeOf. false when node is not a routing node
func (rm *RouteManager) GetRoutingNodeOf(n da.NodeIndex) (RoutingNodeIndex, bool) {
	if n == da.INVALID_NODE || int(n) >= len(rm.rnIndex) {
		return INVALID_ROUTING_NODE, false
	}
	rn := rm.rnIndex[n]
	return rn, rn != INVALID_ROUTING_NODE
}

// GetDijkstraStats. dijkstra calls and how many found a path
func (rm *RouteManager) GetDijkstraStats() (int64, int64) {
	return rm.dijkstraCalls.Load(), rm.dijkstraSuccess.Load()
}

/*
DistanceToWeight. connection weight from length (meters) and highway type, in units of 0.1 second.
profile speed is flattened to x0.8 + 11 km/h.
*/
func DistanceToWeight(dist float64, highwayType pkg.HighwayType) int {
	util.AssertPanic(highwayType.Valid(), "unknown highway type")
	speed := float64(pkg.SPEED_PROFILE[highwayType])
	if speed > 0 {
		speed = speed*0.8 + 11
	}
	w := int(dist*10/(speed/3.6) + .5)
	if w <= 0 {
		w = 1
	}
	return w
}

// InitForRouting. builds routing nodes, 1 step connections, out ways, then 2/4/6 step shortcuts.
// shortestMode keeps only the shortest 2 step per destination.
func (rm *RouteManager) InitForRouting(shortestMode bool) error {
	start := time.Now()
	rm.shortestMode = shortestMode

	rm.initRoutingNodes()
	if len(rm.routingNodes) == 0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "no routing node in graph")
	}

	rm.buildOneStepConnections()
	rm.buildOutWays()
	n := len(rm.routingNodes)
	concurrent.ParallelRange(n, rm.numWorkers, func(i int) {
		rm.buildTwoStepConnections(RoutingNodeIndex(i))
	})
	concurrent.ParallelRange(n, rm.numWorkers, func(i int) {
		rm.buildFourStepConnections(RoutingNodeIndex(i))
	})
	concurrent.ParallelRange(n, rm.numWorkers, func(i int) {
		rm.buildSixStepConnections(RoutingNodeIndex(i))
	})

	var two, four, six int
	for i := range rm.routingNodes {
		two += len(rm.routingNodes[i].twoSteps)
		four += len(rm.routingNodes[i].fourSteps)
		six += len(rm.routingNodes[i].sixSteps)
	}
	rm.log.Info("routing graph initialized",
		zap.Int("routing_nodes", n),
		zap.Int("connections", len(rm.conns)),
		zap.Int("two_step", two),
		zap.Int("four_step", four),
		zap.Int("six_step", six),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (rm *RouteManager) initRoutingNodes() {
	rm.rnIndex = make([]RoutingNodeIndex, rm.store.NumberOfNodes())
	rm.routingNodes = rm.routingNodes[:0]
	rm.conns = rm.conns[:0]
	rm.store.ForEachNode(func(i da.NodeIndex, node *da.Node) {
		rm.rnIndex[i] = INVALID_ROUTING_NODE
		if !node.IsRoutingNode() {
			return
		}
		rm.rnIndex[i] = RoutingNodeIndex(len(rm.routingNodes))
		rm.routingNodes = append(rm.routingNodes, newRoutingNode(i))
	})
}

func (rm *RouteManager) buildOneStepConnections() {
	for i := range rm.routingNodes {
		rn := RoutingNodeIndex(i)
		nodeIdx := rm.routingNodes[i].node
		for _, s := range rm.store.GetNode(nodeIdx).GetConnectedSegments() {
			if rm.store.GetSegment(s).GetFromNode() != nodeIdx {
				continue
			}
			rm.connectAlongWay(rn, s)
		}
	}
}

// connectAlongWay. walk the oriented way from seg until the first valid routing node
func (rm *RouteManager) connectAlongWay(rn RoutingNodeIndex, s da.SegIndex) {
	way := rm.store.GetSegmentWay(s)
	if way == nil {
		return
	}
	pos := way.FindSegment(0, s)
	if pos < 0 {
		return
	}
	origin := rm.routingNodes[rn].node
	segs := way.GetSegments()

	dist := 0.0
	for i := pos; i < len(segs); i++ {
		cur := rm.store.GetSegment(segs[i])
		dist += cur.GetLength()
		toIdx := cur.GetToNode()
		to := rm.store.GetNode(toIdx)
		if !to.IsRoutingNode() {
			continue
		}

		valid := to.IsDeadEnd()
		if !valid && toIdx != origin {
			for _, c := range to.GetConnectedSegments() {
				if rm.store.GetSegment(c).GetFromNode() == toIdx {
					valid = true
					break
				}
			}
		}
		if !valid {
			continue
		}

		route := make([]da.SegIndex, i-pos+1)
		copy(route, segs[pos:i+1])

		first := rm.store.GetSegment(route[0])
		weightDist := dist
		if first.IsReverse() {
			weightDist *= pkg.REVERSE_SEG_WEIGHT_FACTOR
		}
		excluded := false
		for _, r := range route {
			if rm.store.GetSegment(r).IsExcluded() {
				excluded = true
				break
			}
		}

		toRn := rm.rnIndex[toIdx]
		ci := ConnIndex(len(rm.conns))
		rm.conns = append(rm.conns, Connection{
			from:     rn,
			to:       toRn,
			wayId:    way.GetId(),
			weight:   DistanceToWeight(weightDist, first.GetHighwayType()),
			length:   dist,
			segs:     route,
			excluded: excluded,
		})
		rm.routingNodes[rn].connTos = append(rm.routingNodes[rn].connTos, ci)
		rm.routingNodes[toRn].connFroms = append(rm.routingNodes[toRn].connFroms, ci)
		return
	}
}

func (rm *RouteManager) buildOutWays() {
	for i := range rm.routingNodes {
		nodeIdx := rm.routingNodes[i].node
		outWays := make([]int64, 0, 4)
		for _, s := range rm.store.GetNode(nodeIdx).GetConnectedSegments() {
			seg := rm.store.GetSegment(s)
			if seg.GetFromNode() != nodeIdx {
				continue
			}
			wayId := seg.GetOrientedWayId()
			dup := false
			for _, w := range outWays {
				if w == wayId {
					dup = true
					break
				}
			}
			if !dup {
				outWays = append(outWays, wayId)
			}
		}
		rm.routingNodes[i].outWays = outWays
	}
}

func (rm *RouteManager) buildTwoStepConnections(rn1 RoutingNodeIndex) {
	node := &rm.routingNodes[rn1]
	steps := make([]TwoStepConnection, 0, 2*len(node.connTos))
	for _, c1 := range node.connTos {
		conn1 := &rm.conns[c1]
		for _, c2 := range rm.routingNodes[conn1.to].connTos {
			conn2 := &rm.conns[c2]
			if conn2.to == rn1 {
				continue
			}
			steps = append(steps, TwoStepConnection{
				from:   rn1,
				mid:    conn1.to,
				to:     conn2.to,
				ways:   [2]int64{conn1.wayId, conn2.wayId},
				conns:  [2]ConnIndex{c1, c2},
				weight: conn1.weight + conn2.weight,
			})
		}
	}
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].weight < steps[j].weight
	})

	if rm.shortestMode {
		seen := make(map[RoutingNodeIndex]struct{}, len(steps))
		kept := steps[:0]
		for _, st := range steps {
			if _, ok := seen[st.to]; ok {
				continue
			}
			seen[st.to] = struct{}{}
			kept = append(kept, st)
		}
		steps = kept
	}
	node.twoSteps = steps
}

func (rm *RouteManager) nodeId(rn RoutingNodeIndex) int64 {
	return rm.store.GetNode(rm.routingNodes[rn].node).GetId()
}

func (rm *RouteManager) buildFourStepConnections(rn1 RoutingNodeIndex) {
	node := &rm.routingNodes[rn1]
	steps := make([]FourStepConnection, 0, 2*len(node.twoSteps))
	for i := range node.twoSteps {
		a := &node.twoSteps[i]
		for j := range rm.routingNodes[a.to].twoSteps {
			b := &rm.routingNodes[a.to].twoSteps[j]
			if b.mid == rn1 || b.mid == a.mid || b.to == rn1 || b.to == a.mid {
				continue
			}
			st := FourStepConnection{
				from:   rn1,
				mids:   [3]RoutingNodeIndex{a.mid, a.to, b.mid},
				to:     b.to,
				ways:   [4]int64{a.ways[0], a.ways[1], b.ways[0], b.ways[1]},
				conns:  [4]ConnIndex{a.conns[0], a.conns[1], b.conns[0], b.conns[1]},
				weight: a.weight + b.weight,
			}
			st.hash = rm.stepHash(st.mids[:], st.ways[:3])
			steps = append(steps, st)
		}
	}
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].hash != steps[j].hash {
			return steps[i].hash < steps[j].hash
		}
		return steps[i].weight < steps[j].weight
	})
	node.fourSteps = steps
}

func (rm *RouteManager) buildSixStepConnections(rn1 RoutingNodeIndex) {
	node := &rm.routingNodes[rn1]
	steps := make([]SixStepConnection, 0, 2*len(node.fourSteps))
	for i := range node.fourSteps {
		a := &node.fourSteps[i]
		if a.to == rn1 {
			continue
		}
		for j := range rm.routingNodes[a.to].twoSteps {
			b := &rm.routingNodes[a.to].twoSteps[j]
			if b.mid == rn1 || b.to == rn1 {
				continue
			}
			clash := false
			for _, m := range a.mids {
				if b.mid == m || b.to == m {
					clash = true
					break
				}
			}
			if clash {
				continue
			}
			st := SixStepConnection{
				from:   rn1,
				mids:   [5]RoutingNodeIndex{a.mids[0], a.mids[1], a.mids[2], a.to, b.mid},
				to:     b.to,
				ways:   [6]int64{a.ways[0], a.ways[1], a.ways[2], a.ways[3], b.ways[0], b.ways[1]},
				conns:  [6]ConnIndex{a.conns[0], a.conns[1], a.conns[2], a.conns[3], b.conns[0], b.conns[1]},
				weight: a.weight + b.weight,
			}
			st.hash = rm.stepHash(st.mids[:], st.ways[:5])
			steps = append(steps, st)
		}
	}
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].hash != steps[j].hash {
			return steps[i].hash < steps[j].hash
		}
		return steps[i].weight < steps[j].weight
	})
	node.sixSteps = steps
}

// stepHash. shortcut prefix hash, sum of mid node ids + way id
func (rm *RouteManager) stepHash(mids []RoutingNodeIndex, ways []int64) uint64 {
	var h uint64
	for _, m := range mids {
		h += uint64(rm.nodeId(m))
	}
	for _, w := range ways {
		h += uint64(w)
	}
	return h
}

// SyncExclusionSegsToRouting. recompute each connection's excluded flag after segment exclusions change
func (rm *RouteManager) SyncExclusionSegsToRouting() {
	for i := range rm.conns {
		conn := &rm.conns[i]
		conn.excluded = false
		for _, s := range conn.segs {
			if rm.store.GetSegment(s).IsExcluded() {
				conn.excluded = true
				break
			}
		}
	}
}

// isSegExcludedAt. seg is closed at time t. without a time only ALWAYS counts
func (rm *RouteManager) isSegExcludedAt(seg *da.Segment, t exclusion.TimePoint) bool {
	if !seg.IsExcluded() {
		return false
	}
	if seg.IsExcludedAlways() {
		return true
	}
	if !t.IsSet() {
		return false
	}
	return rm.checker != nil && rm.checker.IsSegmentExcluded(seg, t)
}

func (rm *RouteManager) isConnExcludedAt(conn *Connection, t exclusion.TimePoint) bool {
	if !conn.excluded {
		return false
	}
	for _, s := range conn.segs {
		if rm.isSegExcludedAt(rm.store.GetSegment(s), t) {
			return true
		}
	}
	return false
}

// HasExcludedSegs. route crosses a segment closed at time t
func (rm *RouteManager) HasExcludedSegs(route []da.SegIndex, t exclusion.TimePoint) bool {
	for _, s := range route {
		if rm.isSegExcludedAt(rm.store.GetSegment(s), t) {
			return true
		}
	}
	return false
}

func (rm *RouteManager) HasReverseSegs(route []da.SegIndex) bool {
	for _, s := range route {
		if rm.store.GetSegment(s).IsReverse() {
			return true
		}
	}
	return false
}
