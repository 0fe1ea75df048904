package routing

import (
	"math"
	"testing"

	"github.com/lintang-b-s/roadmatch/pkg"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/graph"
	"github.com/lintang-b-s/roadmatch/pkg/graph/graphtest"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func buildRouteManager(t *testing.T, generateReverse bool) (*RouteManager, *exclusion.Registry) {
	t.Helper()
	return buildRouteManagerMode(t, generateReverse, true)
}

func buildRouteManagerMode(t *testing.T, generateReverse, shortestMode bool) (*RouteManager, *exclusion.Registry) {
	t.Helper()
	store, err := graph.NewBuilder(zap.NewNop(), 2, true).LoadSegments(graphtest.Records(), generateReverse)
	if err != nil {
		t.Fatalf("load segments: %v", err)
	}
	registry := exclusion.NewRegistry(0)
	rm := NewRouteManager(store, registry, zap.NewNop())
	rm.SetNumWorkers(2)
	if err := rm.InitForRouting(shortestMode); err != nil {
		t.Fatalf("init routing: %v", err)
	}
	return rm, registry
}

func seg(t *testing.T, rm *RouteManager, id int64) da.SegIndex {
	t.Helper()
	idx, ok := rm.GetStore().GetSegById(id)
	if !ok {
		t.Fatalf("segment %d not found", id)
	}
	return idx
}

func ids(rm *RouteManager, route []da.SegIndex) []int64 {
	return rm.GetStore().SegmentIds(route)
}

func assertContiguous(t *testing.T, rm *RouteManager, route []da.SegIndex) {
	t.Helper()
	for i := 0; i+1 < len(route); i++ {
		a := rm.GetStore().GetSegment(route[i])
		b := rm.GetStore().GetSegment(route[i+1])
		if a.GetToNode() != b.GetFromNode() {
			t.Errorf("route broken between %d and %d", a.GetId(), b.GetId())
		}
	}
}

func TestDistanceToWeight(t *testing.T) {
	testCases := []struct {
		name        string
		dist        float64
		highwayType pkg.HighwayType
		want        int
	}{
		{name: "primary 175m", dist: 175, highwayType: pkg.HIGHWAY_PRIMARY, want: 100},
		{name: "zero distance", dist: 0, highwayType: pkg.HIGHWAY_RESIDENTIAL, want: 1},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DistanceToWeight(tt.dist, tt.highwayType))
		})
	}

	assert.Greater(t, DistanceToWeight(500, pkg.HIGHWAY_RESIDENTIAL), DistanceToWeight(500, pkg.HIGHWAY_PRIMARY))
	assert.Panics(t, func() { DistanceToWeight(10, pkg.HighwayType(99)) })
}

func TestInitForRouting(t *testing.T) {
	rm, _ := buildRouteManager(t, false)
	// node 1..9, dead end 41, 51..54
	assert.Equal(t, 14, rm.NumberOfRoutingNodes())
	assert.Equal(t, 26, rm.NumberOfConnections())

	store := rm.GetStore()
	n1, _ := store.GetNodeById(1)
	rn1, ok := rm.GetRoutingNodeOf(n1)
	if !ok {
		t.Fatalf("node 1 is not a routing node")
	}
	node := rm.GetRoutingNode(rn1)
	assert.ElementsMatch(t, []int64{10, 20}, node.GetOutWays())

	// connection 1 -> 2 passes shape node 100
	for _, c := range node.GetConnTos() {
		conn := rm.GetConnection(c)
		if conn.GetWayId() != 10 {
			continue
		}
		assert.Equal(t, []int64{graphtest.SegId(10, 1, false), graphtest.SegId(10, 2, false)},
			ids(rm, conn.GetSegments()))
		assert.Equal(t, int64(2), store.GetNode(rm.GetRoutingNode(conn.GetTo()).GetNode()).GetId())
	}

	for i := 0; i < rm.NumberOfRoutingNodes(); i++ {
		rn := rm.GetRoutingNode(RoutingNodeIndex(i))
		for _, ts := range rn.GetTwoSteps() {
			if ts.GetTo() == RoutingNodeIndex(i) {
				t.Errorf("two step connection returns to its origin")
			}
		}
		for _, fs := range rn.GetFourSteps() {
			mids := fs.GetMids()
			assert.NotEqual(t, RoutingNodeIndex(i), mids[2])
			assert.NotEqual(t, RoutingNodeIndex(i), fs.GetTo())
		}
		seen := make(map[RoutingNodeIndex]bool)
		for _, ts := range rn.GetTwoSteps() {
			if seen[ts.GetTo()] {
				t.Errorf("shortest mode keeps more than one two step per destination")
			}
			seen[ts.GetTo()] = true
		}
	}
}

func TestInitForRoutingEmptyGraph(t *testing.T) {
	rm := NewRouteManager(da.NewStore(0, 0), nil, zap.NewNop())
	assert.Error(t, rm.InitForRouting(true))
}

func TestRoutingNearby(t *testing.T) {
	rm, _ := buildRouteManager(t, false)

	testCases := []struct {
		name           string
		from, to       int64
		pointsReversed bool
		want           []int64
		wantOk         bool
	}{
		{
			name: "same segment", from: 10002, to: 10002,
			want: []int64{10002}, wantOk: true,
		},
		{
			name: "same oriented way", from: 10001, to: 10003,
			want: []int64{10001, 10002, 10003}, wantOk: true,
		},
		{
			name: "one step through shape node", from: 10001, to: 21002,
			want: []int64{10001, 10002, 21001, 21002}, wantOk: true,
		},
		{
			name: "same segment with reversed points loops back", from: 10002, to: 10002, pointsReversed: true,
			want: []int64{10002, 10502, 10501, 10001, 10002}, wantOk: true,
		},
		{
			name: "disconnected one way", from: 30001, to: 10001,
			wantOk: false,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			route, ok := rm.RoutingNearby(seg(t, rm, tt.from), seg(t, rm, tt.to), false, exclusion.TimePoint{},
				tt.pointsReversed)
			assert.Equal(t, tt.wantOk, ok)
			if !tt.wantOk {
				return
			}
			assert.Equal(t, tt.want, ids(rm, route))
			assertContiguous(t, rm, route)
		})
	}
}

func TestRoutingNearbyExcludeReverse(t *testing.T) {
	rm, _ := buildRouteManager(t, true)
	from, to := seg(t, rm, 12002), seg(t, rm, 10503)

	route, ok := rm.RoutingNearby(from, to, false, exclusion.TimePoint{}, false)
	if !ok {
		t.Fatalf("expected a route through the reversed one way")
	}
	assert.Equal(t, []int64{12002, -22002, -22001, 10503}, ids(rm, route))

	_, ok = rm.RoutingNearby(from, to, true, exclusion.TimePoint{}, false)
	assert.False(t, ok)
}

func TestRoutingNearbyExclusion(t *testing.T) {
	for _, excludeReverse := range []bool{false, true} {
		// outside shortest mode both 4 -> 5 -> 8 and 4 -> 7 -> 8 are kept
		rm, registry := buildRouteManagerMode(t, false, false)
		from, to := seg(t, rm, 20001), seg(t, rm, 12002)

		before, ok := rm.RoutingNearby(from, to, excludeReverse, exclusion.TimePoint{}, false)
		if !ok || len(before) != 4 {
			t.Fatalf("excludeReverse=%v: unexpected route before exclusion %v", excludeReverse, ids(rm, before))
		}
		closed := rm.GetStore().GetSegment(before[2])
		registry.Set(closed, exclusion.NewSetting(pkg.EXTYPE_ALWAYS, 0, 0))
		rm.SyncExclusionSegsToRouting()

		rerouted, ok := rm.RoutingNearby(from, to, excludeReverse, exclusion.TimePoint{}, false)
		if !ok {
			t.Fatalf("excludeReverse=%v: no route around segment %d", excludeReverse, closed.GetId())
		}
		assert.NotContains(t, rerouted, before[2], "excludeReverse=%v", excludeReverse)
		assert.False(t, rm.HasExcludedSegs(rerouted, exclusion.TimePoint{}))
		assert.Equal(t, before[0], rerouted[0])
		assert.Equal(t, before[3], rerouted[len(rerouted)-1])
		assertContiguous(t, rm, rerouted)

		// alternative closed too
		registry.Set(rm.GetStore().GetSegment(rerouted[1]), exclusion.NewSetting(pkg.EXTYPE_ALWAYS, 0, 0))
		rm.SyncExclusionSegsToRouting()
		route, ok := rm.RoutingNearby(from, to, excludeReverse, exclusion.TimePoint{}, false)
		if ok {
			assert.False(t, rm.HasExcludedSegs(route, exclusion.TimePoint{}), "excludeReverse=%v", excludeReverse)
		}
	}
}

func TestDijkstraShortestPath(t *testing.T) {
	testCases := []struct {
		name     string
		from, to int64
		wantOk   bool
	}{
		{name: "across grid", from: 10001, to: 12002, wantOk: true},
		{name: "against one way must go around", from: 22002, to: 22001, wantOk: true},
		{name: "dead end", from: 11501, to: 40001, wantOk: true},
		{name: "out of dead end", from: 40501, to: 20501, wantOk: true},
		{name: "other component", from: 30001, to: 10001, wantOk: false},
	}

	for _, biDir := range []bool{false, true} {
		rm, _ := buildRouteManager(t, false)
		rm.SetBiDirectional(biDir)
		for _, tt := range testCases {
			t.Run(tt.name, func(t *testing.T) {
				s1, s2 := seg(t, rm, tt.from), seg(t, rm, tt.to)
				route, _, ok := rm.DijkstraShortestPath(s1, s2, exclusion.TimePoint{}, false)
				assert.Equal(t, tt.wantOk, ok)
				if !ok {
					return
				}
				assert.Equal(t, s1, route[0])
				assert.Equal(t, s2, route[len(route)-1])
				assertContiguous(t, rm, route)
			})
		}
	}

	rm, _ := buildRouteManager(t, false)
	route, _, ok := rm.DijkstraShortestPath(seg(t, rm, 22002), seg(t, rm, 22001), exclusion.TimePoint{}, false)
	if !ok {
		t.Fatalf("no route found")
	}
	// 2 -> 3 is the only way into node 3
	got := ids(rm, route)
	assert.Equal(t, []int64{10003, 22001}, got[len(got)-2:])

	total, success := rm.GetDijkstraStats()
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), success)
}

func TestBiDirectionalMatchesUnidirectional(t *testing.T) {
	uni, _ := buildRouteManager(t, false)
	bi, _ := buildRouteManager(t, false)
	bi.SetBiDirectional(true)

	pairs := [][2]int64{{10001, 12002}, {22002, 22001}, {11501, 40001}, {40001, 20001}, {12501, 10003}}
	for _, p := range pairs {
		r1, _, ok1 := uni.DijkstraShortestPath(seg(t, uni, p[0]), seg(t, uni, p[1]), exclusion.TimePoint{}, false)
		r2, _, ok2 := bi.DijkstraShortestPath(seg(t, bi, p[0]), seg(t, bi, p[1]), exclusion.TimePoint{}, false)
		if !ok1 || !ok2 {
			t.Fatalf("route %d -> %d not found (uni %v, bidir %v)", p[0], p[1], ok1, ok2)
		}
		assert.InDelta(t, uni.GetStore().GetRouteLength(r1), bi.GetStore().GetRouteLength(r2), 1e-6,
			"route %d -> %d", p[0], p[1])
	}
}

func TestDijkstraExclusion(t *testing.T) {
	const day = int64(86400 * 100)
	testCases := []struct {
		name   string
		t      exclusion.TimePoint
		wantOk bool
	}{
		{name: "no time ignores exclusion", t: exclusion.TimePoint{}, wantOk: true},
		{name: "inside daily window", t: exclusion.NewTimePoint(day+1800, true), wantOk: false},
		{name: "outside daily window", t: exclusion.NewTimePoint(day+43200, true), wantOk: true},
	}

	rm, registry := buildRouteManager(t, false)
	closed := seg(t, rm, 10003)
	registry.Set(rm.GetStore().GetSegment(closed), exclusion.NewSetting(pkg.EXTYPE_DAILY_TIME_RANGE, 0, 3600))
	rm.SyncExclusionSegsToRouting()

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := rm.DijkstraShortestPath(seg(t, rm, 22002), seg(t, rm, 22001), tt.t, false)
			assert.Equal(t, tt.wantOk, ok)
		})
	}

	registry.Clear(rm.GetStore().GetSegment(closed))
	rm.SyncExclusionSegsToRouting()
	_, _, ok := rm.DijkstraShortestPath(seg(t, rm, 22002), seg(t, rm, 22001), exclusion.NewTimePoint(day+1800, true), false)
	assert.True(t, ok)
}

func TestAlwaysExclusionWithoutTime(t *testing.T) {
	rm, registry := buildRouteManager(t, false)
	from, to := seg(t, rm, 10001), seg(t, rm, 10003)

	route, ok := rm.ShortestPath(from, to, false, exclusion.TimePoint{})
	if !ok {
		t.Fatalf("no route before exclusion")
	}
	assert.Equal(t, []int64{10001, 10002, 10003}, ids(rm, route))

	// 10001 ends at a shape node, the only way on is 10002
	closed := rm.GetStore().GetSegment(seg(t, rm, 10002))
	registry.Set(closed, exclusion.NewSetting(pkg.EXTYPE_ALWAYS, 0, 0))
	rm.SyncExclusionSegsToRouting()
	_, ok = rm.ShortestPath(from, to, false, exclusion.TimePoint{})
	assert.False(t, ok)

	registry.Clear(closed)
	rm.SyncExclusionSegsToRouting()
	route, ok = rm.ShortestPath(from, to, false, exclusion.TimePoint{})
	assert.True(t, ok)
	assert.Equal(t, []int64{10001, 10002, 10003}, ids(rm, route))
}

func TestMaxSearchSteps(t *testing.T) {
	rm, _ := buildRouteManager(t, false)
	rm.SetMaxSearchSteps(1)
	_, _, ok := rm.DijkstraShortestPath(seg(t, rm, 22002), seg(t, rm, 22001), exclusion.TimePoint{}, false)
	assert.False(t, ok)
}

func TestSimilarRoutingNearby(t *testing.T) {
	mid := func(a, b graphtest.Point) geo.Coordinate {
		return geo.MidPoint(a.Coordinate(), b.Coordinate())
	}
	// trace through 4 -> 5 -> 8
	viaColombo := []TracePoint{
		{Coord: mid(graphtest.GridNode(1, 0), graphtest.GridNode(1, 1)), Heading: 90},
		{Coord: mid(graphtest.GridNode(1, 1), graphtest.GridNode(2, 1)), Heading: 0},
	}
	// trace through 4 -> 7 -> 8
	viaSolo := []TracePoint{
		{Coord: mid(graphtest.GridNode(1, 0), graphtest.GridNode(2, 0)), Heading: 0},
		{Coord: mid(graphtest.GridNode(2, 0), graphtest.GridNode(2, 1)), Heading: 90},
	}

	testCases := []struct {
		name         string
		shortestMode bool
		closed       int64
		trace        []TracePoint
		want         []int64
		wantMaxDist  float64
	}{
		{
			name:        "all two steps kept, trace via 5",
			trace:       viaColombo,
			want:        []int64{20001, 11001, 21002, 12002},
			wantMaxDist: 5.0,
		},
		{
			name:        "all two steps kept, trace via 7",
			trace:       viaSolo,
			want:        []int64{20001, 20002, 12001, 12002},
			wantMaxDist: 5.0,
		},
		{
			// shortest mode keeps one 2-step per destination (4 -> 7 -> 8 on the primary road)
			name:         "shortest mode, trace via 5",
			shortestMode: true,
			trace:        viaColombo,
			want:         []int64{20001, 20002, 12001, 12002},
			wantMaxDist:  math.Inf(1),
		},
		{
			name:        "trace via 5 with 4 -> 5 closed",
			closed:      11001,
			trace:       viaColombo,
			want:        []int64{20001, 20002, 12001, 12002},
			wantMaxDist: math.Inf(1),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rm, registry := buildRouteManagerMode(t, false, tc.shortestMode)
			if tc.closed != 0 {
				registry.Set(rm.GetStore().GetSegment(seg(t, rm, tc.closed)), exclusion.NewSetting(pkg.EXTYPE_ALWAYS, 0, 0))
				rm.SyncExclusionSegsToRouting()
			}
			route, dist, ok := rm.SimilarRoutingNearby(seg(t, rm, 20001), seg(t, rm, 12002), tc.trace, false)
			if !ok {
				t.Fatalf("no similar route")
			}
			assert.Equal(t, tc.want, ids(rm, route))
			assert.Less(t, dist, tc.wantMaxDist)
			assertContiguous(t, rm, route)
		})
	}
}

func TestDistance(t *testing.T) {
	rm, _ := buildRouteManager(t, false)
	route := []da.SegIndex{seg(t, rm, 11001), seg(t, rm, 11002)}
	on := geo.MidPoint(graphtest.GridNode(1, 0).Coordinate(), graphtest.GridNode(1, 1).Coordinate())

	testCases := []struct {
		name    string
		trace   []TracePoint
		wantMax float64
		wantMin float64
	}{
		{name: "on route", trace: []TracePoint{{Coord: on, Heading: 90}}, wantMin: 0, wantMax: 1},
		{name: "no heading", trace: []TracePoint{{Coord: on, Heading: -1}}, wantMin: 0, wantMax: 1},
		{name: "opposite heading", trace: []TracePoint{{Coord: on, Heading: 270}}, wantMin: 1e300, wantMax: math.MaxFloat64},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			d := rm.Distance(route, tt.trace)
			assert.GreaterOrEqual(t, d, tt.wantMin)
			assert.LessOrEqual(t, d, tt.wantMax)
		})
	}
}

func TestShortestEdgePath(t *testing.T) {
	rm, _ := buildRouteManager(t, false)
	edges, ok := rm.ShortestEdgePath(seg(t, rm, 10001), seg(t, rm, 10003))
	assert.True(t, ok)
	assert.Equal(t, []int64{10001, 10003}, edges)

	assert.Equal(t, seg(t, rm, 10001), rm.GetLeadSeg(seg(t, rm, 10002)))
	assert.Equal(t, int64(10003), rm.SegmentToEdge(seg(t, rm, 10003)))
}

func TestGetAdjacentOutboundSegs(t *testing.T) {
	rm, _ := buildRouteManager(t, false)
	testCases := []struct {
		name   string
		seg    int64
		nodeId int64
		want   []int64
	}{
		// 10001 ends at shape node 100, the next routing node is node 2
		{name: "nearest routing node", seg: 10001, nodeId: 0, want: []int64{10003, 10502, 21001}},
		{name: "explicit node", seg: 10001, nodeId: 9, want: []int64{12502, 40001}},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			out := rm.GetAdjacentOutboundSegs(seg(t, rm, tt.seg), tt.nodeId)
			assert.ElementsMatch(t, tt.want, ids(rm, out))
		})
	}
}
