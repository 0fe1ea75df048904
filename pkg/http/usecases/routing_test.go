package usecases

import (
	"errors"
	"testing"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/engine"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/graph/graphtest"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.NumWorkers = 2
	cfg.LocalUtcDiff = 0
	e := engine.NewEngine(cfg, zap.NewNop())
	if err := e.LoadSegments(graphtest.Records()); err != nil {
		t.Fatalf("load segments: %v", err)
	}
	if err := e.InitRouting(); err != nil {
		t.Fatalf("init routing: %v", err)
	}
	return e
}

func newTestRoutingService(t *testing.T) (*RoutingService, *engine.Engine) {
	t.Helper()
	e := newTestEngine(t)
	rs, err := NewRoutingService(zap.NewNop(), e, 16)
	if err != nil {
		t.Fatalf("new routing service: %v", err)
	}
	return rs, e
}

func midOf(t *testing.T, e *engine.Engine, id int64) geo.Coordinate {
	t.Helper()
	seg, ok := e.GetSegmentById(id)
	if !ok {
		t.Fatalf("segment %d not found", id)
	}
	return seg.GetMidPoint()
}

func TestAssignSegments(t *testing.T) {
	rs, e := newTestRoutingService(t)

	testCases := []struct {
		name    string
		segId   int64
		heading int
		wantTop int64
	}{
		{name: "primary eastbound", segId: 12001, heading: 90, wantTop: 12001},
		{name: "primary westbound", segId: 12001, heading: 270, wantTop: 12501},
		{name: "one way column", segId: 22001, heading: 0, wantTop: 22001},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := midOf(t, e, tc.segId)
			cands, err := rs.AssignSegments(p, tc.heading, 40, 30)
			if err != nil {
				t.Fatalf("assign: %v", err)
			}
			if len(cands) == 0 {
				t.Fatalf("no candidate for %d", tc.segId)
			}
			assert.Equal(t, tc.wantTop, cands[0].SegmentId)
			assert.Less(t, cands[0].Distance, 1.0)
			assert.Less(t, geo.DistanceBetween(p, cands[0].Snapped), 1.0)
		})
	}

	cands, err := rs.AssignSegments(geo.NewCoordinate(graphtest.BaseLat+0.5*graphtest.Step,
		graphtest.BaseLon+0.5*graphtest.Step), -1, 20, 30)
	assert.NoError(t, err)
	assert.Empty(t, cands)
}

func TestFindAdjacent(t *testing.T) {
	rs, _ := newTestRoutingService(t)

	node5 := graphtest.GridNode(1, 1)
	adj, err := rs.FindAdjacent(node5.Coordinate(), 10, false)
	if err != nil {
		t.Fatalf("find adjacent: %v", err)
	}
	if assert.NotEmpty(t, adj.Nodes) {
		assert.Equal(t, node5.Id, adj.Nodes[0].NodeId)
		assert.InDelta(t, 0, adj.Nodes[0].Distance, 1e-6)
	}
	assert.NotEmpty(t, adj.Segments)
	for i := 1; i < len(adj.Segments); i++ {
		assert.LessOrEqual(t, adj.Segments[i-1].Distance, adj.Segments[i].Distance)
	}
}

func TestComputeRouteCache(t *testing.T) {
	rs, e := newTestRoutingService(t)

	origin := RoutePoint{Coord: midOf(t, e, 20001), Heading: 0}
	destination := RoutePoint{Coord: midOf(t, e, 12002), Heading: 90}

	route, err := rs.ComputeRoute(origin, destination)
	if err != nil {
		t.Fatalf("compute route: %v", err)
	}
	if assert.NotEmpty(t, route.SegmentIds) {
		assert.Equal(t, int64(20001), route.SegmentIds[0])
		assert.Equal(t, int64(12002), route.SegmentIds[len(route.SegmentIds)-1])
	}
	assert.NotEmpty(t, route.EdgeIds)
	assert.Greater(t, route.Length, geo.DistanceBetween(origin.Coord, destination.Coord))
	assert.Less(t, geo.DistanceBetween(origin.Coord, route.Origin), 1.0)
	assert.Less(t, geo.DistanceBetween(destination.Coord, route.Destination), 1.0)

	coords, err := geo.DecodePolyline(route.Polyline)
	if assert.NoError(t, err) {
		assert.Equal(t, len(route.SegmentIds)+1, len(coords))
	}

	cached, err := rs.ComputeRoute(origin, destination)
	assert.NoError(t, err)
	assert.Same(t, route, cached)

	// exclusion baru mengosongkan cache
	if err := rs.SetExclusion([]int64{31001}, exclusion.NewSetting(pkg.EXTYPE_ALWAYS, 0, 0)); err != nil {
		t.Fatalf("set exclusion: %v", err)
	}
	recomputed, err := rs.ComputeRoute(origin, destination)
	assert.NoError(t, err)
	assert.NotSame(t, route, recomputed)
	assert.Equal(t, route.SegmentIds, recomputed.SegmentIds)
}

func TestComputeRouteAvoidsExclusion(t *testing.T) {
	rs, e := newTestRoutingService(t)

	origin := RoutePoint{Coord: midOf(t, e, 20001), Heading: 0}
	destination := RoutePoint{Coord: midOf(t, e, 12002), Heading: 90}

	before, err := rs.ComputeRoute(origin, destination)
	if err != nil {
		t.Fatalf("compute route: %v", err)
	}
	interior := before.SegmentIds[1]

	if err := rs.SetExclusion([]int64{interior}, exclusion.NewSetting(pkg.EXTYPE_ALWAYS, 0, 0)); err != nil {
		t.Fatalf("set exclusion: %v", err)
	}
	detour, err := rs.ComputeRoute(origin, destination)
	if err != nil {
		t.Fatalf("compute route with exclusion: %v", err)
	}
	assert.NotContains(t, detour.SegmentIds, interior)
	assert.Equal(t, int64(20001), detour.SegmentIds[0])
	assert.Equal(t, int64(12002), detour.SegmentIds[len(detour.SegmentIds)-1])

	if err := rs.ClearExclusion([]int64{interior}); err != nil {
		t.Fatalf("clear exclusion: %v", err)
	}
	after, err := rs.ComputeRoute(origin, destination)
	assert.NoError(t, err)
	assert.Equal(t, before.SegmentIds, after.SegmentIds)
}

func TestGetSegmentAndNode(t *testing.T) {
	rs, _ := newTestRoutingService(t)

	seg, err := rs.GetSegment(12001)
	if err != nil {
		t.Fatalf("get segment: %v", err)
	}
	assert.Equal(t, int64(12), seg.WayId)
	assert.Equal(t, "Jalan Solo", seg.WayName)
	assert.Equal(t, int8(pkg.HIGHWAY_PRIMARY), seg.Highway)
	assert.Equal(t, int64(7), seg.FromNodeId)
	assert.Equal(t, int64(8), seg.ToNodeId)
	assert.Empty(t, seg.Exclusion)

	if err := rs.SetExclusion([]int64{12001}, exclusion.NewSetting(pkg.EXTYPE_ALWAYS, 0, 0)); err != nil {
		t.Fatalf("set exclusion: %v", err)
	}
	seg, err = rs.GetSegment(12001)
	assert.NoError(t, err)
	assert.Equal(t, "always", seg.Exclusion)

	_, err = rs.GetSegment(424242)
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrNotFound))

	node, err := rs.GetNode(5)
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	assert.True(t, node.WayConnector)
	assert.Contains(t, node.ConnectedSegIds, int64(21002))
	assert.Contains(t, node.ConnectedSegIds, int64(11002))

	_, err = rs.GetNode(424242)
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrNotFound))
}

func TestSetExclusionUnknownSegment(t *testing.T) {
	rs, _ := newTestRoutingService(t)

	err := rs.SetExclusion([]int64{12001, 424242}, exclusion.NewSetting(pkg.EXTYPE_ALWAYS, 0, 0))
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrNotFound))

	seg, err := rs.GetSegment(12001)
	assert.NoError(t, err)
	assert.Empty(t, seg.Exclusion)
}

func TestNotLoaded(t *testing.T) {
	e := engine.NewEngine(engine.DefaultConfig(), zap.NewNop())
	rs, err := NewRoutingService(zap.NewNop(), e, 0)
	if err != nil {
		t.Fatalf("new routing service: %v", err)
	}

	_, err = rs.AssignSegments(geo.NewCoordinate(graphtest.BaseLat, graphtest.BaseLon), -1, 40, 40)
	assert.True(t, errors.Is(err, ErrEngineNotLoaded))
	_, err = rs.ComputeRoute(RoutePoint{Heading: -1}, RoutePoint{Heading: -1})
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrInternalServerError))

	ms := NewMapMatcherService(zap.NewNop(), e)
	_, err = ms.RouteMatching(MatchRequest{Points: []TracePoint{{Heading: -1}}})
	assert.True(t, errors.Is(err, ErrEngineNotLoaded))
}
