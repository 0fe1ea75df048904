package spatialindex_test

import (
	"sort"
	"testing"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/graph"
	"github.com/lintang-b-s/roadmatch/pkg/graph/graphtest"
	"github.com/lintang-b-s/roadmatch/pkg/spatialindex"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestIndex(t *testing.T) (*datastructure.Store, *spatialindex.SegmentIndex) {
	t.Helper()
	store, err := graph.NewBuilder(zap.NewNop(), 2, true).LoadSegments(graphtest.Records(), false)
	if err != nil {
		t.Fatalf("load segments: %v", err)
	}
	si, err := spatialindex.NewSegmentIndex(store, nil, pkg.MATCH_PRI_BOTH, zap.NewNop())
	if err != nil {
		t.Fatalf("segment index: %v", err)
	}
	return store, si
}

func segOf(t *testing.T, store *datastructure.Store, id int64) *datastructure.Segment {
	t.Helper()
	i, ok := store.GetSegById(id)
	if !ok {
		t.Fatalf("segment %d not found", id)
	}
	return store.GetSegment(i)
}

func TestGetMatchingScore(t *testing.T) {
	testCases := []struct {
		name        string
		angle       int
		distance2   float64
		betterAngle int
		betterDist2 float64
	}{
		{name: "closer wins", angle: 20, distance2: 400, betterAngle: 20, betterDist2: 100},
		{name: "straighter wins", angle: 30, distance2: 100, betterAngle: 15, betterDist2: 100},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Greater(t, spatialindex.GetMatchingScore(tc.betterAngle, tc.betterDist2),
				spatialindex.GetMatchingScore(tc.angle, tc.distance2))
		})
	}

	// below 4m and 10 degrees the score is compressed
	assert.InDelta(t, spatialindex.GetMatchingScore(0, 0), spatialindex.GetMatchingScore(0, 0.5), 0.02)
	assert.InDelta(t, spatialindex.GetMatchingScore(0, 1), spatialindex.GetMatchingScore(1, 1), 0.05)
}

func TestAssignSegmentAtOwnMidpoint(t *testing.T) {
	store, si := newTestIndex(t)

	ids := []int64{
		graphtest.SegId(10, 1, false),
		graphtest.SegId(11, 2, true),
		graphtest.SegId(22, 1, false),
		graphtest.SegId(40, 1, false),
	}
	for _, id := range ids {
		seg := segOf(t, store, id)
		params := spatialindex.NewSegAssignParams(seg.GetHeading(), seg.GetLength()/2+1, 30)
		res, ok := si.AssignSegment(seg.GetMidPoint(), params)
		if !ok {
			t.Fatalf("segment %d: no candidate", id)
		}
		assert.Equal(t, id, store.GetSegment(res.Seg).GetId())
		assert.Less(t, res.Distance, 1.0)
	}
}

func TestAssignSegmentsRanked(t *testing.T) {
	store, si := newTestIndex(t)

	// junction node 5 without heading, ordered by distance
	p := graphtest.GridNode(1, 1).Coordinate()
	results := si.AssignSegments(p, spatialindex.NewSegAssignParams(-1, 30, 30))
	if len(results) == 0 {
		t.Fatalf("no candidate at node 5")
	}
	assert.LessOrEqual(t, len(results), pkg.MAX_ASSIGN_RESULTS)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
		assert.LessOrEqual(t, results[i].Score, 1.0)
	}

	// filter nama jalan
	params := spatialindex.NewSegAssignParams(-1, 30, 30)
	params.WayName = "Jalan Colombo"
	for _, r := range si.AssignSegments(p, params) {
		assert.Equal(t, "Jalan Colombo", store.GetSegment(r.Seg).GetWayName())
	}
}

func TestAssignOppositeOneWays(t *testing.T) {
	store, si := newTestIndex(t)

	north := segOf(t, store, graphtest.SegId(30, 1, false))
	south := segOf(t, store, graphtest.SegId(31, 1, false))
	p := geo.MidPoint(north.GetMidPoint(), south.GetMidPoint())

	testCases := []struct {
		name    string
		heading int
		want    int64
	}{
		{name: "heading north", heading: north.GetHeading(), want: north.GetId()},
		{name: "heading south", heading: south.GetHeading(), want: south.GetId()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results := si.AssignSegments(p, spatialindex.NewSegAssignParams(tc.heading, 20, 30))
			if assert.Len(t, results, 1) {
				assert.Equal(t, tc.want, store.GetSegment(results[0].Seg).GetId())
				assert.True(t, results[0].Exclusive)
			}
		})
	}
}

func TestNoCandidateFarAway(t *testing.T) {
	_, si := newTestIndex(t)
	far := geo.NewCoordinate(graphtest.BaseLat-0.05, graphtest.BaseLon-0.05)

	_, ok := si.AssignSegment(far, spatialindex.NewSegAssignParams(-1, 40, 40))
	assert.False(t, ok)
	assert.Empty(t, si.FindAdjacentSegments(far, 40, false))
	assert.Empty(t, si.FindAdjacentNodes(far, 40))
}

func TestFindAdjacentMatchesRtree(t *testing.T) {
	store, si := newTestIndex(t)
	rt := spatialindex.NewSegmentRtree(store)
	rt.Build(zap.NewNop())
	assert.Equal(t, store.NumberOfSegments(), rt.Len())

	points := []geo.Coordinate{
		graphtest.GridNode(0, 0).Coordinate(),
		graphtest.GridNode(1, 1).Coordinate(),
		geo.NewCoordinate(graphtest.BaseLat+graphtest.Step/4, graphtest.BaseLon+graphtest.Step/3),
	}
	ids := func(sd []spatialindex.SegmentDistance) []int64 {
		out := make([]int64, 0, len(sd))
		for _, s := range sd {
			out = append(out, store.GetSegment(s.Seg).GetId())
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}
	for _, p := range points {
		grid := si.FindAdjacentSegments(p, 80, false)
		tree := rt.SearchWithinRadius(p, 80, false)
		assert.NotEmpty(t, grid)
		assert.Equal(t, ids(tree), ids(grid))
		for i := 1; i < len(grid); i++ {
			assert.LessOrEqual(t, grid[i-1].Distance, grid[i].Distance)
		}
	}

	nodes := si.FindAdjacentNodes(graphtest.GridNode(1, 1).Coordinate(), 10)
	if assert.NotEmpty(t, nodes) {
		assert.Equal(t, int64(5), store.GetNode(nodes[0].Node).GetId())
		assert.InDelta(t, 0, nodes[0].Distance, 1e-6)
	}
}

func TestNewSegmentIndexInvalidPriority(t *testing.T) {
	store, _ := newTestIndex(t)
	_, err := spatialindex.NewSegmentIndex(store, nil, pkg.MatchPriority(42), zap.NewNop())
	assert.Error(t, err)
}
