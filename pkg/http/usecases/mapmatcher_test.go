package usecases

import (
	"errors"
	"testing"

	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRouteMatching(t *testing.T) {
	e := newTestEngine(t)
	ms := NewMapMatcherService(zap.NewNop(), e)

	point := func(id int64, heading int) TracePoint {
		return TracePoint{Coord: midOf(t, e, id), Heading: heading, Speed: 30}
	}

	testCases := []struct {
		name   string
		points []TracePoint
		want   []int64
	}{
		{
			name:   "column then primary",
			points: []TracePoint{point(20001, 0), point(20002, 0), point(12001, 90), point(12002, 90)},
			want:   []int64{20001, 20002, 12001, 12002},
		},
		{
			name: "pinned segment",
			points: func() []TracePoint {
				ps := []TracePoint{point(20001, 0), point(20002, 0), point(12001, 90), point(12002, 90)}
				ps[2].SegmentId = 12001
				return ps
			}(),
			want: []int64{20001, 20002, 12001, 12002},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			match, err := ms.RouteMatching(MatchRequest{
				Points:         tc.points,
				IsLocalTime:    true,
				Radius:         40,
				AngleTolerance: 40,
				CheckNoGps:     true,
			})
			if err != nil {
				t.Fatalf("route matching: %v", err)
			}
			assert.Equal(t, tc.want, match.SegmentIds)
			assert.Greater(t, match.Length, 0.0)

			coords, err := geo.DecodePolyline(match.Polyline)
			if assert.NoError(t, err) {
				assert.Equal(t, len(tc.want)+1, len(coords))
			}

			if assert.Len(t, match.Points, len(tc.points)) {
				for i, p := range match.Points {
					assert.Equal(t, tc.want[i], p.SegmentId)
					assert.Equal(t, i, p.ISeg)
					assert.False(t, p.IsBroken)
					assert.Less(t, geo.DistanceBetween(tc.points[i].Coord, p.Snapped), 1.0)
				}
			}
		})
	}
}

func TestRouteMatchingUnknownPinnedSegment(t *testing.T) {
	e := newTestEngine(t)
	ms := NewMapMatcherService(zap.NewNop(), e)

	_, err := ms.RouteMatching(MatchRequest{
		Points: []TracePoint{
			{Coord: midOf(t, e, 20001), Heading: 0, Speed: -1, SegmentId: 424242},
		},
	})
	assert.True(t, errors.Is(util.ErrorCode(err), util.ErrBadParamInput))
}
