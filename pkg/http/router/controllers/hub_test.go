package controllers

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/gobwas/ws/wsutil"
	"github.com/lintang-b-s/roadmatch/pkg/concurrent"
	"github.com/lintang-b-s/roadmatch/pkg/http/usecases"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"github.com/stretchr/testify/assert"
)

type fakeMatcher struct {
	got   usecases.MatchRequest
	match *usecases.Match
	err   error
}

func (f *fakeMatcher) RouteMatching(req usecases.MatchRequest) (*usecases.Match, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.match, nil
}

var _ MapMatcherService = (*fakeMatcher)(nil)

func newTestHub(t *testing.T, mm MapMatcherService) *Hub {
	t.Helper()
	pool := concurrent.NewGoroutinePool(2, 1)
	t.Cleanup(pool.Close)
	return NewHub(pool, mm)
}

func TestHubRegisterRemove(t *testing.T) {
	h := newTestHub(t, &fakeMatcher{})

	users := make([]*User, 0, 4)
	for i := 0; i < 4; i++ {
		srv, _ := net.Pipe()
		users = append(users, h.Register(srv))
	}
	assert.Equal(t, 4, h.Len())

	h.Remove(users[1])
	h.Remove(users[1])
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []uint{0, 2, 3}, []uint{h.us[0].id, h.us[1].id, h.us[2].id})

	h.Remove(users[3])
	assert.Equal(t, 2, h.Len())

	h.RemoveAllUser()
	assert.Equal(t, 0, h.Len())
}

func TestUserRouteMatching(t *testing.T) {
	testCases := []struct {
		name       string
		payload    string
		matcher    *fakeMatcher
		wantCode   string
		wantSegIds []int64
	}{
		{
			name:    "ok",
			payload: `{"points":[{"lat":-7.76,"lon":110.37,"heading":90}]}`,
			matcher: &fakeMatcher{match: &usecases.Match{
				SegmentIds:        []int64{12001},
				Points:            []usecases.MatchedPoint{{Index: 0, SegmentId: 12001}},
				DisconnectedIndex: -1,
				RepeatedIndex:     -1,
			}},
			wantSegIds: []int64{12001},
		},
		{
			name:     "invalid request",
			payload:  `{"points":[]}`,
			matcher:  &fakeMatcher{},
			wantCode: "Bad Request",
		},
		{
			name:     "service error",
			payload:  `{"points":[{"lat":-7.76,"lon":110.37}]}`,
			matcher:  &fakeMatcher{err: util.WrapErrorf(nil, util.ErrNotFound, "segment 9 not found")},
			wantCode: "Not Found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHub(t, tc.matcher)
			srv, client := net.Pipe()
			defer client.Close()
			user := h.Register(srv)

			done := make(chan error, 1)
			go func() {
				done <- user.RouteMatching()
			}()

			if err := wsutil.WriteClientText(client, []byte(tc.payload)); err != nil {
				t.Fatalf("write frame: %v", err)
			}
			msg, err := wsutil.ReadServerText(client)
			if err != nil {
				t.Fatalf("read frame: %v", err)
			}
			assert.NoError(t, <-done)

			var resp struct {
				Data *struct {
					SegmentIds []int64 `json:"segment_ids"`
				} `json:"data"`
				Error *struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(msg, &resp); err != nil {
				t.Fatalf("decode %q: %v", msg, err)
			}
			if tc.wantCode != "" {
				if assert.NotNil(t, resp.Error) {
					assert.Equal(t, tc.wantCode, resp.Error.Code)
				}
				return
			}
			if assert.NotNil(t, resp.Data) {
				assert.Equal(t, tc.wantSegIds, resp.Data.SegmentIds)
			}
			assert.Equal(t, -1, tc.matcher.got.Points[0].Speed)
		})
	}
}

func TestUserRouteMatchingBadFrame(t *testing.T) {
	h := newTestHub(t, &fakeMatcher{})
	srv, client := net.Pipe()
	defer client.Close()
	user := h.Register(srv)

	done := make(chan error, 1)
	go func() {
		done <- user.RouteMatching()
	}()

	if err := wsutil.WriteClientText(client, []byte("not json")); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	assert.Error(t, <-done)
}
