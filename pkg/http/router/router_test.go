package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lintang-b-s/roadmatch/pkg/engine"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/graph/graphtest"
	"github.com/lintang-b-s/roadmatch/pkg/http/usecases"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testServer struct {
	handler http.Handler
	engine  *engine.Engine
}

func newTestServer(t *testing.T, rl RateLimit) *testServer {
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
	rs, err := usecases.NewRoutingService(zap.NewNop(), e, 16)
	if err != nil {
		t.Fatalf("routing service: %v", err)
	}
	ms := usecases.NewMapMatcherService(zap.NewNop(), e)
	return &testServer{
		handler: NewAPI(zap.NewNop()).Handler(rl, rs, ms),
		engine:  e,
	}
}

func (s *testServer) mid(t *testing.T, id int64) geo.Coordinate {
	t.Helper()
	seg, ok := s.engine.GetSegmentById(id)
	if !ok {
		t.Fatalf("segment %d not found", id)
	}
	return seg.GetMidPoint()
}

type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, target string, body any) (int, apiResponse) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		js, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(js)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, resp
}

func TestHeartbeat(t *testing.T) {
	s := newTestServer(t, RateLimit{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ".", rec.Body.String())
}

func TestAssignEndpoint(t *testing.T) {
	s := newTestServer(t, RateLimit{})
	m := s.mid(t, 12001)

	testCases := []struct {
		name       string
		query      string
		wantStatus int
		wantTop    int64
	}{
		{
			name:       "eastbound",
			query:      fmt.Sprintf("lat=%f&lon=%f&heading=90", m.Lat, m.Lon),
			wantStatus: http.StatusOK,
			wantTop:    12001,
		},
		{
			name:       "westbound",
			query:      fmt.Sprintf("lat=%f&lon=%f&heading=270&angle_tolerance=30", m.Lat, m.Lon),
			wantStatus: http.StatusOK,
			wantTop:    12501,
		},
		{
			name:       "missing lat",
			query:      fmt.Sprintf("lon=%f", m.Lon),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "latitude out of range",
			query:      fmt.Sprintf("lat=100&lon=%f", m.Lon),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "heading not an int",
			query:      fmt.Sprintf("lat=%f&lon=%f&heading=north", m.Lat, m.Lon),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := s.do(t, http.MethodGet, "/api/assign?"+tc.query, nil)
			assert.Equal(t, tc.wantStatus, status)
			if tc.wantStatus != http.StatusOK {
				if assert.NotNil(t, resp.Error) {
					assert.Equal(t, http.StatusText(tc.wantStatus), resp.Error.Code)
				}
				return
			}
			var data struct {
				Candidates []struct {
					SegmentId int64 `json:"segment_id"`
				} `json:"candidates"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if assert.NotEmpty(t, data.Candidates) {
				assert.Equal(t, tc.wantTop, data.Candidates[0].SegmentId)
			}
		})
	}
}

func TestAdjacentEndpoint(t *testing.T) {
	s := newTestServer(t, RateLimit{})
	n := graphtest.GridNode(1, 1)

	status, resp := s.do(t, http.MethodGet, fmt.Sprintf("/api/adjacent?lat=%f&lon=%f&radius=10", n.Lat, n.Lon), nil)
	assert.Equal(t, http.StatusOK, status)
	var data struct {
		Segments []struct {
			SegmentId int64 `json:"segment_id"`
		} `json:"segments"`
		Nodes []struct {
			NodeId int64 `json:"node_id"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	assert.NotEmpty(t, data.Segments)
	if assert.NotEmpty(t, data.Nodes) {
		assert.Equal(t, n.Id, data.Nodes[0].NodeId)
	}
}

func TestComputeRoutesEndpoint(t *testing.T) {
	s := newTestServer(t, RateLimit{})
	o, d := s.mid(t, 20001), s.mid(t, 12002)

	status, resp := s.do(t, http.MethodGet, fmt.Sprintf(
		"/api/computeRoutes?origin_lat=%f&origin_lon=%f&origin_heading=0&destination_lat=%f&destination_lon=%f&destination_heading=90",
		o.Lat, o.Lon, d.Lat, d.Lon), nil)
	if !assert.Equal(t, http.StatusOK, status) {
		t.Fatalf("unexpected error %+v", resp.Error)
	}
	var data struct {
		SegmentIds []int64 `json:"segment_ids"`
		EdgeIds    []int64 `json:"edge_ids"`
		Dist       float64 `json:"distance"`
		Path       string  `json:"path"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if assert.NotEmpty(t, data.SegmentIds) {
		assert.Equal(t, int64(20001), data.SegmentIds[0])
		assert.Equal(t, int64(12002), data.SegmentIds[len(data.SegmentIds)-1])
	}
	assert.NotEmpty(t, data.EdgeIds)
	assert.Greater(t, data.Dist, 0.0)
	assert.NotEmpty(t, data.Path)

	// origin far from any road
	status, resp = s.do(t, http.MethodGet, fmt.Sprintf(
		"/api/computeRoutes?origin_lat=%f&origin_lon=%f&destination_lat=%f&destination_lon=%f",
		graphtest.BaseLat+0.5*graphtest.Step, graphtest.BaseLon+0.5*graphtest.Step, d.Lat, d.Lon), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotNil(t, resp.Error)
}

func TestRouteMatchingEndpoint(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	type point struct {
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Heading int     `json:"heading"`
	}
	at := func(id int64, heading int) point {
		m := s.mid(t, id)
		return point{Lat: m.Lat, Lon: m.Lon, Heading: heading}
	}

	body := map[string]any{
		"points": []point{at(20001, 0), at(20002, 0), at(12001, 90), at(12002, 90)},
	}
	status, resp := s.do(t, http.MethodPost, "/api/routeMatching", body)
	if !assert.Equal(t, http.StatusOK, status) {
		t.Fatalf("unexpected error %+v", resp.Error)
	}
	var data struct {
		SegmentIds []int64 `json:"segment_ids"`
		Points     []struct {
			SegmentId int64 `json:"segment_id"`
			ISeg      int   `json:"i_seg"`
			IsBroken  bool  `json:"is_broken"`
		} `json:"points"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	assert.Equal(t, []int64{20001, 20002, 12001, 12002}, data.SegmentIds)
	assert.Len(t, data.Points, 4)

	testCases := []struct {
		name string
		body any
	}{
		{name: "no points", body: map[string]any{"points": []point{}}},
		{name: "unknown field", body: map[string]any{"points": []point{at(20001, 0)}, "foo": 1}},
		{name: "heading out of range", body: map[string]any{"points": []point{{Lat: -7.76, Lon: 110.37, Heading: 400}}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := s.do(t, http.MethodPost, "/api/routeMatching", tc.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotNil(t, resp.Error)
		})
	}
}

func TestEnforceJSON(t *testing.T) {
	s := newTestServer(t, RateLimit{})
	req := httptest.NewRequest(http.MethodPost, "/api/routeMatching", bytes.NewReader([]byte(`{"points":[]}`)))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestExclusionEndpoints(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	status, resp := s.do(t, http.MethodPost, "/api/exclusions", map[string]any{
		"segment_ids": []int64{12001, 12002},
		"type":        "daily_time_range",
		"from":        "05:00:00",
		"to":          "07:00:00",
	})
	if !assert.Equal(t, http.StatusOK, status) {
		t.Fatalf("unexpected error %+v", resp.Error)
	}

	segmentExclusion := func() string {
		status, resp := s.do(t, http.MethodGet, "/api/segments/12001", nil)
		assert.Equal(t, http.StatusOK, status)
		var data struct {
			Exclusion string `json:"exclusion"`
		}
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		return data.Exclusion
	}
	assert.Equal(t, "daily 05:00:00-07:00:00", segmentExclusion())

	status, _ = s.do(t, http.MethodDelete, "/api/exclusions", map[string]any{"segment_ids": []int64{12001, 12002}})
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, segmentExclusion())

	testCases := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name:       "daily without from",
			body:       map[string]any{"segment_ids": []int64{12001}, "type": "daily_time_range", "to": "07:00:00"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown type",
			body:       map[string]any{"segment_ids": []int64{12001}, "type": "sometimes"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "datetime from after to",
			body: map[string]any{"segment_ids": []int64{12001}, "type": "datetime_range",
				"from": "2024-01-02 00:00:00", "to": "2024-01-01 00:00:00"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown segment",
			body:       map[string]any{"segment_ids": []int64{424242}, "type": "always"},
			wantStatus: http.StatusNotFound,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := s.do(t, http.MethodPost, "/api/exclusions", tc.body)
			assert.Equal(t, tc.wantStatus, status)
			assert.NotNil(t, resp.Error)
		})
	}
}

func TestAccessorEndpoints(t *testing.T) {
	s := newTestServer(t, RateLimit{})

	testCases := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{name: "segment", target: "/api/segments/12001", wantStatus: http.StatusOK},
		{name: "segment not found", target: "/api/segments/424242", wantStatus: http.StatusNotFound},
		{name: "segment bad id", target: "/api/segments/abc", wantStatus: http.StatusBadRequest},
		{name: "node", target: "/api/nodes/5", wantStatus: http.StatusOK},
		{name: "node not found", target: "/api/nodes/424242", wantStatus: http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := s.do(t, http.MethodGet, tc.target, nil)
			assert.Equal(t, tc.wantStatus, status)
		})
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, RateLimit{Enabled: true, RPS: 0.001, Burst: 1})
	target := "/api/nodes/5"

	status, _ := s.do(t, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusOK, status)
	status, resp := s.do(t, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.NotNil(t, resp.Error)
}

func TestRealIP(t *testing.T) {
	testCases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "x-real-ip", headers: map[string]string{"X-Real-IP": "10.0.0.1"}, want: "10.0.0.1"},
		{name: "x-forwarded-for first", headers: map[string]string{"X-Forwarded-For": "10.0.0.2, 10.0.0.3"}, want: "10.0.0.2"},
		{name: "invalid", headers: map[string]string{"X-Real-IP": "nope"}, want: ""},
		{name: "none", headers: nil, want: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, realIP(req))
		})
	}
}
