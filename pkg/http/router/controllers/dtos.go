package controllers

import (
	"fmt"
	"time"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/engine/mapmatcher"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/http/usecases"
)

const (
	defaultAdjacentRadius = 100.0
	dailyTimeLayout       = "15:04:05"
)

type coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func newCoordinate(c geo.Coordinate) coordinate {
	return coordinate{Lat: c.Lat, Lon: c.Lon}
}

// assignRequest model info
//
//	@Description	query parameters for segment assignment.
type assignRequest struct {
	Lat            float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon            float64 `json:"lon" validate:"required,min=-180,max=180"`
	Heading        int     `json:"heading" validate:"min=-1,max=359"` // -1 = ignore heading
	Radius         float64 `json:"radius" validate:"gt=0,max=1000"`
	AngleTolerance int     `json:"angle_tolerance" validate:"min=0,max=180"`
}

type candidateResponse struct {
	SegmentId       int64      `json:"segment_id"`
	WayId           int64      `json:"way_id"`
	WayName         string     `json:"way_name"`
	Distance        float64    `json:"distance"`
	HeadingDistance int        `json:"heading_distance"`
	Score           float64    `json:"score"`
	Exclusive       bool       `json:"exclusive"`
	Snapped         coordinate `json:"snapped"`
}

type assignResponse struct {
	Candidates []candidateResponse `json:"candidates"`
}

func NewAssignResponse(cands []usecases.Candidate) assignResponse {
	resp := assignResponse{Candidates: make([]candidateResponse, 0, len(cands))}
	for _, c := range cands {
		resp.Candidates = append(resp.Candidates, candidateResponse{
			SegmentId:       c.SegmentId,
			WayId:           c.WayId,
			WayName:         c.WayName,
			Distance:        c.Distance,
			HeadingDistance: c.HeadingDistance,
			Score:           c.Score,
			Exclusive:       c.Exclusive,
			Snapped:         newCoordinate(c.Snapped),
		})
	}
	return resp
}

type adjacentRequest struct {
	Lat     float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon     float64 `json:"lon" validate:"required,min=-180,max=180"`
	Radius  float64 `json:"radius" validate:"gt=0,max=1000"`
	HasName bool    `json:"has_name"`
}

type adjacentSegmentResponse struct {
	SegmentId int64   `json:"segment_id"`
	WayName   string  `json:"way_name"`
	Distance  float64 `json:"distance"`
}

type adjacentNodeResponse struct {
	NodeId   int64      `json:"node_id"`
	Coord    coordinate `json:"coordinate"`
	Distance float64    `json:"distance"`
}

type adjacentResponse struct {
	Segments []adjacentSegmentResponse `json:"segments"`
	Nodes    []adjacentNodeResponse    `json:"nodes"`
}

func NewAdjacentResponse(adj usecases.Adjacent) adjacentResponse {
	resp := adjacentResponse{
		Segments: make([]adjacentSegmentResponse, 0, len(adj.Segments)),
		Nodes:    make([]adjacentNodeResponse, 0, len(adj.Nodes)),
	}
	for _, s := range adj.Segments {
		resp.Segments = append(resp.Segments, adjacentSegmentResponse{
			SegmentId: s.SegmentId,
			WayName:   s.WayName,
			Distance:  s.Distance,
		})
	}
	for _, n := range adj.Nodes {
		resp.Nodes = append(resp.Nodes, adjacentNodeResponse{
			NodeId:   n.NodeId,
			Coord:    newCoordinate(n.Coord),
			Distance: n.Distance,
		})
	}
	return resp
}

// shortestPathRequest model info
//
//	@Description	query parameters for an origin to destination route.
type shortestPathRequest struct {
	OriginLat          float64 `json:"origin_lat" validate:"required,min=-90,max=90"`
	OriginLon          float64 `json:"origin_lon" validate:"required,min=-180,max=180"`
	OriginHeading      int     `json:"origin_heading" validate:"min=-1,max=359"`
	DestinationLat     float64 `json:"destination_lat" validate:"required,min=-90,max=90"`
	DestinationLon     float64 `json:"destination_lon" validate:"required,min=-180,max=180"`
	DestinationHeading int     `json:"destination_heading" validate:"min=-1,max=359"`
}

type shortestPathResponse struct {
	SegmentIds  []int64    `json:"segment_ids"`
	EdgeIds     []int64    `json:"edge_ids"`
	Dist        float64    `json:"distance"`
	Path        string     `json:"path"`
	SearchSteps int        `json:"search_steps"`
	Origin      coordinate `json:"origin"`
	Destination coordinate `json:"destination"`
}

func NewShortestPathResponse(route *usecases.Route) shortestPathResponse {
	return shortestPathResponse{
		SegmentIds:  route.SegmentIds,
		EdgeIds:     route.EdgeIds,
		Dist:        route.Length,
		Path:        route.Polyline,
		SearchSteps: route.SearchSteps,
		Origin:      newCoordinate(route.Origin),
		Destination: newCoordinate(route.Destination),
	}
}

type tracePointRequest struct {
	Lat        float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon        float64 `json:"lon" validate:"required,min=-180,max=180"`
	Heading    *int    `json:"heading" validate:"omitempty,min=-1,max=359"`
	Speed      *int    `json:"speed" validate:"omitempty,min=-1"`
	RecordTime int64   `json:"record_time" validate:"min=0"` // unix seconds
	SegmentId  int64   `json:"segment_id"`                   // pinned segment, 0 = match it
}

// mapMatchRequest model info
//
//	@Description	request body for route matching one gps trace.
type mapMatchRequest struct {
	Points         []tracePointRequest `json:"points" validate:"required,min=1,max=20000,dive"`
	IsLocalTime    *bool               `json:"is_local_time"`
	Radius         float64             `json:"radius" validate:"omitempty,gt=0,max=500"`
	AngleTolerance int                 `json:"angle_tolerance" validate:"omitempty,min=1,max=180"`
	CheckNoGps     *bool               `json:"check_no_gps"`
	VerifyResult   bool                `json:"verify_result"`
}

func (r *mapMatchRequest) toMatchRequest() usecases.MatchRequest {
	req := usecases.MatchRequest{
		Points:         make([]usecases.TracePoint, 0, len(r.Points)),
		IsLocalTime:    true,
		Radius:         mapmatcher.DEFAULT_RADIUS,
		AngleTolerance: mapmatcher.DEFAULT_ANGLE_TOLERANCE,
		CheckNoGps:     true,
		VerifyResult:   r.VerifyResult,
	}
	if r.IsLocalTime != nil {
		req.IsLocalTime = *r.IsLocalTime
	}
	if r.CheckNoGps != nil {
		req.CheckNoGps = *r.CheckNoGps
	}
	if r.Radius > 0 {
		req.Radius = r.Radius
	}
	if r.AngleTolerance > 0 {
		req.AngleTolerance = r.AngleTolerance
	}
	for _, p := range r.Points {
		tp := usecases.TracePoint{
			Coord:      geo.NewCoordinate(p.Lat, p.Lon),
			Heading:    -1,
			Speed:      -1,
			RecordTime: p.RecordTime,
			SegmentId:  p.SegmentId,
		}
		if p.Heading != nil {
			tp.Heading = *p.Heading
		}
		if p.Speed != nil {
			tp.Speed = *p.Speed
		}
		req.Points = append(req.Points, tp)
	}
	return req
}

type matchedPointResponse struct {
	Index              int        `json:"index"`
	SegmentId          int64      `json:"segment_id"`
	ISeg               int        `json:"i_seg"`
	IsBroken           bool       `json:"is_broken"`
	EnteringNoGpsRoute bool       `json:"entering_no_gps_route"`
	Snapped            coordinate `json:"snapped"`
}

type mapMatchResponse struct {
	SegmentIds        []int64                `json:"segment_ids"`
	Points            []matchedPointResponse `json:"points"`
	Dist              float64                `json:"distance"`
	Path              string                 `json:"path"`
	DisconnectedIndex int                    `json:"disconnected_index"`
	RepeatedIndex     int                    `json:"repeated_index"`
}

func NewMapmatchingResponse(m *usecases.Match) mapMatchResponse {
	resp := mapMatchResponse{
		SegmentIds:        m.SegmentIds,
		Points:            make([]matchedPointResponse, 0, len(m.Points)),
		Dist:              m.Length,
		Path:              m.Polyline,
		DisconnectedIndex: m.DisconnectedIndex,
		RepeatedIndex:     m.RepeatedIndex,
	}
	for _, p := range m.Points {
		resp.Points = append(resp.Points, matchedPointResponse{
			Index:              p.Index,
			SegmentId:          p.SegmentId,
			ISeg:               p.ISeg,
			IsBroken:           p.IsBroken,
			EnteringNoGpsRoute: p.EnteringNoGpsRoute,
			Snapped:            newCoordinate(p.Snapped),
		})
	}
	return resp
}

// exclusionRequest model info
//
//	@Description	install an exclusion on segments. from/to is "15:04:05" for daily_time_range, "2006-01-02 15:04:05" for datetime_range.
type exclusionRequest struct {
	SegmentIds []int64 `json:"segment_ids" validate:"required,min=1,dive,ne=0"`
	Type       string  `json:"type" validate:"required,oneof=always daily_time_range datetime_range no_gps"`
	From       string  `json:"from" validate:"required_if=Type daily_time_range,required_if=Type datetime_range"`
	To         string  `json:"to" validate:"required_if=Type daily_time_range,required_if=Type datetime_range"`
}

func (r *exclusionRequest) toSetting() (exclusion.Setting, error) {
	switch r.Type {
	case "always":
		return exclusion.NewSetting(pkg.EXTYPE_ALWAYS, 0, 0), nil
	case "no_gps":
		return exclusion.NewSetting(pkg.EXTYPE_NO_GPS, 0, 0), nil
	case "daily_time_range":
		from, err := parseDailyTime(r.From)
		if err != nil {
			return exclusion.Setting{}, fmt.Errorf("from: %w", err)
		}
		to, err := parseDailyTime(r.To)
		if err != nil {
			return exclusion.Setting{}, fmt.Errorf("to: %w", err)
		}
		return exclusion.NewSetting(pkg.EXTYPE_DAILY_TIME_RANGE, from, to), nil
	case "datetime_range":
		from, err := exclusion.ParseTime(r.From)
		if err != nil {
			return exclusion.Setting{}, fmt.Errorf("from: %w", err)
		}
		to, err := exclusion.ParseTime(r.To)
		if err != nil {
			return exclusion.Setting{}, fmt.Errorf("to: %w", err)
		}
		if from > to {
			return exclusion.Setting{}, fmt.Errorf("from %q is after to %q", r.From, r.To)
		}
		return exclusion.NewSetting(pkg.EXTYPE_DATETIME_RANGE, from, to), nil
	default:
		return exclusion.Setting{}, fmt.Errorf("unknown exclusion type %q", r.Type)
	}
}

// parseDailyTime. "15:04:05" -> seconds since midnight
func parseDailyTime(s string) (int64, error) {
	t, err := time.Parse(dailyTimeLayout, s)
	if err != nil {
		return 0, err
	}
	return int64(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

type clearExclusionRequest struct {
	SegmentIds []int64 `json:"segment_ids" validate:"required,min=1,dive,ne=0"`
}

type segmentResponse struct {
	Id         int64             `json:"id"`
	WayId      int64             `json:"way_id"`
	SubSeq     int16             `json:"way_sub_seq"`
	SplitSeq   int16             `json:"split_seq"`
	FromNodeId int64             `json:"from_node_id"`
	ToNodeId   int64             `json:"to_node_id"`
	From       coordinate        `json:"from"`
	To         coordinate        `json:"to"`
	Length     float64           `json:"length"`
	Heading    int               `json:"heading"`
	Highway    int8              `json:"highway"`
	WayName    string            `json:"way_name"`
	OneWay     bool              `json:"one_way"`
	Bridge     bool              `json:"bridge"`
	Tunnel     bool              `json:"tunnel"`
	Layer      int8              `json:"layer"`
	Reverse    bool              `json:"reverse"`
	Tags       map[string]string `json:"tags,omitempty"`
	Exclusion  string            `json:"exclusion,omitempty"`
}

func NewSegmentResponse(s usecases.SegmentInfo) segmentResponse {
	return segmentResponse{
		Id:         s.Id,
		WayId:      s.WayId,
		SubSeq:     s.SubSeq,
		SplitSeq:   s.SplitSeq,
		FromNodeId: s.FromNodeId,
		ToNodeId:   s.ToNodeId,
		From:       newCoordinate(s.From),
		To:         newCoordinate(s.To),
		Length:     s.Length,
		Heading:    s.Heading,
		Highway:    s.Highway,
		WayName:    s.WayName,
		OneWay:     s.OneWay,
		Bridge:     s.Bridge,
		Tunnel:     s.Tunnel,
		Layer:      s.Layer,
		Reverse:    s.Reverse,
		Tags:       s.Tags,
		Exclusion:  s.Exclusion,
	}
}

type nodeResponse struct {
	Id              int64      `json:"id"`
	Coord           coordinate `json:"coordinate"`
	Name            string     `json:"name,omitempty"`
	WayConnector    bool       `json:"way_connector"`
	DeadEnd         bool       `json:"dead_end"`
	ConnectedSegIds []int64    `json:"connected_segment_ids"`
}

func NewNodeResponse(n usecases.NodeInfo) nodeResponse {
	return nodeResponse{
		Id:              n.Id,
		Coord:           newCoordinate(n.Coord),
		Name:            n.Name,
		WayConnector:    n.WayConnector,
		DeadEnd:         n.DeadEnd,
		ConnectedSegIds: n.ConnectedSegIds,
	}
}
