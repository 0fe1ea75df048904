package usecases

import (
	"errors"

	"github.com/lintang-b-s/roadmatch/pkg/geo"
)

var (
	ErrEngineNotLoaded = errors.New("road graph is not loaded")
)

type Candidate struct {
	SegmentId       int64
	WayId           int64
	WayName         string
	Distance        float64
	HeadingDistance int
	Score           float64
	Exclusive       bool
	Snapped         geo.Coordinate
}

type AdjacentSegment struct {
	SegmentId int64
	WayName   string
	Distance  float64
}

type AdjacentNode struct {
	NodeId   int64
	Coord    geo.Coordinate
	Distance float64
}

type Adjacent struct {
	Segments []AdjacentSegment
	Nodes    []AdjacentNode
}

// RoutePoint. origin or destination, Heading -1 = ignore heading
type RoutePoint struct {
	Coord   geo.Coordinate
	Heading int
}

type Route struct {
	SegmentIds  []int64
	EdgeIds     []int64
	Length      float64
	Polyline    string
	SearchSteps int

	Origin      geo.Coordinate // snapped onto the first segment
	Destination geo.Coordinate // snapped onto the last segment
}

type SegmentInfo struct {
	Id         int64
	WayId      int64
	SubSeq     int16
	SplitSeq   int16
	FromNodeId int64
	ToNodeId   int64
	From       geo.Coordinate
	To         geo.Coordinate
	Length     float64
	Heading    int
	Highway    int8
	WayName    string
	OneWay     bool
	Bridge     bool
	Tunnel     bool
	Layer      int8
	Reverse    bool
	Tags       map[string]string
	Exclusion  string // empty when not excluded
}

type NodeInfo struct {
	Id              int64
	Coord           geo.Coordinate
	Name            string
	WayConnector    bool
	DeadEnd         bool
	ConnectedSegIds []int64
}

type TracePoint struct {
	Coord      geo.Coordinate
	Heading    int
	Speed      int
	RecordTime int64
	SegmentId  int64 // 0 = not pinned
}

type MatchRequest struct {
	Points         []TracePoint
	IsLocalTime    bool
	Radius         float64
	AngleTolerance int
	CheckNoGps     bool
	VerifyResult   bool
}

type MatchedPoint struct {
	Index              int
	SegmentId          int64 // 0 when unmatched
	ISeg               int
	IsBroken           bool
	EnteringNoGpsRoute bool
	Snapped            geo.Coordinate
}

type Match struct {
	SegmentIds        []int64
	Points            []MatchedPoint
	Length            float64
	Polyline          string
	DisconnectedIndex int
	RepeatedIndex     int
}
