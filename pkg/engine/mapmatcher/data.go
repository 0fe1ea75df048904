package mapmatcher

import (
	"github.com/lintang-b-s/roadmatch/pkg"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
)

const (
	DEFAULT_RADIUS          = 40.0
	DEFAULT_ANGLE_TOLERANCE = 40

	INVALID_GRAPH_NODE = -1
)

// RouteMatchingViaPoint. a single gps point. As input Seg is a pinned segment,
// as output it is the matched segment.
type RouteMatchingViaPoint struct {
	Coord      geo.Coordinate
	Heading    int   // [0,359], -1 = ignore heading
	Speed      int   // informational, -1 = unknown
	RecordTime int64 // unix seconds, 0 = no time
	Index      int

	Seg                da.SegIndex
	ISeg               int // position of Seg in the result route, -1 if absent
	IsBroken           bool
	EnteringNoGpsRoute bool
}

func NewRouteMatchingViaPoint(lat, lon float64, heading, speed int, recordTime int64) RouteMatchingViaPoint {
	return RouteMatchingViaPoint{
		Coord:      geo.NewCoordinate(lat, lon),
		Heading:    heading,
		Speed:      speed,
		RecordTime: recordTime,
		Seg:        da.INVALID_SEG,
		ISeg:       -1,
	}
}

func (vp *RouteMatchingViaPoint) HasSeg() bool {
	return vp.Seg != da.INVALID_SEG
}

type RouteMatchingParams struct {
	ViaPoints   []RouteMatchingViaPoint
	IsLocalTime bool // RecordTime is local wall clock rather than utc

	Radius         float64
	AngleTolerance int
	CheckNoGps     bool
	VerifyResult   bool
	// every point must lie within this distance of the route. 0 = automatic
	DistanceLimit float64
}

func NewRouteMatchingParams(viaPoints []RouteMatchingViaPoint) *RouteMatchingParams {
	return &RouteMatchingParams{
		ViaPoints:      viaPoints,
		IsLocalTime:    true,
		Radius:         DEFAULT_RADIUS,
		AngleTolerance: DEFAULT_ANGLE_TOLERANCE,
		CheckNoGps:     true,
	}
}

type RouteMatchingResult struct {
	Route     []da.SegIndex
	ViaPoints []RouteMatchingViaPoint

	// set when VerifyResult, -1 if not found
	DisconnectedIndex int
	RepeatedIndex     int
}

func (r *RouteMatchingResult) GetRoute() []da.SegIndex {
	return r.Route
}

func (r *RouteMatchingResult) GetViaPoints() []RouteMatchingViaPoint {
	return r.ViaPoints
}

type matchingPoint struct {
	segs   [pkg.MAX_MATCH_CANDIDATES]da.SegIndex
	gnodes [pkg.MAX_MATCH_CANDIDATES]int
}

func newMatchingPoint() matchingPoint {
	mp := matchingPoint{}
	mp.setToNonMatched()
	for i := range mp.gnodes {
		mp.gnodes[i] = INVALID_GRAPH_NODE
	}
	return mp
}

func (mp *matchingPoint) setToNonMatched() {
	for i := range mp.segs {
		mp.segs[i] = da.INVALID_SEG
	}
}

func (mp *matchingPoint) candidateCount() int {
	n := 0
	for _, s := range mp.segs {
		if s != da.INVALID_SEG {
			n++
		}
	}
	return n
}

// isExclusiveMatched. exactly one candidate
func (mp *matchingPoint) isExclusiveMatched() bool {
	return mp.segs[0] != da.INVALID_SEG && mp.candidateCount() == 1
}

func (mp *matchingPoint) hasMatched() bool {
	return mp.candidateCount() > 0
}

func (mp *matchingPoint) hasCandidate(seg da.SegIndex) bool {
	for _, s := range mp.segs {
		if s != da.INVALID_SEG && s == seg {
			return true
		}
	}
	return false
}

type pointGroup struct {
	from, to int
}

type routingPair struct {
	fromSeg, toSeg     da.SegIndex
	fromGnode, toGnode int
	route              []da.SegIndex
	weight             int
}

func newRoutingPair(fromSeg, toSeg da.SegIndex, fromGnode, toGnode int) routingPair {
	return routingPair{
		fromSeg:   fromSeg,
		toSeg:     toSeg,
		fromGnode: fromGnode,
		toGnode:   toGnode,
		weight:    pkg.INVALID_WEIGHT,
	}
}

func (p *routingPair) isValid() bool {
	return p.weight != pkg.INVALID_WEIGHT
}
