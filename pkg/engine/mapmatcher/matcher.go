package mapmatcher

import (
	"errors"
	"math"
	"slices"

	"github.com/lintang-b-s/roadmatch/pkg"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/engine/routing"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/spatialindex"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"go.uber.org/zap"
)

var (
	ErrNoViaPoints   = errors.New("no input via points")
	ErrRouteMatching = errors.New("error in route matching from points trace")
)

// ViaPointError. matching error carrying the index of the offending via point
type ViaPointError struct {
	Index int
	Err   error
}

func (e *ViaPointError) Error() string {
	return e.Err.Error()
}

func (e *ViaPointError) Unwrap() error {
	return e.Err
}

type SegmentAssigner interface {
	AssignSegments(p geo.Coordinate, params spatialindex.SegAssignParams) []spatialindex.AssignResult
}

type Router interface {
	RoutingNearby(seg1, seg2 da.SegIndex, excludeReverse bool, t exclusion.TimePoint,
		pointsReversed bool) ([]da.SegIndex, bool)
	SimilarRoutingNearby(seg1, seg2 da.SegIndex, trace []routing.TracePoint,
		excludeReverse bool) ([]da.SegIndex, float64, bool)
	ShortestPath(seg1, seg2 da.SegIndex, excludeReverse bool, t exclusion.TimePoint) ([]da.SegIndex, bool)
	HasExcludedSegs(route []da.SegIndex, t exclusion.TimePoint) bool
}

type RouteMatcher struct {
	store    *da.Store
	assigner SegmentAssigner
	router   Router
	log      *zap.Logger
}

func NewRouteMatcher(store *da.Store, assigner SegmentAssigner, router Router, log *zap.Logger) *RouteMatcher {
	return &RouteMatcher{
		store:    store,
		assigner: assigner,
		router:   router,
		log:      log,
	}
}

/*
RouteMatching. match a gps trace to a sequence of segments.

 1. assign up to 3 candidates per point (unless Seg is already pinned)
 2. points with a suspicious heading are treated as unmatched
 3. points with exactly one candidate split the trace into groups
 4. per group find the best route between the group's end candidates, falling back to a per-point candidate graph
 5. join the group routes and fix the candidates of the first/last point

params is not modified, per-point output is in RouteMatchingResult.ViaPoints.
*/
func (m *RouteMatcher) RouteMatching(params *RouteMatchingParams) (*RouteMatchingResult, error) {
	if params == nil || len(params.ViaPoints) == 0 {
		return nil, util.WrapErrorf(&ViaPointError{Index: 0, Err: ErrNoViaPoints}, util.ErrBadParamInput,
			"route matching")
	}

	s := m.newSession(params)
	s.findMatchedRoute()

	if len(s.result) == 0 {
		idx := s.firstNonMatchedIndex()
		m.log.Debug("route matching failed", zap.Int("via_points", len(s.vias)), zap.Int("index", idx))
		return nil, util.WrapErrorf(&ViaPointError{Index: idx, Err: ErrRouteMatching}, util.ErrNotFound,
			"route matching: via point %d", idx)
	}

	res := &RouteMatchingResult{
		Route:             s.result,
		ViaPoints:         s.vias,
		DisconnectedIndex: -1,
		RepeatedIndex:     -1,
	}
	if params.VerifyResult {
		res.DisconnectedIndex, res.RepeatedIndex = m.verify(res.Route)
	}
	return res, nil
}

// session. state of a single RouteMatching call
type session struct {
	m      *RouteMatcher
	params *RouteMatchingParams

	vias   []RouteMatchingViaPoint
	points []matchingPoint
	groups []pointGroup
	result []da.SegIndex

	distanceLimit float64
}

func (m *RouteMatcher) newSession(params *RouteMatchingParams) *session {
	s := &session{
		m:      m,
		params: params,
		vias:   slices.Clone(params.ViaPoints),
		points: make([]matchingPoint, len(params.ViaPoints)),
		result: make([]da.SegIndex, 0, 256),
	}
	for i := range s.points {
		s.points[i] = newMatchingPoint()
		s.vias[i].ISeg = -1
		s.vias[i].IsBroken = false
		s.vias[i].EnteringNoGpsRoute = false
	}
	s.distanceLimit = DefaultDistanceLimit(params.Radius)
	if params.DistanceLimit > 0 && params.DistanceLimit < s.distanceLimit {
		s.distanceLimit = params.DistanceLimit
	}
	return s
}

// DefaultDistanceLimit. max distance from a point to its route. divided by 4 (not 2) since the distance
// to the midpoint of long segments is also counted.
func DefaultDistanceLimit(radius float64) float64 {
	q := pkg.MAX_SEGMENT_LEN / 4.0
	return math.Sqrt(q*q+radius*radius) + 20
}

func (s *session) findMatchedRoute() {
	s.assignCandidates()
	s.removeSuspiciousPoints()
	s.pointsIntoGroups()

	if len(s.points) == 1 {
		s.matchSinglePoint()
	}
	for _, g := range s.groups {
		if g.from >= g.to {
			continue
		}
		s.appendResultRouteForGroup(g)
	}

	s.fixBeginEndPoints()
	s.fixOutputsInResultRoute()
}

func (s *session) timePoint(i int) exclusion.TimePoint {
	return exclusion.NewTimePoint(s.vias[i].RecordTime, s.params.IsLocalTime)
}

func (s *session) assignCandidates() {
	for i := range s.points {
		vp := &s.vias[i]
		if vp.HasSeg() {
			s.points[i].segs[0] = vp.Seg
			continue
		}
		ap := spatialindex.NewSegAssignParams(vp.Heading, s.params.Radius, s.params.AngleTolerance)
		ap.CheckNoGps = s.params.CheckNoGps
		ap.Time = s.timePoint(i)
		results := s.m.assigner.AssignSegments(vp.Coord, ap)
		for k := 0; k < len(results) && k < pkg.MAX_MATCH_CANDIDATES; k++ {
			s.points[i].segs[k] = results[k].Seg
		}
	}
}

/*
removeSuspiciousPoints. a point whose heading is far off the average of its two neighbours,
while both neighbours agree in direction and are close in time, is noise and left unmatched.
*/
func (s *session) removeSuspiciousPoints() {
	for i := 1; i < len(s.points)-1; i++ {
		if !s.points[i].hasMatched() {
			continue
		}
		prev, cur, next := &s.vias[i-1], &s.vias[i], &s.vias[i+1]
		if prev.Heading < 0 || cur.Heading < 0 || next.Heading < 0 {
			continue
		}
		if geo.GetAngle(prev.Heading, next.Heading) >= pkg.SUSPICIOUS_NEIGHBOUR_MAX_ANGLE {
			continue
		}
		closeInTime := prev.RecordTime == 0 || next.RecordTime == 0 ||
			next.RecordTime-prev.RecordTime <= pkg.SUSPICIOUS_NEIGHBOUR_MAX_GAP
		if !closeInTime {
			continue
		}
		if geo.GetAngle(averageHeading(prev.Heading, next.Heading), cur.Heading) > pkg.SUSPICIOUS_POINT_MIN_ANGLE {
			s.points[i].setToNonMatched()
		}
	}
}

// averageHeading. average of two nearby headings, 350 & 10 -> 0
func averageHeading(h1, h2 int) int {
	if h1-h2 > 180 {
		h2 += 360
	} else if h2-h1 > 180 {
		h1 += 360
	}
	return ((h1 + h2) / 2) % 360
}

// pointsIntoGroups. a group starts and ends at an exclusive point, unmatched points at group ends are dropped
func (s *session) pointsIntoGroups() {
	s.groups = s.groups[:0]
	n := len(s.points)
	g := pointGroup{from: 0}
	for i := 1; i < n-1; i++ {
		if s.points[i].isExclusiveMatched() {
			g.to = i
			s.groups = append(s.groups, g)
			g = pointGroup{from: i}
		}
	}
	g.to = n - 1
	s.groups = append(s.groups, g)

	for gi := range s.groups {
		g := &s.groups[gi]
		for g.from < g.to && !s.points[g.from].hasMatched() {
			g.from++
		}
		for g.to > g.from && !s.points[g.to].hasMatched() {
			g.to--
		}
	}
}

// matchSinglePoint. single point trace, best candidate only
func (s *session) matchSinglePoint() {
	if !s.points[0].hasMatched() {
		return
	}
	seg := s.points[0].segs[0]
	s.result = append(s.result, seg)
	s.vias[0].Seg = seg
	s.vias[0].ISeg = 0
}

func (s *session) appendResultRouteForGroup(g pointGroup) {
	fromPt, toPt := &s.points[g.from], &s.points[g.to]
	if !fromPt.hasMatched() || !toPt.hasMatched() {
		return
	}

	pairs := make([]routingPair, 0, pkg.MAX_MATCH_CANDIDATES*pkg.MAX_MATCH_CANDIDATES)
	for _, fs := range fromPt.segs {
		if fs == da.INVALID_SEG {
			continue
		}
		for _, ts := range toPt.segs {
			if ts == da.INVALID_SEG {
				continue
			}
			pairs = append(pairs, newRoutingPair(fs, ts, INVALID_GRAPH_NODE, INVALID_GRAPH_NODE))
		}
	}
	if len(pairs) == 0 {
		return
	}

	for i := range pairs {
		s.bestAlignedRoute(&pairs[i], g.from, g.to)
		s.calculatePairWeight(&pairs[i], g.from, g.to)
	}
	sortPairs(pairs)

	if !pairs[0].isValid() && g.from+1 < g.to {
		s.m.log.Debug("no aligned route, trying point by point", zap.Int("from", g.from), zap.Int("to", g.to))
		if found, ok := s.findRoutePointByPoint(g.from, g.to); ok {
			pairs = found
			sortPairs(pairs)
		}
	}

	best := &pairs[0]
	fromVp, toVp := &s.vias[g.from], &s.vias[g.to]
	fromVp.IsBroken = !best.isValid()
	if fromVp.IsBroken {
		return
	}
	fromVp.Seg = best.fromSeg
	toVp.Seg = best.toSeg

	lastSize := len(s.result)
	for _, seg := range best.route {
		s.result = appendSegRoute(s.result, seg)
	}
	for i := max(lastSize-1, 0); i < len(s.result); i++ {
		if s.result[i] == fromVp.Seg {
			fromVp.ISeg = i
		}
		if s.result[i] == toVp.Seg {
			toVp.ISeg = i
		}
	}
}

func sortPairs(pairs []routingPair) {
	slices.SortStableFunc(pairs, func(a, b routingPair) int {
		switch {
		case a.weight < b.weight:
			return -1
		case a.weight > b.weight:
			return 1
		}
		return 0
	})
}

// appendSegRoute. consecutive duplicates are skipped
func appendSegRoute(route []da.SegIndex, seg da.SegIndex) []da.SegIndex {
	if len(route) > 0 && route[len(route)-1] == seg {
		return route
	}
	return append(route, seg)
}

func (s *session) firstNonMatchedIndex() int {
	for i := range s.points {
		if !s.points[i].hasMatched() {
			return i
		}
	}
	return 0
}
