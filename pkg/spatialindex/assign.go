package spatialindex

import (
	"math"
	"sort"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
)

const MATCH_PRI_INDEX_DEFAULT pkg.MatchPriority = -1

type SegAssignParams struct {
	Heading        int // [0,359], -1 = ignore heading
	Radius         float64
	AngleTolerance int

	// device time, when set segments excluded at that time are skipped
	Time exclusion.TimePoint

	WayName        string
	NoRoadLink     bool
	NoBridge       bool
	NoTunnel       bool
	CheckNoGps     bool
	IgnoreReverse  bool
	ExcludedSegIds []int64
	ExcludedTypes  []pkg.HighwayType
	IncludedLayers []int8

	MatchPriority pkg.MatchPriority
}

func NewSegAssignParams(heading int, radius float64, angleTolerance int) SegAssignParams {
	return SegAssignParams{
		Heading:        heading,
		Radius:         radius,
		AngleTolerance: angleTolerance,
		CheckNoGps:     true,
		MatchPriority:  MATCH_PRI_INDEX_DEFAULT,
	}
}

type AssignResult struct {
	Seg             datastructure.SegIndex
	Score           float64
	Distance        float64 // meters
	HeadingDistance int
	Exclusive       bool

	distance2  float64
	tempEdgeId int64
	removed    bool
}

/*
GetMatchingScore. combined angle and distance score (distance2 in m^2), higher is better.
distances below 4m and angles below 10 degrees are compressed.
*/
func GetMatchingScore(angle int, distance2 float64) float64 {
	if distance2 < 16.0 {
		distance2 = 8.0 + distance2/2
	}
	angleF := float64(angle)
	if angle < 10 {
		angleF = 5.0 + float64(angle)/2.0
	}
	d := 1.0 / (1.0 + math.Sqrt(distance2)/10.0)
	theta := 1.0 / (1.0 + angleF*(math.Pi/45.0))
	return 2*d + theta
}

func (si *SegmentIndex) filter(seg *datastructure.Segment, params *SegAssignParams) bool {
	if params.IgnoreReverse && seg.IsReverse() {
		return false
	}
	for _, id := range params.ExcludedSegIds {
		if id == seg.GetId() {
			return false
		}
	}
	for _, t := range params.ExcludedTypes {
		if t == seg.GetHighwayType() {
			return false
		}
	}
	if len(params.IncludedLayers) > 0 {
		included := false
		for _, l := range params.IncludedLayers {
			if l == seg.GetLayer() {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	if params.WayName != "" && seg.GetWayName() != params.WayName {
		return false
	}
	if params.Heading >= 0 && !geo.InSameDirection(seg.GetHeading(), params.Heading, params.AngleTolerance) {
		return false
	}
	if params.NoRoadLink && seg.GetHighwayType() >= pkg.HIGHWAY_MOTORWAY_LINK &&
		seg.GetHighwayType() <= pkg.HIGHWAY_SECONDARY_LINK {
		return false
	}
	if params.NoBridge && seg.IsBridge() {
		return false
	}
	if params.NoTunnel && seg.IsTunnel() {
		return false
	}
	if params.CheckNoGps && seg.IsExcludedNoGps() {
		return false
	}
	if params.Time.IsSet() && seg.IsExcluded() {
		if seg.IsExcludedAlways() {
			return false
		}
		if si.checker != nil && si.checker.IsSegmentExcluded(seg, params.Time) {
			return false
		}
	}
	return true
}

func (si *SegmentIndex) collect(p geo.Coordinate, params *SegAssignParams) []AssignResult {
	radius2 := params.Radius * params.Radius
	results := make([]AssignResult, 0, 8)
	for _, idx := range si.candidates(p) {
		seg := si.store.GetSegment(idx)
		if !si.filter(seg, params) {
			continue
		}
		d2 := seg.DistanceSquareMeters(p)
		if d2 >= radius2 {
			continue
		}
		angle := 0
		if params.Heading >= 0 {
			angle = geo.GetAngle(params.Heading, seg.GetHeading())
		}
		results = append(results, AssignResult{
			Seg:             idx,
			Distance:        math.Sqrt(d2),
			HeadingDistance: angle,
			Score:           GetMatchingScore(angle, d2),
			distance2:       d2,
		})
	}
	return results
}

func (si *SegmentIndex) priority(params *SegAssignParams) pkg.MatchPriority {
	mp := params.MatchPriority
	if mp == MATCH_PRI_INDEX_DEFAULT {
		mp = si.matchPriority
	}
	if params.Heading < 0 {
		mp = pkg.MATCH_PRI_DISTANCE
	}
	return mp
}

// AssignSegment. best candidate for p, false if no segment passes the filters and radius
func (si *SegmentIndex) AssignSegment(p geo.Coordinate, params SegAssignParams) (AssignResult, bool) {
	results := si.collect(p, &params)
	if len(results) == 0 {
		return AssignResult{}, false
	}
	if len(results) == 1 {
		results[0].Exclusive = true
		return results[0], true
	}

	best := 0
	switch si.priority(&params) {
	case pkg.MATCH_PRI_DISTANCE:
		for i := 1; i < len(results); i++ {
			if results[i].distance2 < results[best].distance2 {
				best = i
			}
		}
	case pkg.MATCH_PRI_ANGLE:
		for i := 1; i < len(results); i++ {
			if results[i].HeadingDistance < results[best].HeadingDistance {
				best = i
			}
		}
	default:
		for i := 1; i < len(results); i++ {
			if results[i].Score > results[best].Score {
				best = i
			}
		}
	}
	return results[best], true
}

// AssignSegments. up to 4 ranked candidates, scores normalised to [0,1]
func (si *SegmentIndex) AssignSegments(p geo.Coordinate, params SegAssignParams) []AssignResult {
	results := si.collect(p, &params)
	if len(results) == 0 {
		return nil
	}
	if len(results) == 1 {
		results[0].Exclusive = true
		results[0].Score = 1.0
		return results
	}

	switch si.priority(&params) {
	case pkg.MATCH_PRI_DISTANCE:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Distance < results[j].Distance
		})
	case pkg.MATCH_PRI_ANGLE:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].HeadingDistance < results[j].HeadingDistance
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}

	results = si.flagExclusiveAssignedSeg(results)

	if len(results) > pkg.MAX_ASSIGN_RESULTS {
		results = results[:pkg.MAX_ASSIGN_RESULTS]
	}

	maxScore := 0.0
	for _, r := range results {
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	for i := range results {
		if maxScore == 0 {
			results[i].Score = 1.0
		} else {
			results[i].Score /= maxScore
		}
	}
	return results
}

/*
flagExclusiveAssignedSeg. candidates on the same oriented way and the same edge
(no way connector in between) with similar heading are duplicates, the lower score is dropped.

	                         A
	                         |
	    -------->------------>---------------->
	      seg1     seg2            seg3

seg1 and seg2 share an edge (highest score kept), seg3 stays.
a single remaining candidate is exclusive.
*/
func (si *SegmentIndex) flagExclusiveAssignedSeg(results []AssignResult) []AssignResult {
	n := len(results)
	if n <= 1 {
		if n == 1 {
			results[0].Exclusive = true
		}
		return results
	}

	wayCount := 1
	for i := 1; i < n; i++ {
		if si.store.GetSegment(results[i-1].Seg).GetOrientedWayId() !=
			si.store.GetSegment(results[i].Seg).GetOrientedWayId() {
			wayCount++
		}
	}
	if wayCount == n {
		return results
	}

	refs := make([]*AssignResult, n)
	for i := range results {
		refs[i] = &results[i]
	}
	sort.SliceStable(refs, func(i, j int) bool {
		si1, sj := si.store.GetSegment(refs[i].Seg), si.store.GetSegment(refs[j].Seg)
		if si1.GetOrientedWayId() != sj.GetOrientedWayId() {
			return si1.GetOrientedWayId() < sj.GetOrientedWayId()
		}
		if si1.GetSubSeq() != sj.GetSubSeq() {
			return si1.GetSubSeq() < sj.GetSubSeq()
		}
		return si1.GetSplitSeq() < sj.GetSplitSeq()
	})

	for i := 0; i < n; {
		j := i + 1
		wayId := si.store.GetSegment(refs[i].Seg).GetOrientedWayId()
		for j < n && si.store.GetSegment(refs[j].Seg).GetOrientedWayId() == wayId {
			j++
		}
		refs[i].tempEdgeId = si.store.GetSegment(refs[i].Seg).GetId()
		for k := i + 1; k < j; k++ {
			prev := si.store.GetSegment(refs[k-1].Seg)
			cur := si.store.GetSegment(refs[k].Seg)
			refs[k].tempEdgeId = refs[k-1].tempEdgeId
			if prev.GetToNodeId() == cur.GetFromNodeId() {
				if si.isWayConnector(cur.GetFromNode()) {
					refs[k].tempEdgeId = cur.GetId()
				}
			} else if si.isWayConnector(prev.GetToNode()) || si.isWayConnector(cur.GetFromNode()) {
				refs[k].tempEdgeId = cur.GetId()
			}
		}
		i = j
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Score > refs[j].Score
	})
	for i := 0; i < n-1; i++ {
		if refs[i].removed {
			continue
		}
		hi := si.store.GetSegment(refs[i].Seg).GetHeading()
		for j := n - 1; j > i; j-- {
			if refs[j].removed {
				continue
			}
			if refs[i].tempEdgeId == refs[j].tempEdgeId &&
				geo.GetAngle(hi, si.store.GetSegment(refs[j].Seg).GetHeading()) < pkg.SAME_WAY_ANGLE_TOLERANCE {
				refs[j].removed = true
			}
		}
	}

	kept := results[:0]
	for _, r := range results {
		if !r.removed {
			kept = append(kept, r)
		}
	}
	if len(kept) == 1 {
		kept[0].Exclusive = true
	}
	return kept
}

func (si *SegmentIndex) isWayConnector(n datastructure.NodeIndex) bool {
	if n == datastructure.INVALID_NODE {
		return false
	}
	return si.store.GetNode(n).IsWayConnector()
}
