package mapmatcher

import (
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
)

const fixWindow = 4

func (s *session) fixBeginEndPoints() {
	if len(s.vias) == 0 || len(s.result) == 0 {
		return
	}
	s.fixBeginPoints()
	s.fixEndPoints()
}

func (s *session) segInRouteFront(seg da.SegIndex) bool {
	for i := 0; i < fixWindow && i < len(s.result); i++ {
		if s.result[i] == seg {
			return true
		}
	}
	return false
}

func (s *session) segInRouteBack(seg da.SegIndex) bool {
	for i := 0; i < fixWindow && i < len(s.result); i++ {
		if s.result[len(s.result)-1-i] == seg {
			return true
		}
	}
	return false
}

func (s *session) prependSegs(segs ...da.SegIndex) {
	s.result = append(append(make([]da.SegIndex, 0, len(s.result)+len(segs)), segs...), s.result...)
	for i := range s.vias {
		if s.vias[i].ISeg >= 0 {
			s.vias[i].ISeg += len(segs)
		}
	}
}

// leadsInto. seg1 continues directly into seg2 (same oriented way or to node = from node)
func (s *session) leadsInto(seg1, seg2 da.SegIndex) bool {
	a, b := s.m.store.GetSegment(seg1), s.m.store.GetSegment(seg2)
	return a.GetOrientedWayId() == b.GetOrientedWayId() || a.GetToNode() == b.GetFromNode()
}

func (s *session) distance2(seg da.SegIndex, i int) float64 {
	return s.m.store.GetSegment(seg).DistanceSquareMeters(s.vias[i].Coord)
}

/*
fixBeginPoints. the route may start at seg2 while the first point is closer to the preceding seg1:

	   seg1     seg2
	----------->------------->.....
	      o
	 first point
*/
func (s *session) fixBeginPoints() {
	mp := &s.points[0]
	front := s.result[0]
	switch mp.candidateCount() {
	case 2:
		seg1, seg2 := mp.segs[0], mp.segs[1]
		if seg1 == front {
			seg1, seg2 = seg2, seg1
		}
		if seg2 != front || s.distance2(seg1, 0) >= s.distance2(seg2, 0) {
			return
		}
		if s.leadsInto(seg1, seg2) {
			if !s.segInRouteFront(seg1) {
				s.prependSegs(seg1)
				s.vias[0].Seg = seg1
				s.vias[0].ISeg = 0
			}
			return
		}
		route, ok := s.m.router.RoutingNearby(seg1, seg2, false, exclusion.TimePoint{}, false)
		if ok && len(route) == 3 {
			s.prependSegs(route[0], route[1])
			s.vias[0].Seg = route[0]
			s.vias[0].ISeg = 0
		}
	case 3:
		seg1, seg2, seg3 := mp.segs[0], mp.segs[1], mp.segs[2]
		if seg1 == front {
			seg1, seg3 = seg3, seg1
		} else if seg2 == front {
			seg2, seg3 = seg3, seg2
		}
		if seg3 != front {
			return
		}
		if seg := s.pickCloserLead(seg1, seg2, seg3, 0, true); seg != da.INVALID_SEG && !s.segInRouteFront(seg) {
			s.prependSegs(seg)
			s.vias[0].Seg = seg
			s.vias[0].ISeg = 0
		}
	}
}

/*
fixEndPoints. the route may end at seg1 while the last point is closer to the following seg2:

	               seg1     seg2
	... --------->----------->------------->
	                             o
	                        last point
*/
func (s *session) fixEndPoints() {
	last := len(s.vias) - 1
	mp := &s.points[last]
	switch mp.candidateCount() {
	case 2:
		back := s.result[len(s.result)-1]
		seg1, seg2 := mp.segs[0], mp.segs[1]
		if seg2 == back {
			seg1, seg2 = seg2, seg1
		}
		if seg1 != back || s.distance2(seg2, last) >= s.distance2(seg1, last) {
			return
		}
		if s.leadsInto(seg1, seg2) {
			s.appendEnd(seg2, last)
			return
		}
		route, ok := s.m.router.RoutingNearby(seg1, seg2, false, exclusion.TimePoint{}, false)
		if ok && len(route) == 3 {
			s.appendEnd(route[1], last)
			s.appendEnd(seg2, last)
		}
	case 3:
		back := s.result[len(s.result)-1]
		seg1, seg2, seg3 := mp.segs[0], mp.segs[1], mp.segs[2]
		if seg1 == back {
			seg1, seg3 = seg3, seg1
		} else if seg2 == back {
			seg2, seg3 = seg3, seg2
		}
		if seg3 != back {
			return
		}
		if seg := s.pickCloserLead(seg1, seg2, seg3, last, false); seg != da.INVALID_SEG {
			s.appendEnd(seg, last)
		}
	}
}

func (s *session) appendEnd(seg da.SegIndex, point int) {
	if s.segInRouteBack(seg) {
		return
	}
	s.result = append(s.result, seg)
	s.vias[point].Seg = seg
	s.vias[point].ISeg = len(s.result) - 1
}

// pickCloserLead. pick whichever of seg1/seg2 connects to seg3 (before seg3 when front) and
// is closer to the point than seg3. INVALID_SEG if neither.
func (s *session) pickCloserLead(seg1, seg2, seg3 da.SegIndex, point int, front bool) da.SegIndex {
	ok := func(seg da.SegIndex) bool {
		if front {
			return s.leadsInto(seg, seg3)
		}
		return s.leadsInto(seg3, seg)
	}
	ok1, ok2 := ok(seg1), ok(seg2)
	if !ok1 && !ok2 {
		return da.INVALID_SEG
	}
	d1, d2, d3 := s.distance2(seg1, point), s.distance2(seg2, point), s.distance2(seg3, point)
	switch {
	case ok1 && !ok2 && d1 < d3:
		return seg1
	case !ok1 && ok2 && d2 < d3:
		return seg2
	case ok1 && ok2 && d1 < d3 && d2 < d3:
		if d1 < d2 {
			return seg1
		}
		return seg2
	}
	return da.INVALID_SEG
}

// fixOutputsInResultRoute. fill in missing Seg/ISeg, set IsBroken and EnteringNoGpsRoute
func (s *session) fixOutputsInResultRoute() {
	for i := range s.vias {
		vp := &s.vias[i]
		if vp.ISeg >= 0 || vp.HasSeg() || !s.points[i].hasMatched() {
			continue
		}
		for k, seg := range s.result {
			if s.points[i].hasCandidate(seg) {
				vp.Seg = seg
				vp.ISeg = k
				break
			}
		}
	}

	for i := range s.vias {
		vp := &s.vias[i]
		if vp.ISeg >= 0 || !vp.HasSeg() {
			continue
		}
		for k, seg := range s.result {
			if seg == vp.Seg {
				vp.ISeg = k
				break
			}
		}
	}

	if len(s.vias) == 0 {
		return
	}
	s.vias[0].IsBroken = s.vias[0].ISeg < 0
	broken := s.vias[0].IsBroken
	for i := 1; i < len(s.vias); i++ {
		vp := &s.vias[i]
		if vp.IsBroken {
			broken = true
		} else if vp.ISeg < 0 {
			vp.IsBroken = broken
		}
	}

	for i := 0; i < len(s.vias)-1; i++ {
		vp1 := &s.vias[i]
		if vp1.ISeg < 0 || vp1.IsBroken {
			continue
		}
		i2 := i + 1
		for i2 < len(s.vias) && s.vias[i2].ISeg < 0 {
			i2++
		}
		if i2 >= len(s.vias) {
			break
		}
		vp2 := &s.vias[i2]
		for k := vp1.ISeg + 1; k < vp2.ISeg; k++ {
			if s.m.store.GetSegment(s.result[k]).IsExcludedNoGps() {
				vp1.EnteringNoGpsRoute = true
				break
			}
		}
		i = i2 - 1
	}
}

// verify. first disconnected index (to node != next from node) and first index of a segment
// that appears again later, -1 if none
func (m *RouteMatcher) verify(route []da.SegIndex) (int, int) {
	disconnected := -1
	for i := 0; i+1 < len(route); i++ {
		if m.store.GetSegment(route[i]).GetToNode() != m.store.GetSegment(route[i+1]).GetFromNode() {
			disconnected = i
			break
		}
	}

	count := make(map[da.SegIndex]int, len(route))
	for _, seg := range route {
		count[seg]++
	}
	repeated := -1
	for i, seg := range route {
		if count[seg] > 1 {
			repeated = i
			break
		}
	}
	return disconnected, repeated
}
