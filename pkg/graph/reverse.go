package graph

import (
	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/spatialindex"
)

// reversible. only plain surface one ways get a synthetic reverse
func reversible(seg *datastructure.Segment) bool {
	if !seg.IsOneWay() || seg.IsTunnel() || seg.GetLayer() != 0 {
		return false
	}
	if seg.GetHighwayType().IsLinkRoad() {
		return false
	}
	if _, ok := seg.GetTag("roundabout"); ok {
		return false
	}
	if v, ok := seg.GetTag("junction"); ok && v == "roundabout" {
		return false
	}
	return true
}

// touchesOneWayTunnel. seg's from/to node touches a one way tunnel of another way
func touchesOneWayTunnel(store *datastructure.Store, seg *datastructure.Segment) bool {
	for _, n := range [2]datastructure.NodeIndex{seg.GetFromNode(), seg.GetToNode()} {
		if n == datastructure.INVALID_NODE {
			continue
		}
		for _, c := range store.GetNode(n).GetConnectedSegments() {
			cs := store.GetSegment(c)
			if cs.GetWayId() == seg.GetWayId() {
				continue
			}
			if cs.IsOneWay() && cs.IsTunnel() {
				return true
			}
		}
	}
	return false
}

/*
hasOppositeOneWay. looks for an opposite one way around seg's midpoint.

	<----------<----------<----------   (opposite, on the left when driving on the right)
	---------->---------->---------->
	            seg
*/
func hasOppositeOneWay(store *datastructure.Store, rt *spatialindex.SegmentRtree, seg *datastructure.Segment) bool {
	mid := seg.GetMidPoint()
	near := rt.SearchWithinRadius(mid, pkg.REVERSE_SEARCH_RADIUS, seg.GetWayName() != "")
	for _, sd := range near {
		ns := store.GetSegment(sd.Seg)
		if !ns.IsOneWay() {
			continue
		}
		if geo.GetAngle(ns.GetHeading(), seg.GetHeading()) <= pkg.REVERSE_OPPOSITE_MIN_ANGLE {
			continue
		}
		if seg.GetWayName() != "" {
			if ns.GetWayName() != seg.GetWayName() {
				continue
			}
		} else if ns.GetHighwayType() != seg.GetHighwayType() {
			continue
		}
		if ns.GetStructType() != seg.GetStructType() || ns.GetLayer() != seg.GetLayer() {
			continue
		}

		headingMidToMid := int(geo.HeadingInDegree(mid, ns.GetMidPoint()))
		angle := (headingMidToMid - seg.GetHeading() + 720) % 360
		var valid bool
		if store.IsDriveOnRight() {
			valid = angle >= 360-pkg.REVERSE_SIDE_ANGLE_MAX && angle <= 360-pkg.REVERSE_SIDE_ANGLE_MIN
		} else {
			valid = angle >= pkg.REVERSE_SIDE_ANGLE_MIN && angle <= pkg.REVERSE_SIDE_ANGLE_MAX
		}
		if valid {
			return true
		}
	}
	return false
}

/*
generateReversedSegments. adds a synthetic opposite segment (negative id) for each eligible one way.
a whole way is skipped if any of its segments touches a one way tunnel or already has a paired one way beside it.
an original segment that gets a reverse becomes two way.
*/
func (b *Builder) generateReversedSegments(store *datastructure.Store) int {
	rt := spatialindex.NewSegmentRtree(store)
	rt.Build(b.log)

	nonReversible := make(map[int64]struct{})
	store.ForEachSegment(func(_ datastructure.SegIndex, seg *datastructure.Segment) {
		if !reversible(seg) {
			return
		}
		if _, ok := nonReversible[seg.GetWayId()]; ok {
			return
		}
		if touchesOneWayTunnel(store, seg) || hasOppositeOneWay(store, rt, seg) {
			nonReversible[seg.GetWayId()] = struct{}{}
		}
	})

	candidates := make([]datastructure.SegIndex, 0, store.NumberOfSegments()/4)
	store.ForEachSegment(func(i datastructure.SegIndex, seg *datastructure.Segment) {
		if !reversible(seg) {
			return
		}
		if _, ok := nonReversible[seg.GetWayId()]; ok {
			return
		}
		candidates = append(candidates, i)
	})

	count := 0
	for _, i := range candidates {
		seg := store.GetSegment(i)
		seg.SetOneWay(false)
		if _, ok := store.AddSegment(datastructure.NewReversedSegment(seg)); ok {
			count++
		}
	}
	return count
}
