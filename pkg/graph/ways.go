package graph

import (
	"sort"

	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/util"
)

/*
initWays. groups segments per oriented way id, sorted by (sub, split).
ways holding synthetic reverses are reversed to follow the travel direction.
*/
func initWays(store *datastructure.Store) error {
	store.ResetWays()

	order := make([]int64, 0)
	groups := make(map[int64][]datastructure.SegIndex)
	store.ForEachSegment(func(i datastructure.SegIndex, seg *datastructure.Segment) {
		wayId := seg.GetOrientedWayId()
		if _, ok := groups[wayId]; !ok {
			order = append(order, wayId)
		}
		groups[wayId] = append(groups[wayId], i)
	})

	for _, wayId := range order {
		segs := groups[wayId]
		sort.SliceStable(segs, func(i, j int) bool {
			a, b := store.GetSegment(segs[i]), store.GetSegment(segs[j])
			if a.GetSubSeq() != b.GetSubSeq() {
				return a.GetSubSeq() < b.GetSubSeq()
			}
			return a.GetSplitSeq() < b.GetSplitSeq()
		})
		first := store.GetSegment(segs[0])
		if first.IsReverse() {
			segs = util.ReverseG(segs)
			first = store.GetSegment(segs[0])
		}

		nodes := make([]datastructure.NodeIndex, 0, len(segs)+1)
		bound := datastructure.NewEmptyBound()
		bound.Extend(first.GetFrom())
		for _, s := range segs {
			seg := store.GetSegment(s)
			nodes = append(nodes, seg.GetFromNode())
			bound.Extend(seg.GetTo())
		}
		nodes = append(nodes, store.GetSegment(segs[len(segs)-1]).GetToNode())

		way := datastructure.NewOrientedWay(wayId, first.GetWayName(), first.IsOneWay(), segs, nodes, bound)
		idx, err := store.AddWay(way)
		if err != nil {
			return util.WrapErrorf(err, util.ErrBadParamInput, "init ways")
		}
		for _, s := range segs {
			store.GetSegment(s).SetWay(idx)
		}
	}

	if store.NumberOfWays() == 0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "no oriented way built")
	}

	store.ForEachWay(func(i datastructure.WayIndex, way *datastructure.OrientedWay) {
		if way.IsOneWay() {
			return
		}
		if op, ok := store.GetWayById(-way.GetId()); ok {
			way.SetOpposite(op)
		}
	})
	return nil
}
