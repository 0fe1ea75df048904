package graph

import (
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
)

/*
flagNodeInternals.
way connector: a real node (id > 0) with incident segments from at least two ways.
dead end: a single incident segment, or two opposite segments (end of a two way road).
*/
func flagNodeInternals(store *datastructure.Store, i datastructure.NodeIndex) {
	node := store.GetNode(i)
	segs := node.GetConnectedSegments()

	connector := false
	if node.GetId() > 0 && len(segs) >= 2 {
		way0 := store.GetSegment(segs[0]).GetWayId()
		for _, s := range segs[1:] {
			if store.GetSegment(s).GetWayId() != way0 {
				connector = true
				break
			}
		}
	}
	node.SetWayConnector(connector)

	deadEnd := false
	switch len(segs) {
	case 1:
		deadEnd = true
	case 2:
		h1 := store.GetSegment(segs[0]).GetHeading()
		h2 := store.GetSegment(segs[1]).GetHeading()
		deadEnd = geo.GetAngle(h1, h2) == 180
	}
	node.SetDeadEnd(deadEnd)
}

// flagWeakConnectivity. labels components by BFS over the undirected graph and flags the largest one.
// returns its size.
func flagWeakConnectivity(store *datastructure.Store) int {
	n := store.NumberOfNodes()
	if n == 0 {
		return 0
	}
	component := make([]int32, n)
	for i := range component {
		component[i] = -1
	}

	queue := make([]datastructure.NodeIndex, 0, 1024)
	bestComp, bestSize := int32(-1), 0
	nextComp := int32(0)
	for seed := 0; seed < n; seed++ {
		if component[seed] >= 0 {
			continue
		}
		comp := nextComp
		nextComp++
		component[seed] = comp
		queue = append(queue[:0], datastructure.NodeIndex(seed))
		size := 0
		for head := 0; head < len(queue); head++ {
			u := queue[head]
			size++
			for _, s := range store.GetNode(u).GetConnectedSegments() {
				seg := store.GetSegment(s)
				for _, v := range [2]datastructure.NodeIndex{seg.GetFromNode(), seg.GetToNode()} {
					if v != datastructure.INVALID_NODE && component[v] < 0 {
						component[v] = comp
						queue = append(queue, v)
					}
				}
			}
		}
		if size > bestSize {
			bestComp, bestSize = comp, size
		}
	}

	for i := 0; i < n; i++ {
		store.GetNode(datastructure.NodeIndex(i)).SetWeakConnected(component[i] == bestComp)
	}
	return bestSize
}
