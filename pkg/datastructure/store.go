package datastructure

import (
	"fmt"
)

// Store. owns every Node, Segment and OrientedWay. other structures (spatial index, routing graph)
// keep arena indexes into it.
type Store struct {
	nodes    *Arena[Node]
	segments *Arena[Segment]
	ways     *Arena[OrientedWay]

	nodeMap map[int64]NodeIndex
	segMap  map[int64]SegIndex
	wayMap  map[int64]WayIndex

	bound        Bound
	driveOnRight bool
}

func NewStore(numNodes, numSegments int) *Store {
	return &Store{
		nodes:        NewArena[Node](numNodes),
		segments:     NewArena[Segment](numSegments),
		ways:         NewArena[OrientedWay](numSegments / 4),
		nodeMap:      make(map[int64]NodeIndex, numNodes),
		segMap:       make(map[int64]SegIndex, numSegments),
		wayMap:       make(map[int64]WayIndex),
		bound:        NewEmptyBound(),
		driveOnRight: true,
	}
}

// AddNode. returns the existing index when the id is already known
func (s *Store) AddNode(node Node) NodeIndex {
	if idx, ok := s.nodeMap[node.id]; ok {
		return idx
	}
	idx := NodeIndex(s.nodes.Alloc(node))
	s.nodeMap[node.id] = idx
	s.bound.Extend(node.coord)
	return idx
}

// AddSegment. false on a duplicate segment id
func (s *Store) AddSegment(seg Segment) (SegIndex, bool) {
	if idx, ok := s.segMap[seg.id]; ok {
		return idx, false
	}
	idx := SegIndex(s.segments.Alloc(seg))
	s.segMap[seg.id] = idx
	return idx, true
}

func (s *Store) AddWay(way OrientedWay) (WayIndex, error) {
	if _, ok := s.wayMap[way.id]; ok {
		return INVALID_WAY, fmt.Errorf("duplicate oriented way %d", way.id)
	}
	idx := WayIndex(s.ways.Alloc(way))
	s.wayMap[way.id] = idx
	return idx, nil
}

func (s *Store) ResetWays() {
	s.ways.Reset()
	s.wayMap = make(map[int64]WayIndex)
}

func (s *Store) GetNode(i NodeIndex) *Node {
	return s.nodes.Get(int(i))
}

func (s *Store) GetSegment(i SegIndex) *Segment {
	return s.segments.Get(int(i))
}

func (s *Store) GetWay(i WayIndex) *OrientedWay {
	return s.ways.Get(int(i))
}

func (s *Store) GetNodeById(id int64) (NodeIndex, bool) {
	idx, ok := s.nodeMap[id]
	return idx, ok
}

func (s *Store) GetSegById(id int64) (SegIndex, bool) {
	idx, ok := s.segMap[id]
	return idx, ok
}

// GetWayById. signed way id
func (s *Store) GetWayById(id int64) (WayIndex, bool) {
	idx, ok := s.wayMap[id]
	return idx, ok
}

// GetSegmentWay. oriented way of the segment, nil before grouping
func (s *Store) GetSegmentWay(seg SegIndex) *OrientedWay {
	w := s.GetSegment(seg).way
	if w == INVALID_WAY {
		return nil
	}
	return s.GetWay(w)
}

func (s *Store) NumberOfNodes() int {
	return s.nodes.Len()
}

func (s *Store) NumberOfSegments() int {
	return s.segments.Len()
}

func (s *Store) NumberOfWays() int {
	return s.ways.Len()
}

func (s *Store) ForEachSegment(fn func(i SegIndex, seg *Segment)) {
	s.segments.ForEach(func(i int, seg *Segment) {
		fn(SegIndex(i), seg)
	})
}

func (s *Store) ForEachNode(fn func(i NodeIndex, node *Node)) {
	s.nodes.ForEach(func(i int, node *Node) {
		fn(NodeIndex(i), node)
	})
}

func (s *Store) ForEachWay(fn func(i WayIndex, way *OrientedWay)) {
	s.ways.ForEach(func(i int, way *OrientedWay) {
		fn(WayIndex(i), way)
	})
}

func (s *Store) GetBound() Bound {
	return s.bound
}

func (s *Store) SetBound(b Bound) {
	s.bound = b
}

func (s *Store) IsDriveOnRight() bool {
	return s.driveOnRight
}

func (s *Store) SetDriveOnRight(v bool) {
	s.driveOnRight = v
}

/*
GetReversedSeg. the segment running opposite to seg.
synthetic reverses are found by -id, others through the incident segment at toNode leading back to fromNode.
*/
func (s *Store) GetReversedSeg(seg SegIndex) (SegIndex, bool) {
	sg := s.GetSegment(seg)
	if rev, ok := s.segMap[-sg.id]; ok {
		return rev, true
	}
	if sg.toNode == INVALID_NODE {
		return INVALID_SEG, false
	}
	for _, c := range s.GetNode(sg.toNode).connectedSegments {
		cs := s.GetSegment(c)
		if c != seg && cs.fromNodeId == sg.toNodeId && cs.toNodeId == sg.fromNodeId {
			return c, true
		}
	}
	return INVALID_SEG, false
}

// GetRouteLength. total route length in meters
func (s *Store) GetRouteLength(route []SegIndex) float64 {
	length := 0.0
	for _, seg := range route {
		length += s.GetSegment(seg).length
	}
	return length
}

func (s *Store) SegmentIds(route []SegIndex) []int64 {
	ids := make([]int64, 0, len(route))
	for _, seg := range route {
		ids = append(ids, s.GetSegment(seg).id)
	}
	return ids
}
