package datastructure

import "github.com/lintang-b-s/roadmatch/pkg/geo"

// Node. meeting point of segments. negative id = synthetic node from a segment split
type Node struct {
	id    int64
	coord geo.Coordinate
	name  string

	wayConnector  bool
	deadEnd       bool
	weakConnected bool

	// incident segments, major highway types first
	connectedSegments []SegIndex
}

func NewNode(id int64, coord geo.Coordinate) Node {
	return Node{id: id, coord: coord}
}

func (n *Node) GetId() int64 {
	return n.id
}

func (n *Node) GetCoordinate() geo.Coordinate {
	return n.coord
}

func (n *Node) GetLat() float64 {
	return n.coord.Lat
}

func (n *Node) GetLon() float64 {
	return n.coord.Lon
}

func (n *Node) GetName() string {
	return n.name
}

func (n *Node) SetName(name string) {
	n.name = name
}

func (n *Node) IsWayConnector() bool {
	return n.wayConnector
}

func (n *Node) IsDeadEnd() bool {
	return n.deadEnd
}

func (n *Node) IsWeakConnected() bool {
	return n.weakConnected
}

// IsRoutingNode. decision point, way connector or dead end
func (n *Node) IsRoutingNode() bool {
	return n.wayConnector || n.deadEnd
}

func (n *Node) SetWayConnector(v bool) {
	n.wayConnector = v
}

func (n *Node) SetDeadEnd(v bool) {
	n.deadEnd = v
}

func (n *Node) SetWeakConnected(v bool) {
	n.weakConnected = v
}

func (n *Node) GetConnectedSegments() []SegIndex {
	return n.connectedSegments
}

func (n *Node) SetConnectedSegments(segs []SegIndex) {
	n.connectedSegments = segs
}

func (n *Node) ClearConnectedSegments() {
	n.connectedSegments = n.connectedSegments[:0]
}

// AddConnectedSegment. no duplicate link for the same segment
func (n *Node) AddConnectedSegment(seg SegIndex) bool {
	for _, s := range n.connectedSegments {
		if s == seg {
			return false
		}
	}
	n.connectedSegments = append(n.connectedSegments, seg)
	return true
}
