package routing

import (
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
)

type RoutingNodeIndex int32
type ConnIndex int32

const (
	INVALID_ROUTING_NODE RoutingNodeIndex = -1
	INVALID_CONN         ConnIndex        = -1
)

// Connection. 1 step between two routing nodes along one oriented way.
type Connection struct {
	from, to RoutingNodeIndex
	wayId    int64 // oriented way id
	weight   int
	length   float64
	segs     []da.SegIndex
	excluded bool
}

func (c *Connection) GetFrom() RoutingNodeIndex {
	return c.from
}

func (c *Connection) GetTo() RoutingNodeIndex {
	return c.to
}

func (c *Connection) GetWayId() int64 {
	return c.wayId
}

func (c *Connection) GetWeight() int {
	return c.weight
}

func (c *Connection) GetLength() float64 {
	return c.length
}

func (c *Connection) GetSegments() []da.SegIndex {
	return c.segs
}

func (c *Connection) IsExcluded() bool {
	return c.excluded
}

// TwoStepConnection. from -> mid -> to
type TwoStepConnection struct {
	from, mid, to RoutingNodeIndex
	ways          [2]int64
	conns         [2]ConnIndex
	weight        int
}

func (c *TwoStepConnection) GetTo() RoutingNodeIndex {
	return c.to
}

func (c *TwoStepConnection) GetMid() RoutingNodeIndex {
	return c.mid
}

func (c *TwoStepConnection) GetWays() [2]int64 {
	return c.ways
}

func (c *TwoStepConnection) GetWeight() int {
	return c.weight
}

// FourStepConnection. from -> mids[0] -> mids[1] -> mids[2] -> to
type FourStepConnection struct {
	from   RoutingNodeIndex
	mids   [3]RoutingNodeIndex
	to     RoutingNodeIndex
	ways   [4]int64
	conns  [4]ConnIndex
	weight int
	hash   uint64 // mids + ways[0..2]
}

func (c *FourStepConnection) GetTo() RoutingNodeIndex {
	return c.to
}

func (c *FourStepConnection) GetMids() [3]RoutingNodeIndex {
	return c.mids
}

func (c *FourStepConnection) GetWays() [4]int64 {
	return c.ways
}

// SixStepConnection. from -> mids[0..4] -> to
type SixStepConnection struct {
	from   RoutingNodeIndex
	mids   [5]RoutingNodeIndex
	to     RoutingNodeIndex
	ways   [6]int64
	conns  [6]ConnIndex
	weight int
	hash   uint64 // mids + ways[0..4]
}

func (c *SixStepConnection) GetTo() RoutingNodeIndex {
	return c.to
}

func (c *SixStepConnection) GetMids() [5]RoutingNodeIndex {
	return c.mids
}

func (c *SixStepConnection) GetWays() [6]int64 {
	return c.ways
}

type RoutingNode struct {
	node      da.NodeIndex
	connFroms []ConnIndex
	connTos   []ConnIndex

	twoSteps  []TwoStepConnection
	fourSteps []FourStepConnection
	sixSteps  []SixStepConnection

	outWays []int64
}

func newRoutingNode(node da.NodeIndex) RoutingNode {
	return RoutingNode{node: node}
}

func (rn *RoutingNode) GetNode() da.NodeIndex {
	return rn.node
}

func (rn *RoutingNode) GetConnFroms() []ConnIndex {
	return rn.connFroms
}

func (rn *RoutingNode) GetConnTos() []ConnIndex {
	return rn.connTos
}

func (rn *RoutingNode) GetTwoSteps() []TwoStepConnection {
	return rn.twoSteps
}

func (rn *RoutingNode) GetFourSteps() []FourStepConnection {
	return rn.fourSteps
}

func (rn *RoutingNode) GetSixSteps() []SixStepConnection {
	return rn.sixSteps
}

func (rn *RoutingNode) GetOutWays() []int64 {
	return rn.outWays
}

func (rn *RoutingNode) hasOutWay(wayId int64) bool {
	for _, w := range rn.outWays {
		if w == wayId {
			return true
		}
	}
	return false
}
