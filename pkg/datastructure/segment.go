package datastructure

import (
	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
)

/*
Segment. directed piece of road between two nodes.
a negative id marks a synthetic reverse of a one way road.

	 from                  to
	  O------------------->O
	  fromNode   heading   toNode
*/
type Segment struct {
	id         int64
	wayId      int64
	subSeq     int16
	splitSeq   int16
	fromNodeId int64
	toNodeId   int64
	from       geo.Coordinate
	to         geo.Coordinate
	length     float64
	heading    int

	highwayType pkg.HighwayType
	oneWay      bool
	structType  pkg.StructType
	layer       int8
	wayName     string
	tags        map[string]string

	excluded       bool
	excludedAlways bool
	excludedNoGps  bool

	fromNode NodeIndex
	toNode   NodeIndex
	way      WayIndex
}

// NewSegment. a node id 0 in the record is replaced by a synthetic (negative) id from (way, sub, split),
// so adjacent split pieces share the same node.
func NewSegment(rec SegmentRecord) Segment {
	seg := Segment{
		id:          rec.SegId,
		wayId:       rec.WayId,
		subSeq:      rec.WaySubSeq,
		splitSeq:    rec.SplitSeq,
		fromNodeId:  rec.FromNodeId,
		toNodeId:    rec.ToNodeId,
		from:        geo.NewCoordinate(rec.FromLat, rec.FromLon),
		to:          geo.NewCoordinate(rec.ToLat, rec.ToLon),
		length:      rec.Length,
		highwayType: rec.HighwayType,
		oneWay:      rec.OneWay,
		structType:  rec.StructType,
		layer:       rec.Layer,
		wayName:     rec.WayName,
		tags:        rec.Tags,
		fromNode:    INVALID_NODE,
		toNode:      INVALID_NODE,
		way:         INVALID_WAY,
	}
	if seg.fromNodeId == 0 {
		seg.fromNodeId = -GenerateSplitSegFromNodeID(seg.wayId, int(seg.subSeq), int(seg.splitSeq))
	}
	if seg.toNodeId == 0 {
		seg.toNodeId = -GenerateSplitSegToNodeID(seg.wayId, int(seg.subSeq), int(seg.splitSeq))
	}
	if seg.length <= 0 {
		seg.length = geo.DistanceBetween(seg.from, seg.to)
	}
	seg.heading = int(geo.HeadingInDegree(seg.from, seg.to))
	return seg
}

// NewReversedSegment. synthetic reverse, id -id, nodes and points swapped, two way
func NewReversedSegment(s *Segment) Segment {
	rev := *s
	rev.id = -s.id
	rev.fromNodeId, rev.toNodeId = s.toNodeId, s.fromNodeId
	rev.from, rev.to = s.to, s.from
	rev.fromNode, rev.toNode = s.toNode, s.fromNode
	rev.oneWay = false
	rev.way = INVALID_WAY
	rev.heading = int(geo.HeadingInDegree(rev.from, rev.to))
	return rev
}

func (s *Segment) GetId() int64 {
	return s.id
}

func (s *Segment) GetWayId() int64 {
	return s.wayId
}

// GetOrientedWayId. -way for a synthetic reverse, +way for one way or forward sub sequence, -way otherwise
func (s *Segment) GetOrientedWayId() int64 {
	if s.id < 0 {
		return -s.wayId
	}
	if s.oneWay || s.subSeq > 0 {
		return s.wayId
	}
	return -s.wayId
}

func (s *Segment) GetSubSeq() int16 {
	return s.subSeq
}

func (s *Segment) GetSplitSeq() int16 {
	return s.splitSeq
}

func (s *Segment) GetFromNodeId() int64 {
	return s.fromNodeId
}

func (s *Segment) GetToNodeId() int64 {
	return s.toNodeId
}

func (s *Segment) GetFrom() geo.Coordinate {
	return s.from
}

func (s *Segment) GetTo() geo.Coordinate {
	return s.to
}

func (s *Segment) GetMidPoint() geo.Coordinate {
	return geo.MidPoint(s.from, s.to)
}

// GetLength. meters
func (s *Segment) GetLength() float64 {
	return s.length
}

func (s *Segment) GetHeading() int {
	return s.heading
}

func (s *Segment) GetHighwayType() pkg.HighwayType {
	return s.highwayType
}

func (s *Segment) IsOneWay() bool {
	return s.oneWay
}

func (s *Segment) SetOneWay(oneWay bool) {
	s.oneWay = oneWay
}

func (s *Segment) GetStructType() pkg.StructType {
	return s.structType
}

func (s *Segment) IsBridge() bool {
	return s.structType == pkg.STRUCT_BRIDGE
}

func (s *Segment) IsTunnel() bool {
	return s.structType == pkg.STRUCT_TUNNEL
}

func (s *Segment) GetLayer() int8 {
	return s.layer
}

func (s *Segment) GetWayName() string {
	return s.wayName
}

func (s *Segment) GetTags() map[string]string {
	return s.tags
}

func (s *Segment) GetTag(key string) (string, bool) {
	if s.tags == nil {
		return "", false
	}
	v, ok := s.tags[key]
	return v, ok
}

// IsReverse. synthetic reverse segment
func (s *Segment) IsReverse() bool {
	return s.id < 0
}

func (s *Segment) IsExcluded() bool {
	return s.excluded
}

func (s *Segment) IsExcludedAlways() bool {
	return s.excludedAlways
}

func (s *Segment) IsExcludedNoGps() bool {
	return s.excludedNoGps
}

func (s *Segment) SetExclusion(excluded, always, noGps bool) {
	s.excluded = excluded
	s.excludedAlways = always
	s.excludedNoGps = noGps
}

func (s *Segment) GetFromNode() NodeIndex {
	return s.fromNode
}

func (s *Segment) GetToNode() NodeIndex {
	return s.toNode
}

func (s *Segment) SetNodes(from, to NodeIndex) {
	s.fromNode = from
	s.toNode = to
}

func (s *Segment) GetWay() WayIndex {
	return s.way
}

func (s *Segment) SetWay(way WayIndex) {
	s.way = way
}

// DistanceSquareMeters. squared point to segment distance (m^2)
func (s *Segment) DistanceSquareMeters(p geo.Coordinate) float64 {
	return geo.PointToSegmentDistanceSquare(p, s.from, s.to)
}

func (s *Segment) ToRecord() SegmentRecord {
	return SegmentRecord{
		SegId:       s.id,
		FromLat:     s.from.Lat,
		FromLon:     s.from.Lon,
		ToLat:       s.to.Lat,
		ToLon:       s.to.Lon,
		OneWay:      s.oneWay,
		Length:      s.length,
		WayId:       s.wayId,
		WaySubSeq:   s.subSeq,
		SplitSeq:    s.splitSeq,
		FromNodeId:  s.fromNodeId,
		ToNodeId:    s.toNodeId,
		HighwayType: s.highwayType,
		WayName:     s.wayName,
		StructType:  s.structType,
		Layer:       s.layer,
		Tags:        s.tags,
	}
}
