package datastructure

import "github.com/lintang-b-s/roadmatch/pkg"

// SegmentRecord. one input segment row (csv or osmparser output)
type SegmentRecord struct {
	SegId       int64
	FromLat     float64
	FromLon     float64
	ToLat       float64
	ToLon       float64
	OneWay      bool
	Length      float64 // meters, <= 0 means computed from coordinates
	WayId       int64
	WaySubSeq   int16 // negative for the backward direction of a two way road
	SplitSeq    int16
	FromNodeId  int64 // 0 means synthetic node
	ToNodeId    int64
	HighwayType pkg.HighwayType
	WayName     string
	StructType  pkg.StructType
	Layer       int8
	Tags        map[string]string
}

/*
GenerateSplitSegToNodeID. "to" node id of a split segment.

	   sub=-1    sub=-2                        sub=-3
	             split=-1  split=-2  split=-3
	O<---------O<---------o<--------o<--------O<--------O
	O--------->O--------->o-------->o-------->O-------->O
	             split=1   split=2   split=3
	   sub=1     sub=2                         sub=3
*/
func GenerateSplitSegToNodeID(wayId int64, subSeq, splitSeq int) int64 {
	if subSeq < 0 {
		subSeq = -subSeq
	}
	if splitSeq < 0 {
		splitSeq = -splitSeq - 1
	}
	return wayId<<24 | int64(uint32(subSeq)<<8|uint32(uint8(splitSeq)))
}

// GenerateSplitSegFromNodeID. "from" node id of a split segment
func GenerateSplitSegFromNodeID(wayId int64, subSeq, splitSeq int) int64 {
	if subSeq < 0 {
		subSeq = -subSeq
	}
	if splitSeq < 0 {
		splitSeq = -splitSeq
	} else {
		splitSeq--
	}
	return wayId<<24 | int64(uint32(subSeq)<<8|uint32(uint8(splitSeq)))
}
