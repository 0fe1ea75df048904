// Package graphtest provides a small synthetic road network for other packages' tests.
package graphtest

import (
	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
)

type Point struct {
	Id  int64
	Lat float64
	Lon float64
}

func (p Point) Coordinate() geo.Coordinate {
	return geo.NewCoordinate(p.Lat, p.Lon)
}

type Way struct {
	Id     int64
	Name   string
	Type   pkg.HighwayType
	OneWay bool
	Struct pkg.StructType
	Layer  int8
	Tags   map[string]string
	Nodes  []Point
}

// WayRecords. one record per consecutive node pair. two way roads also get backward records
// with negative sub sequence. segment id is way*1000 + sub forward, way*1000 + 500 + sub backward.
func WayRecords(w Way) []datastructure.SegmentRecord {
	records := make([]datastructure.SegmentRecord, 0, 2*len(w.Nodes))
	for i := 0; i+1 < len(w.Nodes); i++ {
		a, b := w.Nodes[i], w.Nodes[i+1]
		records = append(records, datastructure.SegmentRecord{
			SegId: w.Id*1000 + int64(i+1), FromLat: a.Lat, FromLon: a.Lon, ToLat: b.Lat, ToLon: b.Lon,
			OneWay: w.OneWay, WayId: w.Id, WaySubSeq: int16(i + 1), FromNodeId: a.Id, ToNodeId: b.Id,
			HighwayType: w.Type, WayName: w.Name, StructType: w.Struct, Layer: w.Layer, Tags: w.Tags,
		})
		if w.OneWay {
			continue
		}
		records = append(records, datastructure.SegmentRecord{
			SegId: w.Id*1000 + 500 + int64(i+1), FromLat: b.Lat, FromLon: b.Lon, ToLat: a.Lat, ToLon: a.Lon,
			WayId: w.Id, WaySubSeq: -int16(i + 1), FromNodeId: b.Id, ToNodeId: a.Id,
			HighwayType: w.Type, WayName: w.Name, StructType: w.Struct, Layer: w.Layer, Tags: w.Tags,
		})
	}
	return records
}

const (
	BaseLat = -7.76
	BaseLon = 110.37
	Step    = 0.002

	ShapeNodeId   = 100
	DeadEndNodeId = 41
)

// GridNode. junction at row r (south to north) and column c (west to east), ids 1..9
func GridNode(r, c int) Point {
	return Point{Id: int64(1 + r*3 + c), Lat: BaseLat + float64(r)*Step, Lon: BaseLon + float64(c)*Step}
}

// Ways.
//
//	row 2   7 ===== 8 ===== 9 --- 41     way 12 (primary), way 40 dead end
//	        |       |       ^
//	row 1   4 ===== 5 ===== 6            way 11
//	        |       |       ^            columns: way 20, 21 two way, way 22 one way north
//	row 0   1 = 100 = 2 ===== 3          way 10 with shape node 100
//
//	apart: way 30 (one way north) and way 31 (one way south) side by side, same name.
func Ways() []Way {
	shape := Point{Id: ShapeNodeId, Lat: BaseLat, Lon: BaseLon + Step/2}
	deadEnd := Point{Id: DeadEndNodeId, Lat: BaseLat + 2*Step, Lon: BaseLon + 2.5*Step}
	return []Way{
		{Id: 10, Name: "Jalan Kaliurang", Type: pkg.HIGHWAY_SECONDARY,
			Nodes: []Point{GridNode(0, 0), shape, GridNode(0, 1), GridNode(0, 2)}},
		{Id: 11, Name: "Jalan Magelang", Type: pkg.HIGHWAY_TERTIARY,
			Nodes: []Point{GridNode(1, 0), GridNode(1, 1), GridNode(1, 2)}},
		{Id: 12, Name: "Jalan Solo", Type: pkg.HIGHWAY_PRIMARY,
			Nodes: []Point{GridNode(2, 0), GridNode(2, 1), GridNode(2, 2)}},
		{Id: 20, Name: "Jalan Gejayan", Type: pkg.HIGHWAY_RESIDENTIAL,
			Nodes: []Point{GridNode(0, 0), GridNode(1, 0), GridNode(2, 0)}},
		{Id: 21, Name: "Jalan Colombo", Type: pkg.HIGHWAY_RESIDENTIAL,
			Nodes: []Point{GridNode(0, 1), GridNode(1, 1), GridNode(2, 1)}},
		{Id: 22, Name: "Jalan Affandi", Type: pkg.HIGHWAY_RESIDENTIAL, OneWay: true,
			Nodes: []Point{GridNode(0, 2), GridNode(1, 2), GridNode(2, 2)}},
		{Id: 40, Name: "Jalan Buntu", Type: pkg.HIGHWAY_RESIDENTIAL,
			Nodes: []Point{GridNode(2, 2), deadEnd}},
		{Id: 30, Name: "Jalan Kembar", Type: pkg.HIGHWAY_PRIMARY, OneWay: true,
			Nodes: []Point{{Id: 51, Lat: BaseLat, Lon: BaseLon + 0.01}, {Id: 52, Lat: BaseLat + Step, Lon: BaseLon + 0.01}}},
		{Id: 31, Name: "Jalan Kembar", Type: pkg.HIGHWAY_PRIMARY, OneWay: true,
			Nodes: []Point{{Id: 53, Lat: BaseLat + Step, Lon: BaseLon + 0.00985}, {Id: 54, Lat: BaseLat, Lon: BaseLon + 0.00985}}},
	}
}

func Records() []datastructure.SegmentRecord {
	records := make([]datastructure.SegmentRecord, 0, 64)
	for _, w := range Ways() {
		records = append(records, WayRecords(w)...)
	}
	return records
}

// SegId. id of the sub-th forward segment of way (or backward)
func SegId(wayId int64, sub int, backward bool) int64 {
	if backward {
		return wayId*1000 + 500 + int64(sub)
	}
	return wayId*1000 + int64(sub)
}
