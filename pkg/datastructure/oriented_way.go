package datastructure

import "github.com/lintang-b-s/roadmatch/pkg/geo"

/*
OrientedWay. sequence of same-direction segments sharing one signed way id.

	way 100 (two way):
	  +100:  O---s1--->O---s2--->O---s3--->O
	  -100:  O<--s4----O<--s5----O<--s6----O
*/
type OrientedWay struct {
	id       int64
	name     string
	oneWay   bool
	segments []SegIndex
	nodes    []NodeIndex
	bound    Bound
	opposite WayIndex
}

func NewOrientedWay(id int64, name string, oneWay bool, segments []SegIndex, nodes []NodeIndex,
	bound Bound) OrientedWay {
	return OrientedWay{
		id:       id,
		name:     name,
		oneWay:   oneWay,
		segments: segments,
		nodes:    nodes,
		bound:    bound,
		opposite: INVALID_WAY,
	}
}

// GetId. signed way id
func (w *OrientedWay) GetId() int64 {
	return w.id
}

func (w *OrientedWay) IsReverse() bool {
	return w.id < 0
}

func (w *OrientedWay) GetName() string {
	return w.name
}

func (w *OrientedWay) IsOneWay() bool {
	return w.oneWay
}

func (w *OrientedWay) GetSegments() []SegIndex {
	return w.segments
}

func (w *OrientedWay) GetNodes() []NodeIndex {
	return w.nodes
}

func (w *OrientedWay) GetBound() Bound {
	return w.bound
}

// GetOpposite. INVALID_WAY for a one way
func (w *OrientedWay) GetOpposite() WayIndex {
	if w.oneWay {
		return INVALID_WAY
	}
	return w.opposite
}

func (w *OrientedWay) SetOpposite(opposite WayIndex) {
	w.opposite = opposite
}

// FindSegment. position of seg from index from onwards, -1 if absent
func (w *OrientedWay) FindSegment(from int, seg SegIndex) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(w.segments); i++ {
		if w.segments[i] == seg {
			return i
		}
	}
	return -1
}

// Bound. bounding box lat/lon
type Bound struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

func NewEmptyBound() Bound {
	return Bound{MinLat: 90, MinLon: 180, MaxLat: -90, MaxLon: -180}
}

func (b *Bound) Extend(c geo.Coordinate) {
	if c.Lat < b.MinLat {
		b.MinLat = c.Lat
	}
	if c.Lat > b.MaxLat {
		b.MaxLat = c.Lat
	}
	if c.Lon < b.MinLon {
		b.MinLon = c.Lon
	}
	if c.Lon > b.MaxLon {
		b.MaxLon = c.Lon
	}
}

func (b Bound) IsEmpty() bool {
	return b.MinLat > b.MaxLat || b.MinLon > b.MaxLon
}

func (b Bound) Contains(c geo.Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

func (b Bound) Center() geo.Coordinate {
	return geo.NewCoordinate((b.MinLat+b.MaxLat)/2, (b.MinLon+b.MaxLon)/2)
}
