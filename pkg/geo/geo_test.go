package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	center = NewCoordinate(-7.76, 110.37)
	north  = NewCoordinate(-7.75, 110.37)
	east   = NewCoordinate(-7.76, 110.38)
)

func TestDistanceBetween(t *testing.T) {
	testCases := []struct {
		name  string
		a, b  Coordinate
		want  float64
		delta float64
	}{
		{name: "same point", a: center, b: center, want: 0, delta: 1e-9},
		{name: "0.01 degree north", a: center, b: north, want: 1111.95, delta: 0.5},
		{name: "0.01 degree east", a: center, b: east, want: 1101.9, delta: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, DistanceBetween(tc.a, tc.b), tc.delta)
			assert.InDelta(t, DistanceBetween(tc.a, tc.b), DistanceBetween(tc.b, tc.a), 1e-9)
		})
	}
}

func TestHeadingInDegree(t *testing.T) {
	testCases := []struct {
		name     string
		from, to Coordinate
		want     float64
	}{
		{name: "north", from: center, to: north, want: 0},
		{name: "east", from: center, to: east, want: 90},
		{name: "south", from: north, to: center, want: 180},
		{name: "west", from: east, to: center, want: 270},
		{name: "north east", from: center, to: NewCoordinate(-7.75, 110.38), want: 45},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, HeadingInDegree(tc.from, tc.to), 1e-6)
		})
	}
	assert.Less(t, HeadingInDegree(center, center), 0.0)
}

func TestAngles(t *testing.T) {
	testCases := []struct {
		name      string
		h1, h2    int
		tolerance int
		wantAngle int
		wantSame  bool
	}{
		{name: "equal", h1: 90, h2: 90, tolerance: 0, wantAngle: 0, wantSame: true},
		{name: "across north", h1: 350, h2: 10, tolerance: 30, wantAngle: 20, wantSame: true},
		{name: "outside tolerance", h1: 0, h2: 45, tolerance: 30, wantAngle: 45, wantSame: false},
		{name: "opposite", h1: 90, h2: 270, tolerance: 90, wantAngle: 180, wantSame: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantAngle, GetAngle(tc.h1, tc.h2))
			assert.Equal(t, tc.wantSame, InSameDirection(tc.h1, tc.h2, tc.tolerance))
		})
	}
}

func TestPointToSegment(t *testing.T) {
	mid := MidPoint(center, east)
	above := NewCoordinate(mid.Lat+0.0001, mid.Lon)

	testCases := []struct {
		name         string
		p            Coordinate
		wantDist     float64
		wantFromDist float64
	}{
		{name: "on segment", p: mid, wantDist: 0, wantFromDist: DistanceBetween(center, mid)},
		{name: "perpendicular", p: above, wantDist: 11.12, wantFromDist: DistanceBetween(center, mid)},
		{name: "before from", p: NewCoordinate(-7.76, 110.369), wantDist: DistanceBetween(center, NewCoordinate(-7.76, 110.369)), wantFromDist: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.wantDist, PointToSegmentDistance(tc.p, center, east), 0.5)
			assert.InDelta(t, tc.wantFromDist, ProjectionDistance(tc.p, center, east, true), 0.5)
			assert.InDelta(t, DistanceBetween(center, east)-tc.wantFromDist,
				ProjectionDistance(tc.p, center, east, false), 0.5)
		})
	}

	snapped := ProjectPointToLineCoord(center, east, above)
	assert.Less(t, DistanceBetween(snapped, mid), 0.5)
}

func TestPolyline(t *testing.T) {
	coords := []Coordinate{center, north, east}
	got, err := DecodePolyline(PolylineFromCoords(coords))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if assert.Len(t, got, len(coords)) {
		for i := range coords {
			assert.InDelta(t, coords[i].Lat, got[i].Lat, 1e-5)
			assert.InDelta(t, coords[i].Lon, got[i].Lon, 1e-5)
		}
	}

	_, err = DecodePolyline("\x00")
	assert.Error(t, err)
}

func TestSpanToZoomLevel(t *testing.T) {
	for _, side := range []float64{100, 200, 400} {
		zoom := SpanToZoomLevel(side, center.Lat)
		assert.InDelta(t, side, averageTileSpan(center.Lat, center.Lon, zoom), 1)
	}
	assert.Greater(t, SpanToZoomLevel(100, center.Lat), SpanToZoomLevel(400, center.Lat))

	x, y := Long2TileX(center.Lon, 16), Lat2TileY(center.Lat, 16)
	assert.LessOrEqual(t, TileX2Long(x, 16), center.Lon)
	assert.Greater(t, TileX2Long(x+1, 16), center.Lon)
	assert.GreaterOrEqual(t, TileY2Lat(y, 16), center.Lat)
	assert.Less(t, TileY2Lat(y+1, 16), center.Lat)
}
