package geo

import (
	"github.com/golang/geo/s2"
	polyline "github.com/twpayne/go-polyline"
)

// ProjectPointToLineCoord. snaps onto the great-circle segment (pointA,pointB), always within it
func ProjectPointToLineCoord(pointA Coordinate, pointB Coordinate,
	snap Coordinate) Coordinate {
	pointAS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointA.Lat, pointA.Lon))
	pointBS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointB.Lat, pointB.Lon))
	if pointAS2.ApproxEqual(pointBS2) {
		return pointA
	}
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snap.Lat, snap.Lon))
	projection := s2.Project(snapS2, pointAS2, pointBS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return NewCoordinate(projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees())
}

// PolylineFromCoords. google encoded polyline (precision 5)
func PolylineFromCoords(coords []Coordinate) string {
	s := make([][]float64, 0, len(coords))
	for _, c := range coords {
		s = append(s, []float64{c.Lat, c.Lon})
	}
	return string(polyline.EncodeCoords(s))
}

func DecodePolyline(encoded string) ([]Coordinate, error) {
	s, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	coords := make([]Coordinate, 0, len(s))
	for _, c := range s {
		coords = append(coords, NewCoordinate(c[0], c[1]))
	}
	return coords, nil
}
