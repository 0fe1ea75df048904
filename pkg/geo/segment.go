package geo

import (
	"math"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/util"
)

const degenerateSegment = 10e-12

// projectionT. projection of p on line (from,to) in the lat/lon plane, t=0 at from and t=1 at to
func projectionT(p, from, to Coordinate) (float64, float64, float64, bool) {
	abx := to.Lon - from.Lon
	aby := to.Lat - from.Lat
	ab2 := abx*abx + aby*aby
	if ab2 <= degenerateSegment {
		return 0, abx, aby, false
	}
	apx := p.Lon - from.Lon
	apy := p.Lat - from.Lat
	return (apx*abx + apy*aby) / ab2, abx, aby, true
}

/*
PointToSegmentDistanceSquare. squared distance (m^2) from p to segment (from,to).

	                  o p
	             o------------------>o
	             from                to
*/
func PointToSegmentDistanceSquare(p, from, to Coordinate) float64 {
	t, abx, aby, ok := projectionT(p, from, to)
	if !ok {
		d := DistanceBetween(from, p)
		return d * d
	}
	t = math.Max(0, math.Min(1, t))

	r1 := (p.Lon - (from.Lon + abx*t)) * pkg.LAT_METERS_PER_DEGREE * math.Cos(util.DegreeToRadians(p.Lat))
	r2 := (p.Lat - (from.Lat + aby*t)) * pkg.LAT_METERS_PER_DEGREE
	return r1*r1 + r2*r2
}

func PointToSegmentDistance(p, from, to Coordinate) float64 {
	return math.Sqrt(PointToSegmentDistanceSquare(p, from, to))
}

// ProjectionDistance. meters from p's projection to from (toSegFrom=true) or to
func ProjectionDistance(p, from, to Coordinate, toSegFrom bool) float64 {
	t, abx, aby, ok := projectionT(p, from, to)
	if !ok {
		return DistanceBetween(from, p)
	}
	if t <= 0 {
		if toSegFrom {
			return 0
		}
		return DistanceBetween(from, to)
	}
	if t >= 1 {
		if toSegFrom {
			return DistanceBetween(from, to)
		}
		return 0
	}

	proj := NewCoordinate(from.Lat+aby*t, from.Lon+abx*t)
	if toSegFrom {
		return DistanceBetween(proj, from)
	}
	return DistanceBetween(proj, to)
}
