package geo

import (
	"math"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/util"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

const (
	earthRadiusKM = 6371.0
)

// DistanceInMeter. haversine distance in meters with earth radius pkg.R_EARTH_METERS
func DistanceInMeter(latOne, longOne, latTwo, longTwo float64) float64 {
	radLatOne := util.DegreeToRadians(latOne)
	radLatTwo := util.DegreeToRadians(latTwo)
	a := radLatOne - radLatTwo
	b := util.DegreeToRadians(longOne) - util.DegreeToRadians(longTwo)
	sinA := math.Sin(a / 2)
	sinB := math.Sin(b / 2)
	s := 2 * math.Asin(math.Sqrt(sinA*sinA+math.Cos(radLatOne)*math.Cos(radLatTwo)*sinB*sinB))
	return s * pkg.R_EARTH_METERS
}

func DistanceBetween(a, b Coordinate) float64 {
	return DistanceInMeter(a.Lat, a.Lon, b.Lat, b.Lon)
}

// DistanceInMeterSameLat. distance between two points on the same latitude
func DistanceInMeterSameLat(lat, lonOne, lonTwo float64) float64 {
	r := (pkg.R_EARTH_METERS * math.Pi / 180) * math.Cos(util.DegreeToRadians(lat)) * (lonTwo - lonOne)
	return math.Abs(r)
}

func radToDeg(r float64) float64 {
	return 180.0 * r / math.Pi
}

// GetDestinationPoint returns the destination point given the starting point, bearing and distance
// dist in km
func GetDestinationPoint(lat1, lon1 float64, bearing float64, dist float64) (float64, float64) {

	dr := dist / earthRadiusKM

	bearing = util.DegreeToRadians(bearing)

	lat1 = util.DegreeToRadians(lat1)
	lon1 = util.DegreeToRadians(lon1)

	lat2Part1 := math.Sin(lat1) * math.Cos(dr)
	lat2Part2 := math.Cos(lat1) * math.Sin(dr) * math.Cos(bearing)

	lat2 := math.Asin(lat2Part1 + lat2Part2)

	lon2Part1 := math.Sin(bearing) * math.Sin(dr) * math.Cos(lat1)
	lon2Part2 := math.Cos(dr) - (math.Sin(lat1) * math.Sin(lat2))

	lon2 := lon1 + math.Atan2(lon2Part1, lon2Part2)

	return radToDeg(lat2), normalizeLongitude(radToDeg(lon2))
}

// MidPoint. planar midpoint (averaged lat/lon), fine for short road segments
func MidPoint(a, b Coordinate) Coordinate {
	return NewCoordinate((a.Lat+b.Lat)/2, (a.Lon+b.Lon)/2)
}

// normalizeLongitude. long in degree
func normalizeLongitude(long float64) float64 {
	return math.Mod((long+540), 360) - 180.0
}
