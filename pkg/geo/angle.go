package geo

import (
	"math"

	"github.com/lintang-b-s/roadmatch/pkg/util"
)

/*
HeadingInDegree. clockwise angle from north between vector (from->to) in the raw lat/lon plane
and the north vector (0,1), used for segment headings.
identical points yield -1e-8.
*/
func HeadingInDegree(from, to Coordinate) float64 {
	if from.Lat == to.Lat && from.Lon == to.Lon {
		return -0.00000001
	}

	x1 := to.Lon - from.Lon
	y1 := to.Lat - from.Lat
	cosValue := y1 / math.Sqrt(x1*x1+y1*y1)
	cosValue = math.Max(-1, math.Min(1, cosValue))
	delta := util.RadiansToDegree(math.Acos(cosValue))

	if x1 > 0 {
		return delta
	}
	heading := 360.0 - delta
	if heading >= 360.0 {
		heading -= 360.0
	}
	return heading
}

// GetAngle. smallest difference between two headings, [0, 180]
func GetAngle(h1, h2 int) int {
	diff := util.Abs(h1 - h2)
	diff %= 360
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

// InSameDirection. heading2 is within tolerance of heading1
func InSameDirection(heading1, heading2, tolerance int) bool {
	diff := heading2 + 360 - heading1
	diff %= 360
	if diff < 0 {
		diff += 360
	}
	return diff <= tolerance || diff >= 360-tolerance
}

