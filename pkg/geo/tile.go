package geo

import (
	"math"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/util"
)

// slippy map tile math with fractional zoom, https://wiki.openstreetmap.org/wiki/Slippy_map_tilenames

func Long2TileX(lon, zoom float64) int {
	return int(math.Floor((lon + 180.0) / 360.0 * math.Pow(2.0, zoom)))
}

func Lat2TileY(lat, zoom float64) int {
	latRad := util.DegreeToRadians(lat)
	return int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * math.Pow(2.0, zoom)))
}

func TileX2Long(x int, zoom float64) float64 {
	return float64(x)/math.Pow(2.0, zoom)*360.0 - 180
}

func TileY2Lat(y int, zoom float64) float64 {
	n := math.Pi - 2.0*math.Pi*float64(y)/math.Pow(2.0, zoom)
	return radToDeg(math.Atan(0.5 * (math.Exp(n) - math.Exp(-n))))
}

func averageTileSpan(lat, lon, zoom float64) float64 {
	x := Long2TileX(lon, zoom)
	return DistanceInMeterSameLat(lat, TileX2Long(x, zoom), TileX2Long(x+1, zoom))
}

// SpanToZoomLevel. fractional zoom whose tile is sideMeters wide at latitude lat, bisection over [14, 24]
func SpanToZoomLevel(sideMeters, lat float64) float64 {
	const lon = 110.0 // tile width does not depend on longitude
	a, b := pkg.MIN_TILE_ZOOM, pkg.MAX_TILE_ZOOM
	fa := averageTileSpan(lat, lon, a) - sideMeters
	fb := averageTileSpan(lat, lon, b) - sideMeters

	for i := 0; i < 100 && math.Abs(fa-fb) > 0.0000001; i++ {
		m := (a + b) / 2.0
		fm := averageTileSpan(lat, lon, m) - sideMeters
		if fm*fa < 0 {
			b = m
			fb = fm
		} else {
			a = m
			fa = fm
		}
	}
	return (a + b) / 2.0
}
