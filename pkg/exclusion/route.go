package exclusion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/util"
)

const (
	routeCsvFields  = 18
	maxRouteViaPts  = 4
	routeViaPtStart = 6
)

type RouteViaPoint struct {
	Coord   geo.Coordinate
	Heading int
}

// ExcludedRoute. one exclusion route csv row, resolved to segments by via route
type ExcludedRoute struct {
	Description string
	Type        pkg.ExclusionType
	TimeType    pkg.TimeType
	TimeFrom    int64
	TimeTo      int64
	BiDir       bool
	ViaPoints   []RouteViaPoint
}

// ToSetting. DAILY_TIME_RANGE requires local time
func (r ExcludedRoute) ToSetting() (Setting, error) {
	switch r.Type {
	case pkg.EXTYPE_NONE, pkg.EXTYPE_ALWAYS, pkg.EXTYPE_NO_GPS:
		return Setting{Type: r.Type}, nil
	case pkg.EXTYPE_DAILY_TIME_RANGE:
		if r.TimeType != pkg.TIME_TYPE_LOCAL {
			return Setting{}, util.WrapErrorf(nil, util.ErrBadParamInput,
				"[%s] daily time range exclusion must use local time", r.Description)
		}
		return NewSetting(r.Type, r.TimeFrom, r.TimeTo), nil
	case pkg.EXTYPE_DATETIME_RANGE:
		return NewSetting(r.Type, r.TimeFrom, r.TimeTo), nil
	default:
		return Setting{}, util.WrapErrorf(nil, util.ErrBadParamInput,
			"[%s] invalid exclusion type %d", r.Description, r.Type)
	}
}

// ReversedViaPoints. via points in reverse order with heading +180
func (r ExcludedRoute) ReversedViaPoints() []RouteViaPoint {
	rev := make([]RouteViaPoint, 0, len(r.ViaPoints))
	for i := len(r.ViaPoints) - 1; i >= 0; i-- {
		vp := r.ViaPoints[i]
		vp.Heading = (vp.Heading + 180) % 360
		rev = append(rev, vp)
	}
	return rev
}

// LoadExclusionRoutesFromCsv. rows with an invalid exclusion type are skipped,
// their errors are joined and returned with the valid routes.
func LoadExclusionRoutesFromCsv(path string) ([]ExcludedRoute, error) {
	f, err := util.OpenFile(path)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "open exclusion routes %s", path)
	}
	defer f.Close()
	return ReadExclusionRoutes(f)
}

func ReadExclusionRoutes(rd io.Reader) ([]ExcludedRoute, error) {
	r := csv.NewReader(rd)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	routes := make([]ExcludedRoute, 0)
	var rowErrs []error
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "read exclusion routes")
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "description") {
			continue
		}

		route, skip, err := parseExcludedRoute(record)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if skip {
			continue
		}
		routes = append(routes, route)
	}

	if len(rowErrs) > 0 {
		return routes, util.WrapErrorf(errors.Join(rowErrs...), util.ErrBadParamInput, "invalid exclusion routes")
	}
	return routes, nil
}

func parseExcludedRoute(record []string) (ExcludedRoute, bool, error) {
	if len(record) < routeCsvFields {
		return ExcludedRoute{}, false, fmt.Errorf("expected %d fields, got %d", routeCsvFields, len(record))
	}

	exType, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return ExcludedRoute{}, false, fmt.Errorf("exclusion type: %w", err)
	}
	if exType < 0 || exType > int(pkg.EXTYPE_MAX_VALID) {
		return ExcludedRoute{}, false, fmt.Errorf("invalid exclusion type %d", exType)
	}
	if pkg.ExclusionType(exType) == pkg.EXTYPE_NONE {
		return ExcludedRoute{}, true, nil
	}

	timeType, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return ExcludedRoute{}, false, fmt.Errorf("time point type: %w", err)
	}
	biDir, err := strconv.Atoi(strings.TrimSpace(record[5]))
	if err != nil {
		return ExcludedRoute{}, false, fmt.Errorf("bi_dir: %w", err)
	}

	route := ExcludedRoute{
		Description: strings.TrimSpace(record[0]),
		Type:        pkg.ExclusionType(exType),
		TimeType:    pkg.TimeType(timeType),
		BiDir:       biDir != 0,
		ViaPoints:   make([]RouteViaPoint, 0, maxRouteViaPts),
	}

	if route.Type != pkg.EXTYPE_ALWAYS && route.Type != pkg.EXTYPE_NO_GPS {
		if route.TimeFrom, err = ParseTime(strings.TrimSpace(record[3])); err != nil {
			return ExcludedRoute{}, false, fmt.Errorf("time_from: %w", err)
		}
		if route.TimeTo, err = ParseTime(strings.TrimSpace(record[4])); err != nil {
			return ExcludedRoute{}, false, fmt.Errorf("time_to: %w", err)
		}
	}

	for i := 0; i < maxRouteViaPts; i++ {
		base := routeViaPtStart + i*3
		lat, errLat := util.StringToFloat64(record[base])
		lon, errLon := util.StringToFloat64(record[base+1])
		heading, errHeading := strconv.Atoi(strings.TrimSpace(record[base+2]))
		if errLat != nil || errLon != nil || errHeading != nil {
			continue
		}
		if lat == 0 || lon == 0 || heading < 0 || heading >= 360 {
			continue
		}
		route.ViaPoints = append(route.ViaPoints, RouteViaPoint{
			Coord:   geo.NewCoordinate(lat, lon),
			Heading: heading,
		})
	}

	return route, false, nil
}
