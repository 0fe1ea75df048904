package engine

import (
	"math"
	"time"

	"github.com/lintang-b-s/roadmatch/pkg"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/engine/mapmatcher"
	"github.com/lintang-b-s/roadmatch/pkg/engine/routing"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/spatialindex"
	"github.com/lintang-b-s/roadmatch/pkg/util"
)

type ViaPoint struct {
	Coord   geo.Coordinate
	Heading int
}

func NewViaPoint(lat, lon float64, heading int) ViaPoint {
	return ViaPoint{Coord: geo.NewCoordinate(lat, lon), Heading: heading}
}

type ViaRouteParams struct {
	ViaPoints []ViaPoint

	Radius         float64
	AngleTolerance int

	// when set, via points are not assigned to closed segments and the route avoids them
	Time       exclusion.TimePoint
	CheckNoGps bool

	CalcUsedTime bool
}

func NewViaRouteParams(vps []ViaPoint) ViaRouteParams {
	return ViaRouteParams{
		ViaPoints:      vps,
		Radius:         mapmatcher.DEFAULT_RADIUS,
		AngleTolerance: mapmatcher.DEFAULT_ANGLE_TOLERANCE,
		CheckNoGps:     true,
	}
}

type ViaRouteResult struct {
	Route       []da.SegIndex
	UsedTime    time.Duration
	SearchSteps int
}

func (r *ViaRouteResult) GetRoute() []da.SegIndex {
	return r.Route
}

// ViaRoute. route through all via points in order
func (e *Engine) ViaRoute(params ViaRouteParams) (*ViaRouteResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.viaRoute(params)
}

/*
viaRoute. caller holds the lock.

 1. assign every via point to one segment, failing if any gets none
 2. route each consecutive pair. a direct distance < 1200m tries RoutingNearby first, otherwise dijkstra.
    two points on the same segment are measured by their projections, and a second point more than 10m
    behind the first means the route has to loop around.
 3. join the sections, dropping each section's first segment (the previous section's last)
*/
func (e *Engine) viaRoute(params ViaRouteParams) (*ViaRouteResult, error) {
	res := &ViaRouteResult{}
	if params.CalcUsedTime {
		start := time.Now()
		defer func() {
			res.UsedTime = time.Since(start)
		}()
	}

	if len(params.ViaPoints) < 2 {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "via route: too few points (%d)", len(params.ViaPoints))
	}
	if e.routeManager == nil {
		return nil, util.WrapErrorf(ErrRoutingNotReady, util.ErrInternalServerError, "via route")
	}

	viaSegs := make([]da.SegIndex, 0, len(params.ViaPoints))
	for _, vp := range params.ViaPoints {
		ap := spatialindex.NewSegAssignParams(vp.Heading, params.Radius, params.AngleTolerance)
		ap.CheckNoGps = params.CheckNoGps
		ap.Time = params.Time
		ar, ok := e.index.AssignSegment(vp.Coord, ap)
		if !ok {
			return nil, util.WrapErrorf(ErrViaPointAssignment, util.ErrNotFound,
				"point assignment failed. Point: (%.6f, %.6f), heading = %d", vp.Coord.Lat, vp.Coord.Lon, vp.Heading)
		}
		viaSegs = append(viaSegs, ar.Seg)
	}

	rm := e.routeManager
	res.Route = make([]da.SegIndex, 0, 16*len(viaSegs))
	for i := 0; i+1 < len(viaSegs); i++ {
		seg1, seg2 := viaSegs[i], viaSegs[i+1]
		p1, p2 := params.ViaPoints[i].Coord, params.ViaPoints[i+1].Coord

		var direct float64
		pointsReversed := false
		if seg1 == seg2 {
			s := e.store.GetSegment(seg1)
			d1 := geo.ProjectionDistance(p1, s.GetFrom(), s.GetTo(), true)
			d2 := geo.ProjectionDistance(p2, s.GetFrom(), s.GetTo(), true)
			direct = math.Abs(d1 - d2)
			pointsReversed = d1 > d2+pkg.VIA_ROUTE_REVERSED_PROJECTION_M
		} else {
			direct = geo.DistanceBetween(p1, p2)
		}

		var (
			section []da.SegIndex
			ok      bool
		)
		if direct < pkg.VIA_ROUTE_NEARBY_DISTANCE {
			section, ok = rm.RoutingNearby(seg1, seg2, false, params.Time, pointsReversed)
		}
		if !ok {
			var stats routing.SearchStats
			section, stats, ok = rm.DijkstraShortestPath(seg1, seg2, params.Time, pointsReversed)
			res.SearchSteps += stats.Steps
		}
		if !ok {
			return nil, util.WrapErrorf(ErrRouteNotFound, util.ErrNotFound,
				"failed to find route from (%.6f, %.6f), segment %d to (%.6f, %.6f), segment %d",
				p1.Lat, p1.Lon, e.store.GetSegment(seg1).GetId(), p2.Lat, p2.Lon, e.store.GetSegment(seg2).GetId())
		}

		if i > 0 && len(section) > 0 {
			section = section[1:]
		}
		res.Route = append(res.Route, section...)
	}
	return res, nil
}
