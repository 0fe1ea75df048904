package engine

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/roadmatch/pkg"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"go.uber.org/zap"
)

// SetExclusionSegs. applies setting to all segs. Pass syncRouting false while more updates follow,
// then call SyncExclusionSegsToRouting once at the end.
func (e *Engine) SetExclusionSegs(segs []da.SegIndex, setting exclusion.Setting, syncRouting bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return util.WrapErrorf(ErrNotLoaded, util.ErrInternalServerError, "set exclusion")
	}
	e.setExclusionSegs(segs, setting)
	if syncRouting {
		e.syncExclusionSegs()
	}
	return nil
}

// SetExclusionSegIds. SetExclusionSegs by segment id. nothing is applied if any id is unknown.
func (e *Engine) SetExclusionSegIds(ids []int64, setting exclusion.Setting, syncRouting bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	segs, err := e.segsByIds(ids)
	if err != nil {
		return err
	}
	e.setExclusionSegs(segs, setting)
	if syncRouting {
		e.syncExclusionSegs()
	}
	return nil
}

func (e *Engine) ClearExclusionSegs(segs []da.SegIndex, syncRouting bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return util.WrapErrorf(ErrNotLoaded, util.ErrInternalServerError, "clear exclusion")
	}
	for _, s := range segs {
		e.registry.Clear(e.store.GetSegment(s))
	}
	if syncRouting {
		e.syncExclusionSegs()
	}
	return nil
}

func (e *Engine) ClearExclusionSegIds(ids []int64, syncRouting bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	segs, err := e.segsByIds(ids)
	if err != nil {
		return err
	}
	for _, s := range segs {
		e.registry.Clear(e.store.GetSegment(s))
	}
	if syncRouting {
		e.syncExclusionSegs()
	}
	return nil
}

// ClearAllExclusions. drops every installed exclusion
func (e *Engine) ClearAllExclusions(syncRouting bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return
	}
	for _, id := range e.registry.SegmentIds() {
		if s, ok := e.store.GetSegById(id); ok {
			e.registry.Clear(e.store.GetSegment(s))
		}
	}
	if syncRouting {
		e.syncExclusionSegs()
	}
}

func (e *Engine) SyncExclusionSegsToRouting() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.syncExclusionSegs()
}

// SetNoGpsTunnelRoute. marks route NO_GPS except its first ~50m, where a tunnel mouth still gets gps
func (e *Engine) SetNoGpsTunnelRoute(route []da.SegIndex) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return util.WrapErrorf(ErrNotLoaded, util.ErrInternalServerError, "set no gps tunnel route")
	}
	e.setNoGpsTunnelRoute(route)
	e.syncExclusionSegs()
	return nil
}

// LoadExclusionRoutesFromCsv. invalid rows are skipped, valid routes are returned along with the error
func (e *Engine) LoadExclusionRoutesFromCsv(path string) ([]exclusion.ExcludedRoute, error) {
	routes, err := exclusion.LoadExclusionRoutesFromCsv(path)
	if err != nil && routes == nil {
		return nil, err
	}
	e.log.Info("exclusion routes loaded", zap.String("path", path), zap.Int("routes", len(routes)))
	return routes, err
}

/*
SetExclusionRoutes. each route's via points are resolved to segments by ViaRoute (radius 40m, 35 degree
tolerance, NO_GPS not checked), bi_dir also resolves the opposite direction. NO_GPS routes go through SetNoGpsTunnelRoute.

all settings are validated first, one invalid setting aborts the whole call.
routes that fail to resolve are skipped. if their via points lie inside the graph bounds the failure is
returned as an error once the other routes are installed.
*/
func (e *Engine) SetExclusionRoutes(routes []exclusion.ExcludedRoute, syncRouting bool) error {
	if len(routes) == 0 {
		return util.WrapErrorf(nil, util.ErrBadParamInput, "set exclusion routes: no routes")
	}
	settings := make([]exclusion.Setting, len(routes))
	for i, r := range routes {
		s, err := r.ToSetting()
		if err != nil {
			return err
		}
		settings[i] = s
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.routeManager == nil {
		return util.WrapErrorf(ErrRoutingNotReady, util.ErrInternalServerError, "set exclusion routes")
	}

	var resolveErrs []error
	applied := 0
	for i, r := range routes {
		if settings[i].Type == pkg.EXTYPE_NONE {
			continue
		}
		segRoutes := make([][]da.SegIndex, 0, 2)
		forward, err := e.resolveExcludedRoute(r.ViaPoints)
		if err != nil {
			resolveErrs = append(resolveErrs, fmt.Errorf("[%s] routing failed, route seq = %d: %w", r.Description, i+1, err))
		} else if len(forward) > 0 {
			segRoutes = append(segRoutes, forward)
		}
		if r.BiDir {
			reverse, err := e.resolveExcludedRoute(r.ReversedViaPoints())
			if err != nil {
				resolveErrs = append(resolveErrs, fmt.Errorf("[%s] reverse routing failed, route seq = %d: %w",
					r.Description, i+1, err))
			} else if len(reverse) > 0 {
				segRoutes = append(segRoutes, reverse)
			}
		}

		for _, segs := range segRoutes {
			if settings[i].Type == pkg.EXTYPE_NO_GPS {
				e.setNoGpsTunnelRoute(segs)
			} else {
				e.setExclusionSegs(segs, settings[i])
			}
			applied++
		}
	}

	if syncRouting {
		e.syncExclusionSegs()
	}
	e.log.Info("exclusion routes set", zap.Int("routes", len(routes)), zap.Int("applied", applied),
		zap.Int("failed", len(resolveErrs)), zap.Int("excluded_segments", e.registry.Len()))

	if len(resolveErrs) > 0 {
		return util.WrapErrorf(errors.Join(resolveErrs...), util.ErrNotFound, "set exclusion routes")
	}
	return nil
}

// resolveExcludedRoute. nil, nil on failure when a via point lies outside the graph bounds
func (e *Engine) resolveExcludedRoute(vps []exclusion.RouteViaPoint) ([]da.SegIndex, error) {
	params := ViaRouteParams{
		ViaPoints:      make([]ViaPoint, 0, len(vps)),
		Radius:         pkg.EXCLUSION_ROUTE_RADIUS,
		AngleTolerance: pkg.EXCLUSION_ROUTE_ANGLE_TOLERANCE,
		CheckNoGps:     false,
	}
	for _, vp := range vps {
		params.ViaPoints = append(params.ViaPoints, ViaPoint{Coord: vp.Coord, Heading: vp.Heading})
	}
	res, err := e.viaRoute(params)
	if err == nil {
		return res.Route, nil
	}
	bound := e.store.GetBound()
	for _, vp := range vps {
		if !bound.Contains(vp.Coord) {
			return nil, nil
		}
	}
	return nil, err
}

func (e *Engine) setExclusionSegs(segs []da.SegIndex, setting exclusion.Setting) {
	for _, s := range segs {
		e.registry.Set(e.store.GetSegment(s), setting)
	}
}

func (e *Engine) setNoGpsTunnelRoute(route []da.SegIndex) {
	length := 0.0
	i := 0
	for _, s := range route {
		i++
		length += e.store.GetSegment(s).GetLength()
		if length > pkg.NO_GPS_TUNNEL_ENTRY_METERS {
			break
		}
	}
	if i >= len(route) {
		return
	}
	e.setExclusionSegs(route[i:], exclusion.Setting{Type: pkg.EXTYPE_NO_GPS})
}

func (e *Engine) syncExclusionSegs() {
	if e.routeManager != nil {
		e.routeManager.SyncExclusionSegsToRouting()
	}
}

func (e *Engine) segsByIds(ids []int64) ([]da.SegIndex, error) {
	if e.store == nil {
		return nil, util.WrapErrorf(ErrNotLoaded, util.ErrInternalServerError, "segments by id")
	}
	segs := make([]da.SegIndex, 0, len(ids))
	for _, id := range ids {
		s, ok := e.store.GetSegById(id)
		if !ok {
			return nil, util.WrapErrorf(nil, util.ErrNotFound, "segment %d not found", id)
		}
		segs = append(segs, s)
	}
	return segs, nil
}
