package usecases

import (
	"github.com/lintang-b-s/roadmatch/pkg/engine/mapmatcher"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"go.uber.org/zap"
)

type MapMatcherService struct {
	log    *zap.Logger
	engine MatchingEngine
}

func NewMapMatcherService(log *zap.Logger, engine MatchingEngine) *MapMatcherService {
	return &MapMatcherService{
		log:    log,
		engine: engine,
	}
}

// RouteMatching. matches a gps trace to a connected route. points with a SegmentId are pinned.
func (ms *MapMatcherService) RouteMatching(req MatchRequest) (*Match, error) {
	store := ms.engine.GetStore()
	if store == nil {
		return nil, util.WrapErrorf(ErrEngineNotLoaded, util.ErrInternalServerError, "route matching")
	}

	vps := make([]mapmatcher.RouteMatchingViaPoint, 0, len(req.Points))
	for i, p := range req.Points {
		vp := mapmatcher.NewRouteMatchingViaPoint(p.Coord.Lat, p.Coord.Lon, p.Heading, p.Speed, p.RecordTime)
		vp.Index = i
		if p.SegmentId != 0 {
			seg, ok := store.GetSegById(p.SegmentId)
			if !ok {
				return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "point %d: segment %d not found", i, p.SegmentId)
			}
			vp.Seg = seg
		}
		vps = append(vps, vp)
	}

	params := mapmatcher.NewRouteMatchingParams(vps)
	params.IsLocalTime = req.IsLocalTime
	params.CheckNoGps = req.CheckNoGps
	params.VerifyResult = req.VerifyResult
	if req.Radius > 0 {
		params.Radius = req.Radius
	}
	if req.AngleTolerance > 0 {
		params.AngleTolerance = req.AngleTolerance
	}

	res, err := ms.engine.RouteMatching(params)
	if err != nil {
		return nil, err
	}

	match := &Match{
		SegmentIds:        store.SegmentIds(res.GetRoute()),
		Points:            make([]MatchedPoint, 0, len(res.GetViaPoints())),
		Length:            store.GetRouteLength(res.GetRoute()),
		DisconnectedIndex: res.DisconnectedIndex,
		RepeatedIndex:     res.RepeatedIndex,
	}
	if len(res.GetRoute()) > 0 {
		match.Polyline = polylineOf(store, res.GetRoute())
	}
	for _, vp := range res.GetViaPoints() {
		mp := MatchedPoint{
			Index:              vp.Index,
			ISeg:               vp.ISeg,
			IsBroken:           vp.IsBroken,
			EnteringNoGpsRoute: vp.EnteringNoGpsRoute,
		}
		if vp.HasSeg() {
			mp.SegmentId = store.GetSegment(vp.Seg).GetId()
			mp.Snapped = snapToSegment(store, vp.Seg, vp.Coord)
		}
		match.Points = append(match.Points, mp)
	}

	ms.log.Debug("route matched", zap.Int("points", len(req.Points)), zap.Int("segments", len(match.SegmentIds)))
	return match, nil
}
