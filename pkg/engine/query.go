package engine

import (
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/engine/mapmatcher"
	"github.com/lintang-b-s/roadmatch/pkg/engine/routing"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/spatialindex"
	"github.com/lintang-b-s/roadmatch/pkg/util"
)

// AssignSegment. best candidate within the radius, false if none (not an error)
func (e *Engine) AssignSegment(p geo.Coordinate, params spatialindex.SegAssignParams) (spatialindex.AssignResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.index == nil {
		return spatialindex.AssignResult{}, false
	}
	return e.index.AssignSegment(p, params)
}

// AssignSegments. up to 4 candidates, highest score first
func (e *Engine) AssignSegments(p geo.Coordinate, params spatialindex.SegAssignParams) []spatialindex.AssignResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.index == nil {
		return nil
	}
	return e.index.AssignSegments(p, params)
}

func (e *Engine) FindAdjacentSegments(p geo.Coordinate, radius float64, hasName bool) []spatialindex.SegmentDistance {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.index == nil {
		return []spatialindex.SegmentDistance{}
	}
	return e.index.FindAdjacentSegments(p, radius, hasName)
}

func (e *Engine) FindAdjacentNodes(p geo.Coordinate, radius float64) []spatialindex.NodeDistance {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.index == nil {
		return []spatialindex.NodeDistance{}
	}
	return e.index.FindAdjacentNodes(p, radius)
}

func (e *Engine) ShortestPath(seg1, seg2 da.SegIndex, excludeReverse bool, t exclusion.TimePoint) ([]da.SegIndex, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.routeManager == nil {
		return nil, false
	}
	return e.routeManager.ShortestPath(seg1, seg2, excludeReverse, t)
}

func (e *Engine) ShortestEdgePath(seg1, seg2 da.SegIndex) ([]int64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.routeManager == nil {
		return nil, false
	}
	return e.routeManager.ShortestEdgePath(seg1, seg2)
}

func (e *Engine) DijkstraShortestPath(seg1, seg2 da.SegIndex, t exclusion.TimePoint,
	pointsReversed bool) ([]da.SegIndex, routing.SearchStats, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.routeManager == nil {
		return nil, routing.SearchStats{}, false
	}
	return e.routeManager.DijkstraShortestPath(seg1, seg2, t, pointsReversed)
}

func (e *Engine) RoutingNearby(seg1, seg2 da.SegIndex, excludeReverse bool, t exclusion.TimePoint,
	pointsReversed bool) ([]da.SegIndex, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.routeManager == nil {
		return nil, false
	}
	return e.routeManager.RoutingNearby(seg1, seg2, excludeReverse, t, pointsReversed)
}

func (e *Engine) GetLeadSeg(seg da.SegIndex) da.SegIndex {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.routeManager == nil {
		return da.INVALID_SEG
	}
	return e.routeManager.GetLeadSeg(seg)
}

// GetAdjacentOutboundSegs. nodeId 0 = routing node ahead of seg
func (e *Engine) GetAdjacentOutboundSegs(seg da.SegIndex, nodeId int64) []da.SegIndex {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.routeManager == nil {
		return nil
	}
	return e.routeManager.GetAdjacentOutboundSegs(seg, nodeId)
}

func (e *Engine) SegmentToEdge(seg da.SegIndex) int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.routeManager == nil {
		return 0
	}
	return e.routeManager.SegmentToEdge(seg)
}

func (e *Engine) RouteMatching(params *mapmatcher.RouteMatchingParams) (*mapmatcher.RouteMatchingResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.matcher == nil {
		return nil, util.WrapErrorf(ErrRoutingNotReady, util.ErrInternalServerError, "route matching")
	}
	return e.matcher.RouteMatching(params)
}
