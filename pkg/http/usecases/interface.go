package usecases

import (
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/engine"
	"github.com/lintang-b-s/roadmatch/pkg/engine/mapmatcher"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/spatialindex"
)

type RoutingEngine interface {
	GetStore() *da.Store
	AssignSegments(p geo.Coordinate, params spatialindex.SegAssignParams) []spatialindex.AssignResult
	FindAdjacentSegments(p geo.Coordinate, radius float64, hasName bool) []spatialindex.SegmentDistance
	FindAdjacentNodes(p geo.Coordinate, radius float64) []spatialindex.NodeDistance
	ViaRoute(params engine.ViaRouteParams) (*engine.ViaRouteResult, error)
	SegmentToEdge(seg da.SegIndex) int64

	GetSegmentById(id int64) (*da.Segment, bool)
	GetNodeById(id int64) (*da.Node, bool)
	GetExclusionSetting(segId int64) (exclusion.Setting, bool)

	SetExclusionSegIds(ids []int64, setting exclusion.Setting, syncRouting bool) error
	ClearExclusionSegIds(ids []int64, syncRouting bool) error
}

type MatchingEngine interface {
	GetStore() *da.Store
	RouteMatching(params *mapmatcher.RouteMatchingParams) (*mapmatcher.RouteMatchingResult, error)
}
