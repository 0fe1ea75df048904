package controllers

import (
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/http/usecases"
)

type RoutingService interface {
	AssignSegments(p geo.Coordinate, heading int, radius float64, angleTolerance int) ([]usecases.Candidate, error)
	FindAdjacent(p geo.Coordinate, radius float64, hasName bool) (usecases.Adjacent, error)
	ComputeRoute(origin, destination usecases.RoutePoint) (*usecases.Route, error)
	GetSegment(id int64) (usecases.SegmentInfo, error)
	GetNode(id int64) (usecases.NodeInfo, error)
	SetExclusion(segIds []int64, setting exclusion.Setting) error
	ClearExclusion(segIds []int64) error
}

type MapMatcherService interface {
	RouteMatching(req usecases.MatchRequest) (*usecases.Match, error)
}

type envelope map[string]any
