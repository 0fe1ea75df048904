package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/lintang-b-s/roadmatch/pkg/engine/mapmatcher"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	helper "github.com/lintang-b-s/roadmatch/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/roadmatch/pkg/http/usecases"
	"go.uber.org/zap"
)

type routingAPI struct {
	routingService     RoutingService
	mapmatchingService MapMatcherService
	log                *zap.Logger
}

func New(routingService RoutingService, mapmatchingService MapMatcherService, log *zap.Logger) *routingAPI {
	return &routingAPI{
		routingService:     routingService,
		log:                log,
		mapmatchingService: mapmatchingService,
	}

}

func (api *routingAPI) Routes(group *helper.RouteGroup) {
	group.GET("/assign", api.assign)
	group.GET("/adjacent", api.adjacent)
	group.GET("/computeRoutes", api.shortestPath)
	group.POST("/routeMatching", api.routeMatching)
	group.POST("/exclusions", api.setExclusion)
	group.DELETE("/exclusions", api.clearExclusion)
	group.GET("/segments/:id", api.getSegment)
	group.GET("/nodes/:id", api.getNode)
}

// assign godoc
// @Summary		up to 4 segment candidates for one gps point, highest score first.
// @Tags			routing
// @Param			lat	query	number	true	"latitude"
// @Param			lon	query	number	true	"longitude"
// @Param			heading	query	int	false	"heading [0,359], -1 = ignore"
// @Param			radius	query	number	false	"search radius (meters)"
// @Param			angle_tolerance	query	int	false	"angle tolerance (degrees)"
// @Produce		application/json
// @Router			/api/assign [get]
// @Success		200	{object}	assignResponse
// @Failure		400	{object}	errorResponse
// @Failure		500	{object}	errorResponse
func (api *routingAPI) assign(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var (
		request assignRequest
		err     error
	)
	query := r.URL.Query()

	if request.Lat, err = parseFloatQuery(query, "lat"); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.Lon, err = parseFloatQuery(query, "lon"); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.Heading, err = parseOptionalInt(query, "heading", -1); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.Radius, err = parseOptionalFloat(query, "radius", mapmatcher.DEFAULT_RADIUS); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.AngleTolerance, err = parseOptionalInt(query, "angle_tolerance", mapmatcher.DEFAULT_ANGLE_TOLERANCE); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	cands, err := api.routingService.AssignSegments(geo.NewCoordinate(request.Lat, request.Lon),
		request.Heading, request.Radius, request.AngleTolerance)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewAssignResponse(cands)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// adjacent godoc
// @Summary		segments and nodes within a radius of one point, nearest first.
// @Tags			routing
// @Param			lat	query	number	true	"latitude"
// @Param			lon	query	number	true	"longitude"
// @Param			radius	query	number	false	"radius (meters)"
// @Param			has_name	query	bool	false	"named roads only"
// @Produce		application/json
// @Router			/api/adjacent [get]
// @Success		200	{object}	adjacentResponse
// @Failure		400	{object}	errorResponse
func (api *routingAPI) adjacent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var (
		request adjacentRequest
		err     error
	)
	query := r.URL.Query()

	if request.Lat, err = parseFloatQuery(query, "lat"); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.Lon, err = parseFloatQuery(query, "lon"); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.Radius, err = parseOptionalFloat(query, "radius", defaultAdjacentRadius); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.HasName, err = parseOptionalBool(query, "has_name", false); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	adj, err := api.routingService.FindAdjacent(geo.NewCoordinate(request.Lat, request.Lon), request.Radius, request.HasName)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewAdjacentResponse(adj)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// shortestPath godoc
// @Summary		route from origin to destination (segment ids, edge ids, distance, polyline).
// @Tags			routing
// @Param			origin_lat	query	number	true	"origin latitude"
// @Param			origin_lon	query	number	true	"origin longitude"
// @Param			origin_heading	query	int	false	"origin heading, -1 = ignore"
// @Param			destination_lat	query	number	true	"destination latitude"
// @Param			destination_lon	query	number	true	"destination longitude"
// @Param			destination_heading	query	int	false	"destination heading, -1 = ignore"
// @Produce		application/json
// @Router			/api/computeRoutes [get]
// @Success		200	{object}	shortestPathResponse
// @Failure		400	{object}	errorResponse
// @Failure		404	{object}	errorResponse
// @Failure		500	{object}	errorResponse
func (api *routingAPI) shortestPath(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var (
		request shortestPathRequest
		err     error
	)

	query := r.URL.Query()

	if request.OriginLat, err = parseFloatQuery(query, "origin_lat"); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.OriginLon, err = parseFloatQuery(query, "origin_lon"); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.OriginHeading, err = parseOptionalInt(query, "origin_heading", -1); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.DestinationLat, err = parseFloatQuery(query, "destination_lat"); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.DestinationLon, err = parseFloatQuery(query, "destination_lon"); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if request.DestinationHeading, err = parseOptionalInt(query, "destination_heading", -1); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	route, err := api.routingService.ComputeRoute(
		usecases.RoutePoint{Coord: geo.NewCoordinate(request.OriginLat, request.OriginLon), Heading: request.OriginHeading},
		usecases.RoutePoint{Coord: geo.NewCoordinate(request.DestinationLat, request.DestinationLon), Heading: request.DestinationHeading},
	)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewShortestPathResponse(route)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// routeMatching godoc
// @Summary		match a gps trace to a connected route.
// @Tags			matching
// @Param			body	body	mapMatchRequest	true	"trace gps"
// @Accept			application/json
// @Produce		application/json
// @Router			/api/routeMatching [post]
// @Success		200	{object}	mapMatchResponse
// @Failure		400	{object}	errorResponse
// @Failure		500	{object}	errorResponse
func (api *routingAPI) routeMatching(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request mapMatchRequest
	if err := readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	match, err := api.mapmatchingService.RouteMatching(request.toMatchRequest())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewMapmatchingResponse(match)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// setExclusion godoc
// @Summary		install an exclusion on segments and reset the route cache.
// @Tags			exclusion
// @Param			body	body	exclusionRequest	true	"segments and exclusion rule"
// @Accept			application/json
// @Produce		application/json
// @Router			/api/exclusions [post]
// @Success		200	{object}	map[string]any
// @Failure		400	{object}	errorResponse
// @Failure		404	{object}	errorResponse
func (api *routingAPI) setExclusion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request exclusionRequest
	if err := readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	setting, err := request.toSetting()
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	if err := api.routingService.SetExclusion(request.SegmentIds, setting); err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": map[string]any{
		"segment_ids": request.SegmentIds,
		"exclusion":   setting.String(),
	}}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) clearExclusion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var request clearExclusionRequest
	if err := readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	if err := api.routingService.ClearExclusion(request.SegmentIds); err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": map[string]any{
		"segment_ids": request.SegmentIds,
	}}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) getSegment(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := strconv.ParseInt(p.ByName("id"), 10, 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("segment id must be a valid int"))
		return
	}
	seg, err := api.routingService.GetSegment(id)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSegmentResponse(seg)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) getNode(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := strconv.ParseInt(p.ByName("id"), 10, 64)
	if err != nil {
		api.BadRequestResponse(w, r, errors.New("node id must be a valid int"))
		return
	}
	node, err := api.routingService.GetNode(id)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewNodeResponse(node)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}
