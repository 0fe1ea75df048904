package usecases

import (
	lru "github.com/hashicorp/golang-lru/v2"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/engine"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/geo"
	"github.com/lintang-b-s/roadmatch/pkg/spatialindex"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"go.uber.org/zap"
)

const DEFAULT_ROUTE_CACHE_SIZE = 1 << 12

type routeCacheKey struct {
	origin, destination RoutePoint
}

type RoutingService struct {
	log    *zap.Logger
	engine RoutingEngine

	// purged whenever exclusions change
	routeCache *lru.Cache[routeCacheKey, *Route]
}

func NewRoutingService(log *zap.Logger, engine RoutingEngine, cacheSize int) (*RoutingService, error) {
	if cacheSize <= 0 {
		cacheSize = DEFAULT_ROUTE_CACHE_SIZE
	}
	cache, err := lru.New[routeCacheKey, *Route](cacheSize)
	if err != nil {
		return nil, err
	}
	return &RoutingService{
		log:        log,
		engine:     engine,
		routeCache: cache,
	}, nil
}

// AssignSegments. segment candidates for one point, highest score first
func (rs *RoutingService) AssignSegments(p geo.Coordinate, heading int, radius float64, angleTolerance int) ([]Candidate, error) {
	store := rs.engine.GetStore()
	if store == nil {
		return nil, util.WrapErrorf(ErrEngineNotLoaded, util.ErrInternalServerError, "assign segments")
	}

	results := rs.engine.AssignSegments(p, spatialindex.NewSegAssignParams(heading, radius, angleTolerance))
	cands := make([]Candidate, 0, len(results))
	for _, r := range results {
		seg := store.GetSegment(r.Seg)
		cands = append(cands, Candidate{
			SegmentId:       seg.GetId(),
			WayId:           seg.GetWayId(),
			WayName:         seg.GetWayName(),
			Distance:        r.Distance,
			HeadingDistance: r.HeadingDistance,
			Score:           r.Score,
			Exclusive:       r.Exclusive,
			Snapped:         geo.ProjectPointToLineCoord(seg.GetFrom(), seg.GetTo(), p),
		})
	}
	return cands, nil
}

func (rs *RoutingService) FindAdjacent(p geo.Coordinate, radius float64, hasName bool) (Adjacent, error) {
	store := rs.engine.GetStore()
	if store == nil {
		return Adjacent{}, util.WrapErrorf(ErrEngineNotLoaded, util.ErrInternalServerError, "find adjacent")
	}

	segs := rs.engine.FindAdjacentSegments(p, radius, hasName)
	nodes := rs.engine.FindAdjacentNodes(p, radius)
	adj := Adjacent{
		Segments: make([]AdjacentSegment, 0, len(segs)),
		Nodes:    make([]AdjacentNode, 0, len(nodes)),
	}
	for _, sd := range segs {
		seg := store.GetSegment(sd.Seg)
		adj.Segments = append(adj.Segments, AdjacentSegment{
			SegmentId: seg.GetId(),
			WayName:   seg.GetWayName(),
			Distance:  sd.Distance,
		})
	}
	for _, nd := range nodes {
		node := store.GetNode(nd.Node)
		adj.Nodes = append(adj.Nodes, AdjacentNode{
			NodeId:   node.GetId(),
			Coord:    node.GetCoordinate(),
			Distance: nd.Distance,
		})
	}
	return adj, nil
}

// ComputeRoute. origin to destination through ViaRoute, cached per point pair
func (rs *RoutingService) ComputeRoute(origin, destination RoutePoint) (*Route, error) {
	key := routeCacheKey{origin: origin, destination: destination}
	if r, ok := rs.routeCache.Get(key); ok {
		return r, nil
	}

	store := rs.engine.GetStore()
	if store == nil {
		return nil, util.WrapErrorf(ErrEngineNotLoaded, util.ErrInternalServerError, "compute route")
	}

	params := engine.NewViaRouteParams([]engine.ViaPoint{
		{Coord: origin.Coord, Heading: origin.Heading},
		{Coord: destination.Coord, Heading: destination.Heading},
	})
	res, err := rs.engine.ViaRoute(params)
	if err != nil {
		return nil, err
	}

	route := rs.newRoute(store, res.Route, origin.Coord, destination.Coord)
	route.SearchSteps = res.SearchSteps

	rs.routeCache.Add(key, route)
	return route, nil
}

func (rs *RoutingService) newRoute(store *da.Store, segs []da.SegIndex, origin, destination geo.Coordinate) *Route {
	route := &Route{
		SegmentIds: store.SegmentIds(segs),
		EdgeIds:    make([]int64, 0, len(segs)),
		Length:     store.GetRouteLength(segs),
		Polyline:   polylineOf(store, segs),
	}
	for _, s := range segs {
		e := rs.engine.SegmentToEdge(s)
		if len(route.EdgeIds) > 0 && route.EdgeIds[len(route.EdgeIds)-1] == e {
			continue
		}
		route.EdgeIds = append(route.EdgeIds, e)
	}
	if len(segs) > 0 {
		route.Origin = snapToSegment(store, segs[0], origin)
		route.Destination = snapToSegment(store, segs[len(segs)-1], destination)
	}
	return route
}

func (rs *RoutingService) GetSegment(id int64) (SegmentInfo, error) {
	seg, ok := rs.engine.GetSegmentById(id)
	if !ok {
		return SegmentInfo{}, util.WrapErrorf(nil, util.ErrNotFound, "segment %d not found", id)
	}
	info := SegmentInfo{
		Id:         seg.GetId(),
		WayId:      seg.GetWayId(),
		SubSeq:     seg.GetSubSeq(),
		SplitSeq:   seg.GetSplitSeq(),
		FromNodeId: seg.GetFromNodeId(),
		ToNodeId:   seg.GetToNodeId(),
		From:       seg.GetFrom(),
		To:         seg.GetTo(),
		Length:     seg.GetLength(),
		Heading:    seg.GetHeading(),
		Highway:    int8(seg.GetHighwayType()),
		WayName:    seg.GetWayName(),
		OneWay:     seg.IsOneWay(),
		Bridge:     seg.IsBridge(),
		Tunnel:     seg.IsTunnel(),
		Layer:      seg.GetLayer(),
		Reverse:    seg.IsReverse(),
		Tags:       seg.GetTags(),
	}
	if setting, ok := rs.engine.GetExclusionSetting(id); ok {
		info.Exclusion = setting.String()
	}
	return info, nil
}

func (rs *RoutingService) GetNode(id int64) (NodeInfo, error) {
	node, ok := rs.engine.GetNodeById(id)
	if !ok {
		return NodeInfo{}, util.WrapErrorf(nil, util.ErrNotFound, "node %d not found", id)
	}
	store := rs.engine.GetStore()
	info := NodeInfo{
		Id:              node.GetId(),
		Coord:           node.GetCoordinate(),
		Name:            node.GetName(),
		WayConnector:    node.IsWayConnector(),
		DeadEnd:         node.IsDeadEnd(),
		ConnectedSegIds: store.SegmentIds(node.GetConnectedSegments()),
	}
	return info, nil
}

// SetExclusion. installs setting on all segments, syncs routing and purges the route cache
func (rs *RoutingService) SetExclusion(segIds []int64, setting exclusion.Setting) error {
	if err := rs.engine.SetExclusionSegIds(segIds, setting, true); err != nil {
		return err
	}
	rs.routeCache.Purge()
	rs.log.Info("exclusion set", zap.Int64s("segment_ids", segIds), zap.String("setting", setting.String()))
	return nil
}

func (rs *RoutingService) ClearExclusion(segIds []int64) error {
	if err := rs.engine.ClearExclusionSegIds(segIds, true); err != nil {
		return err
	}
	rs.routeCache.Purge()
	rs.log.Info("exclusion cleared", zap.Int64s("segment_ids", segIds))
	return nil
}
