package engine

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/lintang-b-s/roadmatch/pkg"
	da "github.com/lintang-b-s/roadmatch/pkg/datastructure"
	"github.com/lintang-b-s/roadmatch/pkg/engine/mapmatcher"
	"github.com/lintang-b-s/roadmatch/pkg/engine/routing"
	"github.com/lintang-b-s/roadmatch/pkg/exclusion"
	"github.com/lintang-b-s/roadmatch/pkg/graph"
	"github.com/lintang-b-s/roadmatch/pkg/spatialindex"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"go.uber.org/zap"
)

var (
	ErrNotLoaded          = errors.New("road graph is not loaded")
	ErrRoutingNotReady    = errors.New("routing is not initialized")
	ErrViaPointAssignment = errors.New("via point assignment failed")
	ErrRouteNotFound      = errors.New("route not found")
)

type Config struct {
	NumWorkers      int
	DriveOnRight    bool
	GenerateReverse bool
	ShortestMode    bool
	BiDirectional   bool
	MaxSearchSteps  int
	LocalUtcDiff    int64
	MatchPriority   pkg.MatchPriority
}

func DefaultConfig() Config {
	return Config{
		NumWorkers:    runtime.NumCPU(),
		DriveOnRight:  true,
		ShortestMode:  true,
		LocalUtcDiff:  pkg.DEFAULT_LOCAL_UTC_DIFF_SECONDS,
		MatchPriority: pkg.MATCH_PRI_BOTH,
	}
}

/*
Engine. graph store + spatial index + routing node graph + route matcher behind one lock.
queries take the read lock, load/init/exclusion take the write lock.

	LoadSegments -> InitRouting -> query (AssignSegment, ShortestPath, ViaRoute, RouteMatching, ...)
*/
type Engine struct {
	mu  sync.RWMutex
	cfg Config
	log *zap.Logger

	store    *da.Store
	registry *exclusion.Registry
	index    *spatialindex.SegmentIndex

	routeManager *routing.RouteManager
	matcher      *mapmatcher.RouteMatcher
}

func NewEngine(cfg Config, log *zap.Logger) *Engine {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	return &Engine{
		cfg: cfg,
		log: log,
	}
}

func (e *Engine) GetConfig() Config {
	return e.cfg
}

// LoadSegments. rebuilds the graph from records. routing must be initialised again afterwards.
func (e *Engine) LoadSegments(records []da.SegmentRecord) error {
	store, err := graph.NewBuilder(e.log, e.cfg.NumWorkers, e.cfg.DriveOnRight).
		LoadSegments(records, e.cfg.GenerateReverse)
	if err != nil {
		return err
	}
	return e.setStore(store)
}

// LoadSegmentsFromCsv. pattern may contain wildcards (shards are read in parallel), .bz2 is supported
func (e *Engine) LoadSegmentsFromCsv(pattern string) error {
	store, err := graph.NewBuilder(e.log, e.cfg.NumWorkers, e.cfg.DriveOnRight).
		LoadSegmentsFromCsv(pattern, e.cfg.GenerateReverse)
	if err != nil {
		return err
	}
	return e.setStore(store)
}

func (e *Engine) setStore(store *da.Store) error {
	registry := exclusion.NewRegistry(e.cfg.LocalUtcDiff)
	index, err := spatialindex.NewSegmentIndex(store, registry, e.cfg.MatchPriority, e.log)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = store
	e.registry = registry
	e.index = index
	e.routeManager = nil
	e.matcher = nil
	return nil
}

// InitRouting. routing node graph and route matcher over the loaded graph
func (e *Engine) InitRouting() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return util.WrapErrorf(ErrNotLoaded, util.ErrInternalServerError, "init routing")
	}

	start := time.Now()
	rm := routing.NewRouteManager(e.store, e.registry, e.log)
	rm.SetNumWorkers(e.cfg.NumWorkers)
	rm.SetBiDirectional(e.cfg.BiDirectional)
	rm.SetMaxSearchSteps(e.cfg.MaxSearchSteps)
	if err := rm.InitForRouting(e.cfg.ShortestMode); err != nil {
		return err
	}
	rm.SyncExclusionSegsToRouting()

	e.routeManager = rm
	e.matcher = mapmatcher.NewRouteMatcher(e.store, e.index, rm, e.log)
	e.log.Info("routing initialized", zap.Int("routing_nodes", rm.NumberOfRoutingNodes()),
		zap.Int("connections", rm.NumberOfConnections()), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (e *Engine) IsLoaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store != nil
}

func (e *Engine) IsRoutingReady() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.routeManager != nil
}

// GetStore. the store must not be modified while the engine is in use
func (e *Engine) GetStore() *da.Store {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store
}

func (e *Engine) GetSegmentById(id int64) (*da.Segment, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.store == nil {
		return nil, false
	}
	i, ok := e.store.GetSegById(id)
	if !ok {
		return nil, false
	}
	return e.store.GetSegment(i), true
}

func (e *Engine) GetNodeById(id int64) (*da.Node, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.store == nil {
		return nil, false
	}
	i, ok := e.store.GetNodeById(id)
	if !ok {
		return nil, false
	}
	return e.store.GetNode(i), true
}

func (e *Engine) GetWayById(id int64) (*da.OrientedWay, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.store == nil {
		return nil, false
	}
	i, ok := e.store.GetWayById(id)
	if !ok {
		return nil, false
	}
	return e.store.GetWay(i), true
}

// GetDijkstraStats. total dijkstra calls and successful ones
func (e *Engine) GetDijkstraStats() (int64, int64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.routeManager == nil {
		return 0, 0
	}
	return e.routeManager.GetDijkstraStats()
}

func (e *Engine) GetExclusionSetting(segId int64) (exclusion.Setting, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.registry == nil {
		return exclusion.Setting{}, false
	}
	return e.registry.Get(segId)
}
