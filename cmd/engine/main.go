package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/roadmatch/pkg"
	"github.com/lintang-b-s/roadmatch/pkg/engine"
	"github.com/lintang-b-s/roadmatch/pkg/http"
	"github.com/lintang-b-s/roadmatch/pkg/http/usecases"
	"github.com/lintang-b-s/roadmatch/pkg/logger"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configPath     = flag.String("config", "./data/", "directory berisi config.yaml")
	segmentsPath   = flag.String("segments", "", "segment csv, boleh .bz2 atau pola shard (segments_*.csv)")
	exclusionsPath = flag.String("exclusions", "", "exclusion route csv (opsional)")
)

func main() {
	flag.Parse()
	if err := util.ReadConfig(*configPath); err != nil {
		panic(err)
	}
	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck // ignore

	if err := run(log); err != nil {
		log.Error("roadmatch engine stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("roadmatch engine stopped")
}

func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()

	viper.SetDefault("NUM_WORKERS", cfg.NumWorkers)
	viper.SetDefault("DRIVE_ON_RIGHT", cfg.DriveOnRight)
	viper.SetDefault("GENERATE_REVERSE", false)
	viper.SetDefault("SHORTEST_MODE", cfg.ShortestMode)
	viper.SetDefault("BIDIRECTIONAL_DIJKSTRA", false)
	viper.SetDefault("MAX_SEARCH_STEPS", 0)
	viper.SetDefault("LOCAL_UTC_DIFF", cfg.LocalUtcDiff)
	viper.SetDefault("MATCH_PRIORITY", int(pkg.MATCH_PRI_BOTH))

	cfg.NumWorkers = viper.GetInt("NUM_WORKERS")
	cfg.DriveOnRight = viper.GetBool("DRIVE_ON_RIGHT")
	cfg.GenerateReverse = viper.GetBool("GENERATE_REVERSE")
	cfg.ShortestMode = viper.GetBool("SHORTEST_MODE")
	cfg.BiDirectional = viper.GetBool("BIDIRECTIONAL_DIJKSTRA")
	cfg.MaxSearchSteps = viper.GetInt("MAX_SEARCH_STEPS")
	cfg.LocalUtcDiff = viper.GetInt64("LOCAL_UTC_DIFF")
	cfg.MatchPriority = pkg.MatchPriority(viper.GetInt("MATCH_PRIORITY"))
	return cfg
}

func run(log *zap.Logger) error {
	viper.SetDefault("SEGMENTS_PATH", "./data/segments.csv")
	viper.SetDefault("EXCLUSION_ROUTES_PATH", "")
	viper.SetDefault("ROUTE_CACHE_SIZE", usecases.DEFAULT_ROUTE_CACHE_SIZE)

	segments := *segmentsPath
	if segments == "" {
		segments = viper.GetString("SEGMENTS_PATH")
	}
	exclusions := *exclusionsPath
	if exclusions == "" {
		exclusions = viper.GetString("EXCLUSION_ROUTES_PATH")
	}

	routingEngine := engine.NewEngine(engineConfig(), log)
	if err := routingEngine.LoadSegmentsFromCsv(segments); err != nil {
		return err
	}
	if err := routingEngine.InitRouting(); err != nil {
		return err
	}

	if exclusions != "" {
		routes, err := routingEngine.LoadExclusionRoutesFromCsv(exclusions)
		if err != nil {
			// broken rows are skipped, the rest still get installed
			log.Warn("some exclusion routes could not be read", zap.Error(err))
		}
		if len(routes) > 0 {
			if err := routingEngine.SetExclusionRoutes(routes, true); err != nil {
				log.Warn("some exclusion routes could not be applied", zap.Error(err))
			}
		}
	}

	routingService, err := usecases.NewRoutingService(log, routingEngine, viper.GetInt("ROUTE_CACHE_SIZE"))
	if err != nil {
		return err
	}
	mapMatcherService := usecases.NewMapMatcherService(log, routingEngine)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := http.NewServer(log).Use(ctx, log, routingService, mapMatcherService)
	if err != nil {
		return err
	}
	log.Info("roadmatch engine started")
	return api.Wait()
}
