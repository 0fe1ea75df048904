package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/roadmatch/pkg/graph"
	"github.com/lintang-b-s/roadmatch/pkg/logger"
	"github.com/lintang-b-s/roadmatch/pkg/osmparser"
	"github.com/lintang-b-s/roadmatch/pkg/util"
	"go.uber.org/zap"
)

var (
	mapFile = flag.String("f", "./data/map.osm.pbf", "openstreetmap file (.osm.pbf)")
	outFile = flag.String("out", "./data/segments.csv", "output segment csv, .bz2 untuk compress")
)

func main() {
	flag.Parse()
	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck // ignore

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error("segment generation failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, log *zap.Logger) error {
	records, err := osmparser.GenerateFromPbf(ctx, *mapFile, log)
	if err != nil {
		return err
	}

	w, err := util.CreateFile(*outFile)
	if err != nil {
		return err
	}
	if err := graph.WriteSegmentRecords(w, records); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	log.Info("segment csv written", zap.String("path", *outFile), zap.Int("segments", len(records)))
	return nil
}
