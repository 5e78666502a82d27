// Command seeder loads a catalog CSV into the store without going through
// the HTTP API. Intended for local development and initial deployments.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/expertmatch/internal/config"
	dbRedis "github.com/kailas-cloud/expertmatch/internal/db/redis"
	logpkg "github.com/kailas-cloud/expertmatch/internal/logger"
	catalogrepo "github.com/kailas-cloud/expertmatch/internal/repository/catalog"
	ingestuc "github.com/kailas-cloud/expertmatch/internal/usecase/ingest"
)

func main() {
	csvPath := flag.String("csv", "", "path to the catalog CSV file (required)")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create catalog store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Catalog store not ready", zap.Error(err))
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		logger.Fatal("Failed to open CSV file", zap.String("path", *csvPath), zap.Error(err))
	}
	defer f.Close()

	catalog := catalogrepo.New(store, cfg.Storage.KeyPrefix)
	report, err := ingestuc.New(catalog, logger).ImportCSV(ctx, f)
	if err != nil {
		logger.Fatal("Import failed", zap.Error(err))
	}

	logger.Info("Import complete",
		zap.String("path", *csvPath),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
	)
}
