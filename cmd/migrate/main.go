package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"quickjob/internal/config"
	dbpostgres "quickjob/internal/database/postgres"
	"quickjob/internal/database/migration"
	"quickjob/internal/database/seeder"
	"quickjob/internal/infrastructure/cache"
	"quickjob/internal/pkg/logger"
	"quickjob/migrations"
)

func main() {
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	seed := flag.Bool("seed", false, "load the demo catalogue after migrating")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.New(cfg.Log.Level, cfg.Log.Format).Named("migrate")
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg, strings.TrimSpace(*dir), *seed); err != nil {
		lg.Error("migrate failed", zap.Error(err))
		_ = lg.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, lg *zap.Logger, dir string, seed bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	r := migration.Runner{FS: migrations.FS, Logger: lg}
	if dir != "" {
		r = migration.Runner{Dir: dir, Logger: lg}
	}
	if err := r.Run(ctx, db.SQLDB()); err != nil {
		return err
	}
	lg.Info("migrations up to date")

	if err := seeder.VerifySchema(ctx, db, seeder.ApplicationSchema); err != nil {
		return err
	}

	if !seed {
		return nil
	}

	if err := (seeder.Runner{Seeders: seeder.Defaults(), Logger: lg}).Run(ctx, db); err != nil {
		return err
	}

	rc := cache.NewRedis(cfg.Redis, lg)
	defer func() { _ = rc.Close() }()
	if err := rc.InvalidatePositions(ctx); err != nil {
		lg.Warn("position cache not invalidated", zap.Error(err))
	}
	return nil
}
