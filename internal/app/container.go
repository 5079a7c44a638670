package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"quickjob/internal/config"
	"quickjob/internal/database"
	dbpostgres "quickjob/internal/database/postgres"
	"quickjob/internal/infrastructure/cache"
	"quickjob/internal/infrastructure/filestore"
	"quickjob/internal/metrics"
	"quickjob/internal/pkg/logger"
	"quickjob/internal/pkg/receipt"
	"quickjob/internal/repository"
	"quickjob/internal/usecase"
	"quickjob/internal/ws"
)

type Container struct {
	Config  config.Config
	Logger  *zap.Logger
	DB      database.DB
	Cache   *cache.Redis
	Files   *filestore.Local
	Metrics *metrics.Metrics
	Hub     *ws.Hub

	Cities       *usecase.Cities
	Positions    *usecase.Positions
	Applications *usecase.Applications
}

func NewContainer(cfg config.Config, log *zap.Logger) (*Container, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	c, err := Wire(cfg, log, db, cache.NewRedis(cfg.Redis, log))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Wire builds everything above the database and cache connections.
func Wire(cfg config.Config, log *zap.Logger, db database.DB, searchCache *cache.Redis) (*Container, error) {
	log = logger.OrNop(log)

	files, err := filestore.NewLocal(cfg.Storage.Dir, log.Named("filestore"))
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	hub := ws.NewHub(log.Named("ws"))

	cityRepo := repository.NewPostgresCityRepository(db)
	positionRepo := repository.NewPostgresPositionRepository(db)
	applicationRepo := repository.NewPostgresApplicationRepository(db)

	cities := usecase.NewCityLookup(cityRepo)
	positions := usecase.NewPositionLookup(positionRepo, searchCache, m, log.Named("positions"))
	applications := usecase.NewApplicationWorkflow(usecase.ApplicationDeps{
		Applications:         applicationRepo,
		Positions:            positions,
		Cities:               cities,
		Files:                files,
		Receipts:             receipt.NewHMACService(cfg.Receipt.Secret, cfg.Receipt.ExpiresIn),
		Notifier:             hub,
		Metrics:              m,
		Logger:               log.Named("applications"),
		CompensateOnRollback: cfg.Storage.CompensateOnRollback,
	})

	return &Container{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		Cache:        searchCache,
		Files:        files,
		Metrics:      m,
		Hub:          hub,
		Cities:       cities,
		Positions:    positions,
		Applications: applications,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
