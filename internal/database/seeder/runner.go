package seeder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"quickjob/internal/database"
	"quickjob/internal/pkg/logger"
)

type Runner struct {
	Seeders []Seeder
	Logger  *zap.Logger
}

func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return database.ErrNilDB
	}
	log := logger.OrNop(r.Logger)
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		if err := s.Run(ctx, db); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		log.Info("seed applied", zap.String("seeder", s.Name()))
	}
	return nil
}
