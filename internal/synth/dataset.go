package synth

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/grounded-app/risk-engine/internal/record"
)

// #region dataset-config

// DatasetConfig sizes a synthetic multi-user run.
type DatasetConfig struct {
	Seed        uint64
	Users       int
	DaysPerUser int
	Workers     int // 0 = GOMAXPROCS
	Generator   GeneratorConfig
}

// DefaultDatasetConfig returns the size used for the general model (100 users × 90 days).
func DefaultDatasetConfig() DatasetConfig {
	return DatasetConfig{
		Seed:        42,
		Users:       100,
		DaysPerUser: 90,
		Generator:   DefaultGeneratorConfig(),
	}
}

// #endregion dataset-config

// #region dataset

// Dataset holds the generated histories and the profiles that produced them.
type Dataset struct {
	History  record.History
	Profiles map[record.UserID]record.Profile
}

// GenerateDataset simulates cfg.Users users in parallel. Every user draws from its own
// source seeded by (cfg.Seed, userID), so the result does not depend on cfg.Workers.
func GenerateDataset(ctx context.Context, cfg DatasetConfig, logger *zap.Logger) (Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Users <= 0 || cfg.DaysPerUser <= 0 {
		return Dataset{}, fmt.Errorf("generate dataset: users=%d days=%d must be positive", cfg.Users, cfg.DaysPerUser)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ds := Dataset{
		History:  make(record.History, cfg.Users),
		Profiles: make(map[record.UserID]record.Profile, cfg.Users),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Users; i++ {
		id := record.UserID(i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			gen := NewGeneratorWithConfig(NewSource(cfg.Seed, id), cfg.Generator)
			profile, days := gen.User(cfg.DaysPerUser)

			mu.Lock()
			ds.History[id] = days
			ds.Profiles[id] = profile
			done := len(ds.History)
			mu.Unlock()

			if done%10 == 0 {
				logger.Debug("generated users", zap.Int("done", done), zap.Int("total", cfg.Users))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dataset{}, fmt.Errorf("generate dataset: %w", err)
	}

	logger.Info("synthetic dataset ready",
		zap.Int("users", cfg.Users),
		zap.Int("days", ds.History.Days()),
		zap.Uint64("seed", cfg.Seed),
	)
	return ds, nil
}

// #endregion dataset
