// Package app wires configured backends together for the API server and the
// admin CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lg/calorie-budget-api/internal/config"
	"lg/calorie-budget-api/internal/onboarding"
	"lg/calorie-budget-api/internal/store"
)

// OpenLocal opens the on-device store named by cfg.Local.
func OpenLocal(cfg config.LocalConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverSQLite:
		return store.OpenSQLite(cfg.Path)
	}
	return nil, fmt.Errorf("unknown local driver %q", cfg.Driver)
}

// OpenStore returns the local store fronting the durable Postgres store when
// one is configured. An unreachable database is logged and the service runs
// local-only; a local store failure is fatal.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store.Fallback, error) {
	local, err := OpenLocal(cfg.Local)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	var durable store.Store
	if cfg.Database.URL != "" {
		pg, err := store.OpenPostgres(ctx, cfg.Database.URL, log)
		if err != nil {
			log.Warn("durable store unavailable; running local-only", zap.Error(err))
		} else {
			if cfg.Database.AutoMigrate {
				results, err := pg.Migrate(ctx)
				if err != nil {
					pg.Close()
					local.Close()
					return nil, fmt.Errorf("migrate: %w", err)
				}
				for _, r := range results {
					if r.Applied {
						log.Info("migration applied", zap.String("file", r.File))
					}
				}
			}
			durable = pg
		}
	}

	return store.NewFallback(local, durable, log).WithDurableTimeout(cfg.Database.DurableTimeout), nil
}

// OpenDrafts keeps onboarding drafts in Redis when it answers a ping, and in
// memory otherwise.
func OpenDrafts(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (onboarding.DraftStore, func() error) {
	if cfg.Address == "" {
		return onboarding.NewMemoryDrafts(), func() error { return nil }
	}
	client := onboarding.NewRedisClient(cfg.Address, cfg.Password, cfg.DB)
	if err := onboarding.Ping(ctx, client); err != nil {
		log.Warn("redis unavailable; keeping onboarding drafts in memory", zap.String("addr", cfg.Address), zap.Error(err))
		client.Close()
		return onboarding.NewMemoryDrafts(), func() error { return nil }
	}
	return onboarding.NewRedisDrafts(client, cfg.DraftTTL), client.Close
}
