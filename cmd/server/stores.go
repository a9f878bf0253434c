package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/internal/config"
	"github.com/freeeve/polforge/api/internal/repository"
	"github.com/freeeve/polforge/api/internal/repository/memory"
	"github.com/freeeve/polforge/api/internal/repository/postgres"
	redisrepo "github.com/freeeve/polforge/api/internal/repository/redis"
	"github.com/freeeve/polforge/api/internal/repository/sqlite"
)

// stores is the persistence wiring for one backend. cache and rdb are nil
// when the backend has no live cache.
type stores struct {
	users     repository.UserRepository
	games     repository.GameRepository
	snapshots repository.SnapshotRepository
	cache     repository.GameCache
	rdb       *redis.Client
	closers   []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store {
	case config.StorePostgres:
		return openPostgres(ctx, cfg)
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite store")
		return &stores{
			users:     db,
			games:     db.Games(),
			snapshots: db,
			closers:   []func() error{db.Close},
		}, nil
	case config.StoreMemory:
		m := memory.New()
		log.Warn().Msg("Using in-memory store, games are lost on restart")
		return &stores{users: m, games: m.Games(), snapshots: m, cache: m}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*stores, error) {
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	rc, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := rc.EnableExpiryEvents(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (idle eviction falls back to sweeping)")
	}
	return &stores{
		users:     postgres.NewUserRepo(db),
		games:     postgres.NewGameRepo(db),
		snapshots: postgres.NewSnapshotRepo(db),
		cache:     rc,
		rdb:       rc.Underlying(),
		closers:   []func() error{db.Close, rc.Close},
	}, nil
}
