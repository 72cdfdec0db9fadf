package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"telemetry-dashboard/internal/viewstate"
)

// OpenViewState otevře úložiště stavu zobrazení podle STORE_BACKEND.
// Vrací i funkci pro uzavření spojení (defer v main).
func OpenViewState(ctx context.Context, cfg Config, logger *slog.Logger) (*viewstate.Store, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch cfg.StoreBackend {
	case "redis", "valkey":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.ValkeyAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("valkey nedostupný (%s): %w", cfg.ValkeyAddr, err)
		}
		logger.Info("View-state v Valkey", "addr", cfg.ValkeyAddr)
		return viewstate.New(viewstate.NewRedisBackend(rdb), viewstate.WithLogger(logger)),
			func() { rdb.Close() }, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("nelze vytvořit DB pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("databáze nedostupná: %w", err)
		}
		backend, err := viewstate.NewPostgresBackend(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("View-state v PostgreSQL")
		return viewstate.New(backend, viewstate.WithLogger(logger)), pool.Close, nil

	case "memory", "":
		logger.Warn("View-state jen v paměti, restart ho smaže")
		return viewstate.New(viewstate.NewMemoryBackend(), viewstate.WithLogger(logger)), func() {}, nil
	}
	return nil, nil, fmt.Errorf("neznámý STORE_BACKEND %q", cfg.StoreBackend)
}
