package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sikong32/mytodo/internal/app"
	"github.com/sikong32/mytodo/internal/clock"
	"github.com/sikong32/mytodo/internal/config"
	"github.com/sikong32/mytodo/internal/storage/memory"
	"github.com/sikong32/mytodo/internal/storage/postgres"
	"github.com/sikong32/mytodo/internal/storage/sqlite"
	transporthttp "github.com/sikong32/mytodo/internal/transport/http"
	"github.com/sikong32/mytodo/migrations"
)

type openedStore struct {
	rows   app.RowStore
	health transporthttp.HealthCheck
	close  func()
}

// openStore connects the configured driver. Postgres migrations are applied
// before the store is returned.
func openStore(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *log.Logger) (*openedStore, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Printf("WARN: using in-memory store, data is lost on exit")
		return &openedStore{rows: memory.New(clk), close: func() {}}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Store.SQLitePath, clk)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Store.SQLitePath, err)
		}
		logger.Printf("store driver=sqlite path=%s", cfg.Store.SQLitePath)
		return &openedStore{
			rows:   db,
			health: db.Ping,
			close:  func() { _ = db.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := connectPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		applied, err := migrations.Apply(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		for _, name := range applied {
			logger.Printf("migration applied name=%s", name)
		}
		return &openedStore{
			rows:   postgres.NewScheduleStore(pool),
			health: pool.Ping,
			close:  pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func connectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}
