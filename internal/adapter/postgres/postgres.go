// Package postgres provides the PostgreSQL connection pool, the schema
// migration runner and the database.Store implementation.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql (needed by goose)
	"github.com/pressly/goose/v3"

	cfotel "github.com/Strob0t/DealerForge/internal/adapter/otel"
	"github.com/Strob0t/DealerForge/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// applicationName tags every connection so server-side logs and
// pg_stat_activity show which sessions belong to the service.
const applicationName = "dealerforge"

// Open applies the embedded schema, connects a pool and returns a Store
// recording transaction metrics into m. The returned func closes the pool.
func Open(ctx context.Context, cfg config.Postgres, m *cfotel.Metrics) (*Store, func(), error) {
	if err := RunMigrations(ctx, cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	stat := pool.Stat()
	slog.Info("postgres connected", "max_conns", stat.MaxConns())

	store := NewStore(pool)
	store.SetMetrics(m)
	return store, pool.Close, nil
}

// NewPool creates a pgxpool connection pool from a config.Postgres struct.
func NewPool(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// poolConfig parses the DSN and applies the configured sizes. Zero values
// keep the pgx defaults. Every transaction holds one connection for its
// whole run, so MinConns above MaxConns is clamped rather than rejected.
func poolConfig(cfg config.Postgres) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = min(cfg.MinConns, poolCfg.MaxConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheck > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheck
	}
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return poolCfg, nil
}

// RunMigrations applies all pending goose migrations from the embedded SQL files.
func RunMigrations(ctx context.Context, dsn string) error {
	goose.SetBaseFS(migrations)

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
