package database

import (
	"context"
	"fmt"
	"time"

	"batterella/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// NewPool creates a new PostgreSQL connection pool.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_connections", cfg.MaxConnections).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("database connection pool created")

	return pool, nil
}

// Schema creates the order store tables. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id                 TEXT PRIMARY KEY,
	order_token        TEXT NOT NULL UNIQUE,
	customer_token     TEXT NOT NULL DEFAULT '',
	type               TEXT NOT NULL,
	source             TEXT NOT NULL,
	priority           TEXT NOT NULL DEFAULT 'normal',
	items              JSONB NOT NULL,
	phone              TEXT NOT NULL,
	location           TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	status             TEXT NOT NULL,
	total_amount       DOUBLE PRECISION NOT NULL,
	original_amount    DOUBLE PRECISION NOT NULL,
	discount_applied   DOUBLE PRECISION NOT NULL DEFAULT 0,
	estimated_time     INTEGER NOT NULL DEFAULT 0,
	driver_phone       TEXT NOT NULL DEFAULT '',
	tracking_code      TEXT NOT NULL,
	is_repeat_customer BOOLEAN NOT NULL DEFAULT FALSE,
	status_history     JSONB NOT NULL,
	metadata           JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_phone ON orders (phone);
CREATE INDEX IF NOT EXISTS idx_orders_tracking_code ON orders (tracking_code);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at DESC);

CREATE TABLE IF NOT EXISTS customers (
	phone             TEXT PRIMARY KEY,
	customer_token    TEXT NOT NULL,
	order_count       INTEGER NOT NULL DEFAULT 0,
	total_spent       DOUBLE PRECISION NOT NULL DEFAULT 0,
	first_order_date  TIMESTAMPTZ NOT NULL,
	last_order_date   TIMESTAMPTZ NOT NULL,
	loyalty_points    INTEGER NOT NULL DEFAULT 0,
	discount_eligible BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS pending_approvals (
	order_id          TEXT PRIMARY KEY,
	phone             TEXT NOT NULL,
	order_token       TEXT NOT NULL DEFAULT '',
	customer_token    TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL,
	original_amount   DOUBLE PRECISION NOT NULL,
	discount_amount   DOUBLE PRECISION NOT NULL,
	discounted_amount DOUBLE PRECISION NOT NULL
);
`

// Migrate applies Schema to the database behind pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info().Msg("database schema applied")
	return nil
}
