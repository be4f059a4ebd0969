// Command migrate applies the Postgres schema and reports what the store holds.
// It reads the same environment as the API server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"batterella/internal/config"
	"batterella/internal/database"
	"batterella/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Storage.Backend != config.StoragePostgres {
		return fmt.Errorf("STORAGE_BACKEND must be %q to migrate, got %q", config.StoragePostgres, cfg.Storage.Backend)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return fmt.Errorf("failed to query current database: %w", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}

	stats, err := repository.NewPostgresStore(pool, logger).Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Schema applied to database: %s\n", dbName)
	fmt.Printf("  orders:            %d\n", stats.Orders)
	fmt.Printf("  customers:         %d\n", stats.Customers)
	fmt.Printf("  pending approvals: %d\n", stats.PendingApprovals)
	return nil
}
