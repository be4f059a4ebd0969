package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"batterella/internal/config"
	"batterella/internal/database"
	"batterella/internal/export"
	"batterella/internal/handler"
	"batterella/internal/realtime"
	"batterella/internal/repository"
	"batterella/internal/router"
	"batterella/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("storage", cfg.Storage.Backend).Msg("starting batterella API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize the realtime hub and, when enabled, the cross-process relay
	hub := realtime.NewHub(cfg.Realtime.ClientBuffer, logger)
	go hub.Run(ctx)

	var publisher realtime.Publisher = hub
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		defer rdb.Close()

		// Run keeps retrying while Redis is down; until it subscribes, events
		// are also delivered to this process's hub.
		relay := realtime.NewRedisRelay(rdb, cfg.Redis.Channel, hub, logger)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("redis relay stopped")
			}
		}()
		publisher = relay
	} else {
		logger.Info().Msg("redis relay disabled, events stay in process")
	}

	// Initialize the export archiver with S3 when enabled
	archiver := export.NewNopArchiver()
	if cfg.S3.Enabled {
		s3Archiver, err := export.NewS3Archiver(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 archiver, export archiving disabled")
		} else {
			archiver = s3Archiver
		}
	}

	// Initialize services
	svc := service.New(store, publisher, service.Options{
		DefaultDiscountPercent: cfg.Discount.DefaultPercent,
	}, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Orders:    handler.NewOrderHandler(svc.Orders, logger),
		Tracking:  handler.NewTrackingHandler(svc.Orders, logger),
		Discounts: handler.NewDiscountHandler(svc.Discounts, logger),
		Customers: handler.NewCustomerHandler(svc.Orders, logger),
		Realtime:  handler.NewRealtimeHandler(hub, svc.Orders, svc.Discounts, cfg.Realtime.Heartbeat, logger),
		Admin:     handler.NewAdminHandler(svc.Admin, hub, archiver, logger),
	}, cfg.Auth.APIKey, logger)

	// Create HTTP server. No write timeout: event streams stay open indefinitely.
	server := &http.Server{
		Addr:        cfg.Server.Address(),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Stop the hub first so open event streams return
		cancel()

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newStore opens the configured storage backend. The returned func releases it.
func newStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repository.NewPostgresStore(pool, logger), pool.Close, nil

	case config.StorageFile:
		store, err := repository.NewFileStore(cfg.Storage.DataDir, cfg.Storage.CacheTTL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return store, func() {}, nil

	default:
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		return repository.NewMemoryStore(logger), func() {}, nil
	}
}
