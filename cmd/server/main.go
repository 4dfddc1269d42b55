package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stratoslabs/dircore/internal/api"
	"github.com/stratoslabs/dircore/internal/config"
	"github.com/stratoslabs/dircore/internal/repo/directory"
	"github.com/stratoslabs/dircore/internal/tracing"
	"github.com/stratoslabs/dircore/pkg/cache"
	"github.com/stratoslabs/dircore/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting DIRCORE", "version", api.Version, "environment", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Valkey caching with in-memory fallback
	valkeyCache, err := cache.NewValkeySingle(cfg.Cache.Addr, cfg.Cache.DB, cfg.Cache.Password, time.Duration(cfg.Cache.TTL)*time.Second)
	if err != nil {
		logger.Warn("Failed to connect to Valkey, falling back to in-memory cache", "addr", cfg.Cache.Addr, "error", err)
		valkeyCache = cache.NewNoopValkey(logger)
	} else {
		logger.Info("Valkey cache initialized", "addr", cfg.Cache.Addr)
	}

	// Initialize the principal store
	var store directory.Store
	if cfg.Database.Postgres.URL != "" {
		pgStore, err := directory.NewPostgresStore(ctx, cfg.Database.Postgres.URL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Postgres store", "error", err)
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to ensure Postgres schema", "error", err)
		}
		logger.Info("Postgres principal store initialized")
		store = pgStore
	} else {
		logger.Warn("No Postgres URL configured; using in-memory principal store (development only)")
		store = directory.NewMemoryStore()
	}

	// Wrap the store with the Valkey read cache
	cachedStore := directory.NewCachedStore(store, valkeyCache, logger, time.Duration(cfg.Cache.TTL)*time.Second)

	// Initialize distributed tracing
	if cfg.Tracing.Enabled {
		tracerProvider, err := tracing.NewTracerProvider("dircore", api.Version, cfg.Tracing.OTLPEndpoint)
		if err != nil {
			logger.Warn("Failed to initialize tracing", "endpoint", cfg.Tracing.OTLPEndpoint, "error", err)
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
					logger.Error("Failed to shut down tracer provider", "error", err)
				}
			}()
			logger.Info("Distributed tracing initialized", "endpoint", cfg.Tracing.OTLPEndpoint)
		}
	}

	// Initialize API server
	apiServer := api.NewServer(cfg, logger, valkeyCache, cachedStore, cachedStore)

	// Setup graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// Start server
	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed to start", "error", err)
	}

	logger.Info("DIRCORE shutdown complete")
}
