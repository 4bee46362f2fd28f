package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/instanthelp/dispatch/internal/adapters/factory"
	httpAdapter "github.com/instanthelp/dispatch/internal/adapters/http"
	"github.com/instanthelp/dispatch/internal/adapters/rediscache"
	"github.com/instanthelp/dispatch/internal/config"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/instanthelp/dispatch/internal/domain/service"
	"github.com/instanthelp/dispatch/internal/metrics"
	"github.com/instanthelp/dispatch/internal/observability"
)

func main() {
	// Load .env if present, real environment wins
	_ = godotenv.Load()

	// Initialize logger
	logger := observability.New("dispatch-main", "")

	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		logger.Fatalw("Failed to load configuration", "error", err)
	}
	observability.SetLevel(cfg.Logging.Level)

	// Register Prometheus collectors
	if cfg.Metrics.Enabled {
		metrics.Init()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect the persistence backend
	adapter, err := connectDatabase(ctx, cfg)
	if err != nil {
		logger.Fatalw("Failed to connect database", "type", cfg.Database.Type, "error", err)
	}
	defer adapter.Disconnect(context.Background())
	logger.Infow("✓ Database connected", "type", adapter.GetType())

	// Initialize the optional emergency read cache
	var cache ports.CacheRepository
	if cfg.Cache.Enabled {
		redisCache, err := rediscache.New(ctx, rediscache.Config{
			Addr:     fmt.Sprintf("%s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			logger.Fatalw("Failed to connect redis cache", "error", err)
		}
		defer redisCache.Close()
		cache = redisCache
		logger.Info("✓ Redis cache connected")
	}

	// Initialize dispatch service
	dispatchService := service.NewDispatchService(
		adapter.EmergencyRepository(),
		adapter.UnitRepository(),
		adapter.AuditRepository(),
		adapter.AdminRepository(),
		cache,
		service.Options{
			ResponseTimePolicy: config.ResponseTimePolicy(cfg.Dispatch.ResponseTimePolicy),
			CacheTTLSeconds:    cfg.Cache.TTLSeconds,
		},
	)
	logger.Info("✓ Dispatch service initialized")

	// Provision default operator accounts and response units
	if cfg.Dispatch.SeedDefaults {
		if err := dispatchService.Seed(ctx); err != nil {
			logger.Fatalw("Failed to seed defaults", "error", err)
		}
		logger.Info("✓ Default admins and units seeded")
	}

	// Start the pending-emergency re-dispatch sweep
	go runSweep(ctx, dispatchService, cfg.Dispatch.SweepInterval, logger)

	// Initialize HTTP server
	httpServerConfig := httpAdapter.ServerConfig{
		ListenAddr:   fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		EnableH2C:    true, // HTTP/2 Cleartext behind the ingress
		Metrics: httpAdapter.RouterOptions{
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsPath:    cfg.Metrics.Path,
		},
	}

	httpServer := httpAdapter.NewServer(httpServerConfig, dispatchService, adapter)
	if err := httpServer.Start(); err != nil {
		logger.Fatalw("Failed to start HTTP server", "error", err)
	}
	logger.Infow("✓ HTTP server listening", "address", httpServer.GetAddr())

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()

	if err := httpServer.Stop(); err != nil {
		logger.Errorw("HTTP server shutdown failed", "error", err)
	}

	logger.Info("Shutdown complete")
}

// connectDatabase builds the adapter configuration and connects the backend
func connectDatabase(ctx context.Context, cfg *config.Config) (ports.DatabaseAdapter, error) {
	dbConfig := &ports.DatabaseConfig{
		Type: ports.DatabaseType(cfg.Database.Type),
		Postgres: &ports.PostgresConfig{
			Host:            cfg.Database.Postgres.Host,
			Port:            cfg.Database.Postgres.Port,
			User:            cfg.Database.Postgres.User,
			Password:        cfg.Database.Postgres.Password,
			Database:        cfg.Database.Postgres.Database,
			SSLMode:         cfg.Database.Postgres.SSLMode,
			MaxOpenConns:    cfg.Database.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Database.Postgres.MaxIdleConns,
			ConnMaxLifetime: int(cfg.Database.Postgres.ConnMaxLifetime / time.Second),
		},
		MongoDB: &ports.MongoDBConfig{
			URI:         cfg.Database.MongoDB.URI,
			Database:    cfg.Database.MongoDB.Database,
			MaxPoolSize: cfg.Database.MongoDB.MaxPoolSize,
			MinPoolSize: cfg.Database.MongoDB.MinPoolSize,
		},
	}

	adapterFactory := factory.NewDatabaseAdapterFactory()
	if err := adapterFactory.ValidateConfig(dbConfig); err != nil {
		return nil, err
	}
	return adapterFactory.CreateAndConnectAdapter(ctx, dbConfig)
}

// runSweep periodically re-runs assignment over pending emergencies so that
// reports deferred for lack of units pick up freed capacity
func runSweep(ctx context.Context, svc ports.DispatchService, interval time.Duration, logger observability.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.RedispatchPending(ctx); err != nil {
				logger.Warnw("Re-dispatch sweep failed", "error", err)
			}
		}
	}
}
