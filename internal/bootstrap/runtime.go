// Package bootstrap connects the process to its backing services.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stocktalk/internal/cache"
	"stocktalk/internal/config"
	"stocktalk/internal/database"
	"stocktalk/internal/events"
	"stocktalk/internal/middleware"
	"stocktalk/internal/observability"
	"stocktalk/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ServiceName identifies the API in traces and metrics.
const ServiceName = "stocktalk-api"

// Options control runtime initialization behavior.
type Options struct {
	Tracing bool
}

// Runtime holds the connections a process shares between its components.
type Runtime struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Publisher events.Publisher
	// Avatars is nil when profile picture storage is disabled or unreachable.
	Avatars storage.ObjectStore

	shutdownTracing func(context.Context) error
}

// InitRuntime connects the database, Redis, the event publisher and object
// storage. Only the database is required; the rest degrade with a warning.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{shutdownTracing: func(context.Context) error { return nil }}

	if opts.Tracing {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    ServiceName,
			ServiceVersion: "1.0.0",
			Environment:    cfg.Env,
			Enabled:        cfg.TracingEnabled,
			Exporter:       cfg.TracingExporter,
			OTLPEndpoint:   cfg.OTLPEndpoint,
			SamplerRatio:   cfg.TracingSamplerRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		rt.shutdownTracing = shutdown
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	rt.Redis = cache.GetClient()

	rt.Publisher, err = events.NewPublisher(cfg, rt.Redis)
	if err != nil {
		return nil, fmt.Errorf("event publisher init failed: %w", err)
	}
	middleware.Logger.Info("Event publisher ready", slog.String("driver", rt.Publisher.Driver()))

	if cfg.StorageEnabled {
		rt.Avatars = connectStorage(ctx, cfg)
	}

	return rt, nil
}

func connectStorage(ctx context.Context, cfg *config.Config) storage.ObjectStore {
	store, err := storage.NewMinioStore(storage.MinioConfigFrom(cfg))
	if err != nil {
		middleware.Logger.Warn("Object storage misconfigured, profile pictures disabled", slog.String("error", err.Error()))
		return nil
	}
	if err := store.EnsureBucket(ctx); err != nil {
		middleware.Logger.Warn("Object storage unreachable, profile pictures disabled", slog.String("error", err.Error()))
		return nil
	}
	middleware.Logger.Info("Object storage ready", slog.String("bucket", cfg.MinioBucket))
	return store
}

// Close releases everything InitRuntime opened. All closers run; their errors
// are joined.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Publisher != nil {
		if err := rt.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event publisher: %w", err))
		}
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	if err := rt.shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
	}
	return errors.Join(errs...)
}
