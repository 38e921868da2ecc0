// Package app wires configuration, logging, the vision backend, the
// pipeline and its optional cache and debug sink into one runnable unit
// shared by the HTTP service and the CLI.
package app

import (
	"context"
	"sync/atomic"

	"arc-tracer/internal/cache"
	"arc-tracer/internal/config"
	"arc-tracer/internal/debug"
	"arc-tracer/internal/observability"
	"arc-tracer/internal/pipeline"
	"arc-tracer/internal/vision"

	"github.com/pkg/errors"
)

// App holds the long-lived collaborators of a process.
type App struct {
	Config   *config.Config
	Logger   *observability.Logger
	Pipeline *pipeline.Pipeline
	// Runner is Pipeline, wrapped with a result cache when one is configured.
	Runner pipeline.Runner

	defaults atomic.Pointer[pipeline.Params]
	cache    cache.Client
}

// New builds an App from cfg on top of tk.
func New(ctx context.Context, cfg *config.Config, tk vision.Toolkit, logger *observability.Logger) (*App, error) {
	if logger == nil {
		logger = observability.Nop()
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Debug.Enabled {
		opts = append(opts, pipeline.WithSink(debug.NewFileSink(tk, cfg.Debug.Dir, cfg.Debug.Overwrite)))
		logger.Info().
			Str("dir", cfg.Debug.Dir).
			Bool("overwrite", cfg.Debug.Overwrite).
			Msg("debug artifacts enabled")
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Pipeline: pipeline.New(tk, opts...),
	}
	a.Runner = a.Pipeline
	a.SetDefaults(cfg.Pipeline)

	client, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if client != nil {
		a.cache = client
		a.Runner = pipeline.NewCachedRunner(a.Pipeline, client, cfg.Cache.TTL, logger)
		logger.Info().Str("driver", cfg.Cache.Driver).Dur("ttl", cfg.Cache.TTL).Msg("result cache enabled")
	}

	return a, nil
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Client, error) {
	switch cfg.Driver {
	case "memory":
		return cache.NewMemoryClient(cfg.MaxEntries), nil
	case "redis":
		c, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, errors.Wrap(err, "connect result cache")
		}
		return c, nil
	default:
		return nil, nil
	}
}

// Defaults returns the parameters applied to fields a caller leaves unset.
func (a *App) Defaults() pipeline.Params {
	return *a.defaults.Load()
}

// SetDefaults replaces the default parameters. Safe for concurrent use.
func (a *App) SetDefaults(p pipeline.Params) {
	a.defaults.Store(&p)
}

// Close releases the cache connection, if any.
func (a *App) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}
