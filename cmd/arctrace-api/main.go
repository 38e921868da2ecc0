// Package main provides the arc-tracer API server entrypoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arc-tracer/internal/app"
	"arc-tracer/internal/config"
	"arc-tracer/internal/observability"
	"arc-tracer/internal/version"
	"arc-tracer/internal/vision/opencv"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	envFile := flag.String("env-file", ".env", "path to .env file")
	watch := flag.Duration("watch", 0, "reload pipeline defaults when the config file changes, polling at this interval (0 disables)")
	flag.Parse()

	config.LoadEnvFiles(*envFile)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("version", version.Version).
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting arc-tracer API")

	ctx := context.Background()
	a, err := app.New(ctx, cfg, opencv.New(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	if *cfgPath != "" && *watch > 0 {
		if w := startWatcher(a, *cfgPath, *watch); w != nil {
			defer w.Stop()
		}
	}

	router := NewRouter(logger, a.Runner, RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Defaults:       a.Defaults,
	})

	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

// startWatcher swaps the pipeline defaults whenever the config file changes.
// Other settings need a restart.
func startWatcher(a *app.App, path string, every time.Duration) *app.ConfigWatcher {
	w := app.NewConfigWatcher(path, every)
	if w == nil {
		a.Logger.Warn().Str("path", path).Msg("Config watch disabled: file not found")
		return nil
	}

	w.OnChange(func(cfg *config.Config) {
		a.SetDefaults(cfg.Pipeline)
		a.Logger.Info().
			Str("path", path).
			Float64("sampling_rate", cfg.Pipeline.SamplingRate).
			Str("method", cfg.Pipeline.Method).
			Str("mode", cfg.Pipeline.Mode).
			Msg("Pipeline defaults reloaded")
	})
	w.OnError(func(err error) {
		a.Logger.Warn().Err(err).Str("path", path).Msg("Config reload rejected")
	})

	w.Start()
	return w
}
