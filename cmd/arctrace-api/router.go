package main

import (
	"net/http"
	"time"

	"arc-tracer/cmd/arctrace-api/handlers"
	"arc-tracer/cmd/arctrace-api/middleware"
	"arc-tracer/internal/observability"
	"arc-tracer/internal/pipeline"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig holds the settings the router needs.
type RouterConfig struct {
	RequestTimeout time.Duration
	MaxUploadBytes int64
	AllowedOrigins []string
	Defaults       func() pipeline.Params
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, runner pipeline.Runner, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", handlers.Health)
	r.Get("/version", handlers.Version)

	process := handlers.NewProcessHandler(logger, runner, cfg.Defaults, cfg.MaxUploadBytes)
	r.Post("/process", process.Process)

	return r
}
