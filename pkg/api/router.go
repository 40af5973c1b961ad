// Package api provides HTTP API server components.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/continuum/continuum/pkg/api/handlers"
	"github.com/continuum/continuum/pkg/api/middleware"
	"github.com/continuum/continuum/pkg/logger"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Memory handles memory-related endpoints
	Memory *handlers.MemoryHandler

	// Health handles health check endpoints
	Health *handlers.HealthHandler

	// Metrics is the optional metrics recorder
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	if handlers.Metrics != nil {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	RegisterRoutes(r, handlers)

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	r.Route("/api/v1/memory", func(r chi.Router) {
		if handlers.Memory != nil {
			r.Post("/encode", handlers.Memory.EncodeMultiLevel)
			r.Post("/retrieve", handlers.Memory.RetrieveSimilar)
			r.Post("/step", handlers.Memory.Step)
			r.Get("/stats", handlers.Memory.GetStats)
			r.Delete("/", handlers.Memory.Clear)

			r.Route("/{tier}", func(r chi.Router) {
				r.Post("/entries", handlers.Memory.Store)
				r.Post("/updates", handlers.Memory.UpdateLevel)
				r.Post("/retrieve", handlers.Memory.Retrieve)
			})
		}
	})

	// Health check routes (not versioned)
	if handlers.Health != nil {
		r.Get("/health", handlers.Health.Health)
		r.Get("/ready", handlers.Health.Ready)
		r.Get("/status", handlers.Health.Status)
	}
}
