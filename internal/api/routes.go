package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/manseryeok-api/internal/config"
	"github.com/zapponejosh/manseryeok-api/internal/metrics"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health                        liveness, database and cache stats
//	GET  /metrics                       Prometheus exposition
//	POST /api/v1/saju                   four pillars chart
//	GET  /api/v1/lunar/to-solar         lunar -> solar (?date, ?leap)
//	GET  /api/v1/lunar/from-solar       solar -> lunar (?date)
//	GET  /api/v1/solar-terms/{year}     month-opening terms (?all for 24)
//
// Everything under /api/v1 passes the API key check.
func SetupRoutes(handlers *Handlers, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger, m),
		CORSMiddleware(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	// ==========================================================================
	// Public routes
	// ==========================================================================
	r.Get("/health", handlers.HealthCheck)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// ==========================================================================
	// API routes
	// ==========================================================================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg, logger))

		r.Post("/saju", handlers.CalculateSaju)
		r.Get("/lunar/to-solar", handlers.LunarToSolar)
		r.Get("/lunar/from-solar", handlers.SolarToLunar)
		r.Get("/solar-terms/{year}", handlers.SolarTerms)
	})

	return r
}
