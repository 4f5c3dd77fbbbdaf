// Package console assembles the admin API server.
package console

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/pysugar/nexus-console/internal/console/handlers"
	"github.com/pysugar/nexus-console/internal/console/middleware"
	"github.com/pysugar/nexus-console/internal/console/monitor"
	"github.com/pysugar/nexus-console/internal/logging"
	"github.com/pysugar/nexus-console/internal/metrics"
	"github.com/pysugar/nexus-console/internal/requestfilter"
	"gorm.io/gorm"
)

// Server holds what the handlers share.
type Server struct {
	DB         *gorm.DB
	Monitor    *monitor.UsageMonitor
	Filters    *requestfilter.Cache
	AdminToken string // empty: use the token stored in the database
}

// NewServer wires a monitor and a filter cache to database.
func NewServer(database *gorm.DB, adminToken string) *Server {
	return &Server{
		DB:         database,
		Monitor:    monitor.NewUsageMonitor(database),
		Filters:    requestfilter.NewCache(database),
		AdminToken: adminToken,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(logging.Middleware)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)

	// ============================================
	// Public Routes (No Auth Required)
	// ============================================
	r.Get("/health", handlers.HealthHandler())
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// ============================================
	// Admin API (Bearer token)
	// ============================================
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AdminAuth(s.DB, s.AdminToken))

		// Usage logs
		r.Get("/usage-logs", handlers.UsageLogsHandler(s.DB))
		r.Post("/usage-logs", handlers.IngestUsageLogHandler(s.Monitor))
		r.Delete("/usage-logs", handlers.ClearUsageLogsHandler(s.Monitor))
		r.Get("/usage-logs/stats", handlers.UsageStatsHandler(s.Monitor))
		r.Get("/usage-logs/{id}/trace", handlers.UsageLogTraceHandler(s.DB))

		// Sessions
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", handlers.SessionDetailsHandler(s.DB))
			r.Get("/requests", handlers.SessionRequestsHandler(s.DB))
			r.Get("/has-messages", handlers.SessionHasMessagesHandler(s.DB))
			r.Get("/export", handlers.SessionExportHandler(s.DB))
			r.Post("/terminate", handlers.TerminateSessionHandler(s.DB))
		})

		// Providers
		r.Get("/providers", handlers.ListProvidersHandler(s.DB))
		r.Post("/providers", handlers.CreateProviderHandler(s.DB))
		r.Put("/providers/{id}", handlers.UpdateProviderHandler(s.DB))
		r.Delete("/providers/{id}", handlers.DeleteProviderHandler(s.DB))
		r.Get("/providers/{id}/key", handlers.ProviderKeyHandler(s.DB))
		r.Post("/providers/{id}/reset-circuit", handlers.ResetProviderCircuitHandler(s.DB))
		r.Post("/providers/{id}/reset-usage", handlers.ResetProviderUsageHandler(s.DB))

		// Request filters
		r.Get("/request-filters", handlers.ListRequestFiltersHandler(s.DB))
		r.Post("/request-filters", handlers.CreateRequestFilterHandler(s.DB, s.Filters))
		r.Post("/request-filters/refresh", handlers.RefreshRequestFiltersHandler(s.Filters))
		r.Get("/request-filters/providers", handlers.FilterProvidersHandler(s.DB))
		r.Get("/request-filters/groups", handlers.ProviderGroupsHandler(s.DB))
		r.Put("/request-filters/{id}", handlers.UpdateRequestFilterHandler(s.DB, s.Filters))
		r.Delete("/request-filters/{id}", handlers.DeleteRequestFilterHandler(s.DB, s.Filters))
	})

	return r
}
