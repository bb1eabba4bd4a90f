package rest

import (
	"net/http"
	"os"
	"strings"

	"github.com/flowmesh/flowmesh/internal/api/rest/handlers"
	customMiddleware "github.com/flowmesh/flowmesh/internal/api/rest/middleware"
	"github.com/flowmesh/flowmesh/pkg/logger"
	"github.com/flowmesh/flowmesh/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds the HTTP router and dependencies
type Router struct {
	router   *chi.Mux
	logger   *logger.Logger
	handlers *handlers.Handlers
	metrics  *metrics.Metrics
}

// NewRouter creates a new HTTP router
func NewRouter(log *logger.Logger, h *handlers.Handlers, m *metrics.Metrics) *Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	if m != nil {
		r.Use(customMiddleware.Metrics(m))
	}

	// CORS - configure allowed origins from environment
	allowedOrigins := []string{"http://localhost:3000"}
	if originsEnv := os.Getenv("ALLOWED_ORIGINS"); originsEnv != "" {
		allowedOrigins = strings.Split(originsEnv, ",")
		for i := range allowedOrigins {
			allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
		}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Link", "X-Request-ID"},
		MaxAge:         300,
	}))

	return &Router{
		router:   r,
		logger:   log,
		handlers: h,
		metrics:  m,
	}
}

// SetupRoutes configures all API routes
func (r *Router) SetupRoutes() {
	// Prometheus metrics endpoint
	r.router.Handle("/metrics", promhttp.Handler())

	// Health endpoints
	r.router.Get("/health", r.handlers.Health.Health)
	r.router.Get("/ready", r.handlers.Health.Ready)

	// API v1
	r.router.Route("/api/v1", func(router chi.Router) {
		router.Route("/workflows", func(router chi.Router) {
			router.Post("/{id}/execute", r.handlers.Execution.ExecuteWorkflow)
		})

		router.Route("/executions", func(router chi.Router) {
			router.Post("/", r.handlers.Execution.ExecuteInline)
			router.Get("/", r.handlers.Execution.ListExecutions)
			router.Get("/{id}", r.handlers.Execution.GetExecution)
			router.Post("/{id}/cancel", r.handlers.Execution.CancelExecution)
		})
	})
}

// Handler returns the underlying http.Handler
func (r *Router) Handler() http.Handler {
	return r.router
}
