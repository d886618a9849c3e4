package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/coffeefinder/internal/metrics"
)

// RouterConfig configures the middleware stack.
type RouterConfig struct {
	APIKeys []string
	// RateLimitRequests per RateLimitWindow per client IP on /api/v1. Zero disables.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter mounts the API and its middleware on a chi router.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(cfg.APIKeys))

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/search", s.Search)
		r.Post("/search/export", s.ExportSearch)
		r.Get("/venues/{id}", s.GetVenue)
		r.Get("/catalog", s.GetCatalog)
		r.Post("/catalog/refresh", s.RefreshCatalog)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}
