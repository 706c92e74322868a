package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kailas-cloud/labcompare/internal/metrics"
)

// NewRouter mounts the API routes behind the standard middleware stack.
// No apiKeys disables authentication.
func NewRouter(s *Server, apiKeys []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer(log))
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID", "X-Embedding-Tokens"},
		MaxAge:         300,
	}))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/", s.Root)
	r.Post("/scrape", s.Scrape)
	r.Post("/analyze", s.Analyze)
	r.Get("/comparisons", s.ListComparisons)
	r.Get("/comparisons/{city}", s.GetComparison)
	r.Delete("/comparisons/{city}", s.DeleteComparison)
	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}
