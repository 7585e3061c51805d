package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"namereg/internal/platform/metrics"
	"namereg/internal/platform/middleware"
)

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter assembles the service router: global middleware, operational
// endpoints, and every domain handler's routes. Handlers stay thin; the
// domain services enforce authorization themselves, so the identity
// middleware only annotates the request context.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, validator middleware.TokenValidator, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.ClientInfo)
	r.Use(middleware.Identity(validator, logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
