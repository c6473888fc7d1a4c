// Package httptransport assembles the HTTP surface: issuer API, public
// verification portal, and operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veriseal/internal/platform/metrics"
	"veriseal/internal/platform/middleware"
	"veriseal/internal/transport/http/shared"
)

// Registrar is implemented by feature handlers that attach their own routes
// and middleware chains.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports backend liveness. Optional backends register a nil
// check and are skipped.
type HealthChecker func(ctx context.Context) error

// NewRouter wires all endpoints. Feature routers own their middleware
// chains; only the cross-cutting concerns live here.
func NewRouter(logger *slog.Logger, httpMetrics *metrics.HTTP, checks map[string]HealthChecker, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(httpMetrics.Middleware)

	for _, h := range handlers {
		h.Register(r)
	}

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/healthz", handleHealth(checks))

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		backends := make(map[string]string, len(checks))
		for name, check := range checks {
			if check == nil {
				backends[name] = "disabled"
				continue
			}
			if err := check(ctx); err != nil {
				backends[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			backends[name] = "ok"
		}
		shared.WriteJSON(w, status, map[string]any{
			"status":   http.StatusText(status),
			"backends": backends,
		})
	}
}
