// Package httptransport is the chi HTTP layer. Handlers decode requests,
// call a service and map coded errors to responses; no domain logic lives
// here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spverifier/internal/platform/metrics"
	"spverifier/internal/platform/middleware"
	ratelimit "spverifier/internal/ratelimit/middleware"
	"spverifier/pkg/platform/httputil"
	"spverifier/pkg/platform/middleware/admin"
	"spverifier/pkg/platform/middleware/auth"
	"spverifier/pkg/platform/middleware/metadata"
	"spverifier/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries everything the router mounts. Admin routes are only
// mounted when AdminToken is set.
type RouterConfig struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Devices    auth.DeviceAuthenticator
	AdminToken string
	RateLimit  *ratelimit.Middleware

	// TrustedProxies may set X-Forwarded-For / X-Real-IP.
	TrustedProxies metadata.Proxies

	// Checks back GET /ready, keyed by dependency name.
	Checks map[string]HealthCheck

	Verify     *VerifyHandler
	Definition *DefinitionHandler
	Metadata   *MetadataHandler
	Admin      *AdminHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata(cfg.TrustedProxies))
	r.Use(middleware.Logger(cfg.Logger))
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit.Handler)
	}
	r.Use(chimw.Timeout(30 * time.Second))
	if cfg.Metrics != nil {
		r.Use(middleware.Latency(cfg.Metrics))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/ready", readiness(cfg.Checks, cfg.Logger))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	deviceAuth := auth.RequireDevice(cfg.Devices, cfg.Logger)
	cfg.Verify.Register(r, deviceAuth)
	cfg.Definition.Register(r, deviceAuth)
	cfg.Metadata.Register(r, deviceAuth)
	if cfg.AdminToken != "" && cfg.Admin != nil {
		cfg.Admin.Register(r, admin.RequireAdminToken(cfg.AdminToken, cfg.Logger))
	}
	return r
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func readiness(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := readinessResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
				resp.Checks[name] = "unavailable"
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
