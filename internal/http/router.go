// Package httpapi assembles the public HTTP surface: global middleware,
// health and metrics endpoints, and the auth and buyer routes.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "leadbook/internal/auth/handler"
	buyerhandler "leadbook/internal/buyer/handler"
	"leadbook/internal/platform/config"
	"leadbook/internal/platform/metrics"
	"leadbook/internal/platform/middleware"
	ratelimitmw "leadbook/internal/ratelimit/middleware"
	ratelimitmodels "leadbook/internal/ratelimit/models"
	"leadbook/pkg/platform/httputil"
	authmw "leadbook/pkg/platform/middleware/auth"
	metadata "leadbook/pkg/platform/middleware/metadata"
	"leadbook/pkg/platform/middleware/requesttime"
)

// Dependencies are the collaborators NewRouter wires into handlers.
type Dependencies struct {
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics

	Buyers  buyerhandler.Service
	Auth    authhandler.Service
	Tokens  authmw.JWTValidator
	Limiter ratelimitmw.RateLimiter

	// Health reports dependency status; nil means always healthy.
	Health func(r *http.Request) map[string]string
}

// NewRouter wires all public endpoints.
func NewRouter(cfg config.Config, deps Dependencies) http.Handler {
	log := deps.Logger

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(log))

	r.Get("/healthz", healthHandler(deps.Health))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	requireAuth := authmw.RequireAuth(deps.Tokens, log)
	limits := ratelimitmw.New(deps.Limiter, log,
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithMetrics(deps.Metrics),
	)

	authhandler.New(deps.Auth, log, requireAuth, cfg.Session.SecureCookie).Register(r)
	buyerhandler.New(deps.Buyers, log, deps.Metrics, buyerhandler.Guards{
		Auth:        requireAuth,
		CreateLimit: limits.Limit(ratelimitmodels.BuyerCreatePolicy(cfg.RateLimit.CreateLimit, cfg.RateLimit.Window)),
		UpdateLimit: limits.Limit(ratelimitmodels.BuyerUpdatePolicy(cfg.RateLimit.UpdateLimit, cfg.RateLimit.Window)),
	}).Register(r)

	return r
}

func healthHandler(check func(r *http.Request) map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		if check != nil {
			for k, v := range check(r) {
				status[k] = v
				status["status"] = "degraded"
			}
		}
		code := http.StatusOK
		if status["status"] != "ok" {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, status)
	}
}
