package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/enforcement/handler"
	"trustgate/internal/platform/health"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/platform/middleware/admin"
	"trustgate/pkg/platform/middleware/auth"
	request "trustgate/pkg/platform/middleware/request"
	"trustgate/pkg/platform/middleware/requesttime"
)

// DefaultRequestTimeout bounds every request when RouterConfig leaves it unset.
const DefaultRequestTimeout = 10 * time.Second

// RouterConfig collects what NewRouter wires together. Health, Metrics and
// MetricsHandler are optional. A non-empty AdminToken guards /metrics.
type RouterConfig struct {
	Logger         *slog.Logger
	Enforcement    *handler.Handler
	Validator      auth.JWTValidator
	Health         *health.Handler
	Metrics        *request.Metrics
	MetricsHandler http.Handler
	AdminToken     string
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints with middleware.
// Probes and /metrics are unauthenticated; enforcement routes require a
// bearer token whose tenant matches the path.
func NewRouter(cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.ClientIP)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Latency(cfg.Metrics, routePattern))
	r.Use(request.BodyLimit(httputil.MaxBodyBytes))
	r.Use(request.Timeout(timeout))
	r.Use(request.ContentTypeJSON)

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	if cfg.MetricsHandler != nil {
		r.With(admin.RequireAdminToken(cfg.AdminToken, cfg.Logger)).
			Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route(handler.BasePath, func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.Validator, cfg.Logger))
		r.Use(auth.RequireTenantMatch(handler.PathTenant, cfg.Logger))
		cfg.Enforcement.Register(r)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	})

	return r
}

// routePattern labels metrics with the matched chi pattern so ids in the
// path do not explode label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
