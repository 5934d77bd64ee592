package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"consentkit/internal/audit"
	consentHandler "consentkit/internal/consent/handler"
	"consentkit/internal/platform/health"
	"consentkit/internal/platform/metrics"
	"consentkit/internal/platform/middleware"
)

// MaxBodyBytes caps request bodies on the consent and audit routes.
const MaxBodyBytes = 64 << 10

// Routes are the handlers mounted by NewRouter.
type Routes struct {
	Consent  *consentHandler.Handler
	Audit    *audit.Handler
	Health   *health.Handler
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// Session binds the per-browser storage context for the consent backend,
	// either kv.CookieMiddleware or kv.SubjectMiddleware.
	Session func(http.Handler) http.Handler
}

// NewRouter wires all public endpoints with middleware. Health and metrics sit
// outside the request timeout and body limit.
func NewRouter(logger *slog.Logger, timeout time.Duration, rt Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	if rt.Metrics != nil {
		r.Use(rt.Metrics.Middleware)
	}

	if rt.Health != nil {
		rt.Health.Register(r)
	}
	if rt.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Use(middleware.BodyLimit(MaxBodyBytes))
		r.Use(middleware.ContentTypeJSON)
		if rt.Session != nil {
			r.Use(rt.Session)
		}
		rt.Consent.Register(r)
		if rt.Audit != nil {
			rt.Audit.Register(r)
		}
	})
	return r
}
