// Package httptransport assembles the HTTP API: middleware chain, route
// groups, and the auth boundaries between employee, manager, and admin
// surfaces. Endpoint behavior lives in the per-module handler packages.
package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	platformmetrics "timeclock/internal/platform/metrics"
	"timeclock/pkg/platform/middleware/admin"
	authmw "timeclock/pkg/platform/middleware/auth"
	"timeclock/pkg/platform/middleware/metadata"
	"timeclock/pkg/platform/middleware/request"
	"timeclock/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by the per-module handler packages.
type Registrar interface {
	Register(r chi.Router)
}

// PublicRegistrar marks handlers that also expose unauthenticated routes.
type PublicRegistrar interface {
	RegisterPublic(r chi.Router)
}

// Dependencies carries everything the router mounts. Nil entries are skipped
// so tests can wire only the surface under test.
type Dependencies struct {
	Logger     *slog.Logger
	JWTService authmw.JWTValidator
	AdminToken string
	Metrics    *platformmetrics.Metrics

	// TokenExchangeLimit guards the device credential exchange against
	// brute-forced secrets; PunchLimit caps punch submission per user.
	// Nil disables the respective limiter.
	TokenExchangeLimit func(http.Handler) http.Handler
	PunchLimit         func(http.Handler) http.Handler

	// Employee surface, mounted behind bearer auth.
	Punch        Registrar
	Verification Registrar
	Workplace    Registrar
	Device       Registrar

	// Manager surface, mounted behind bearer auth plus the manager role.
	Approval Registrar

	// Admin surface, mounted behind the admin token.
	Geofence Registrar
}

// NewRouter builds the full middleware chain and mounts every surface.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Device credential exchange authenticates with the device secret, not a
	// bearer token.
	if pub, ok := deps.Device.(PublicRegistrar); ok && deps.Device != nil {
		r.Group(func(r chi.Router) {
			if deps.TokenExchangeLimit != nil {
				r.Use(deps.TokenExchangeLimit)
			}
			pub.RegisterPublic(r)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(deps.JWTService, deps.Logger))

		if deps.Punch != nil {
			r.Group(func(r chi.Router) {
				if deps.PunchLimit != nil {
					r.Use(deps.PunchLimit)
				}
				deps.Punch.Register(r)
			})
		}
		for _, h := range []Registrar{deps.Verification, deps.Workplace, deps.Device} {
			if h != nil {
				h.Register(r)
			}
		}

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireManager(deps.Logger))
			if deps.Approval != nil {
				deps.Approval.Register(r)
			}
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(deps.AdminToken, deps.Logger))
		if deps.Geofence != nil {
			deps.Geofence.Register(r)
		}
	})

	return r
}

// metricsMiddleware records request counts and latency per chi route pattern.
func metricsMiddleware(m *platformmetrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(ww.Status())
			m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}
