package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alecgard/pitchside/internal/auth"
	"github.com/alecgard/pitchside/internal/event"
	"github.com/alecgard/pitchside/internal/metrics"
	"github.com/alecgard/pitchside/internal/ratelimit"
)

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Auth           *auth.Service
	Events         *event.Service
	Notifications  NotificationLister
	Limiter        *ratelimit.Limiter
	Metrics        *metrics.Metrics
	DB             Pinger
	AllowedOrigins []string

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	r.Get("/health", healthHandler(deps.DB))
	r.Get("/.well-known/pitchside.json", WellKnownHandler)

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry(), promhttp.HandlerOpts{}))
		r.Get("/metrics/summary", deps.Metrics.Handler())
	}

	if deps.Auth == nil {
		return r
	}

	var onReject []func()
	if deps.Metrics != nil {
		onReject = append(onReject, func() { deps.Metrics.IncRateLimitRejection("credentials") })
	}
	throttle := ratelimit.Middleware(deps.Limiter, onReject...)

	sessions := newAuthHandler(deps.Auth)
	orgs := newOrganizationHandler(deps.Auth)

	r.Route("/api/v1/auth", func(ar chi.Router) {
		ar.Group(func(pub chi.Router) {
			pub.Use(throttle)
			pub.Post("/login", sessions.Login)
			pub.Post("/register", sessions.Register)
			pub.Post("/refresh", sessions.Refresh)
		})
		ar.Group(func(me chi.Router) {
			me.Use(auth.Middleware(deps.Auth))
			me.Get("/me", sessions.Me)
			me.With(auth.RequireRole(auth.RoleUser, auth.RoleOrganization)).Patch("/me", sessions.UpdateMe)
		})
	})

	r.Route("/api/v1/organizations", func(or chi.Router) {
		or.With(throttle).Post("/login", orgs.Login)
		or.With(throttle).Post("/register", orgs.Register)
		or.Get("/validate", orgs.Validate)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.Middleware(deps.Auth))

		if deps.Events != nil {
			events := newEventsHandler(deps.Events)
			ar.Get("/api/v1/events", events.ListEvents)
			ar.Get("/api/v1/events/{id}", events.GetEvent)
			ar.With(auth.RequireRole(auth.RoleUser, auth.RoleOrganization)).Post("/api/v1/events", events.CreateEvent)
			ar.With(auth.RequireRole(auth.RoleUser, auth.RoleOrganization)).Post("/api/v1/events/{id}/participants", events.Join)
			ar.With(auth.RequireRole(auth.RoleUser, auth.RoleOrganization)).Delete("/api/v1/events/{id}/participants", events.Leave)
			ar.Put("/api/v1/events/{id}/status", events.ChangeStatus)
		}

		if deps.Notifications != nil {
			notes := newNotificationsHandler(deps.Notifications)
			ar.With(auth.RequireRole(auth.RoleUser, auth.RoleOrganization)).Get("/api/v1/notifications", notes.List)
		}
	})

	return r
}

// healthHandler reports liveness and, when a database is configured, whether
// it answers a ping.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "degraded",
				"database": "unreachable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "ok",
			"database": "connected",
		})
	}
}
