// Package httptransport assembles the public HTTP surface: the middleware
// stack, role-scoped route groups, and the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apphandler "connect2uni/internal/application/handler"
	dirhandler "connect2uni/internal/directory/handler"
	notifhandler "connect2uni/internal/notification/handler"
	pipehandler "connect2uni/internal/pipeline/handler"
	"connect2uni/internal/platform/middleware"
	"connect2uni/internal/platform/ratelimit"
	"connect2uni/pkg/domain"
	"connect2uni/pkg/platform/httputil"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger         *slog.Logger
	Validator      middleware.TokenValidator
	RequestTimeout time.Duration

	Applications  *apphandler.Handler
	Pipeline      *pipehandler.Handler
	Notifications *notifhandler.Handler
	Directory     *dirhandler.Handler

	// WriteLimiter throttles mutating requests per actor. Nil disables
	// throttling.
	WriteLimiter *ratelimit.Limiter

	// Ready reports whether downstream stores are reachable. Nil means
	// always ready.
	Ready func(ctx context.Context) error
}

// NewRouter wires the middleware stack and all role-scoped route groups.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.ContentTypeJSON)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(req.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	limit := ratelimit.Middleware(d.WriteLimiter, d.Logger)

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/student", func(sr chi.Router) {
			sr.Use(middleware.RequireRole(d.Validator, d.Logger, domain.RoleStudent))
			sr.Use(limit)
			d.Applications.RegisterStudent(sr)
			d.Pipeline.RegisterStudent(sr)
			d.Directory.RegisterStudent(sr)
		})
		api.Route("/agency", func(ar chi.Router) {
			ar.Use(middleware.RequireRole(d.Validator, d.Logger, domain.RoleAgency))
			ar.Use(limit)
			d.Applications.RegisterAgency(ar)
			d.Pipeline.RegisterAgency(ar)
		})
		api.Route("/university", func(ur chi.Router) {
			ur.Use(middleware.RequireRole(d.Validator, d.Logger, domain.RoleUniversity))
			ur.Use(limit)
			d.Applications.RegisterUniversity(ur)
		})
		api.Route("/associate", func(ar chi.Router) {
			ar.Use(middleware.RequireRole(d.Validator, d.Logger, domain.RoleAssociate))
			ar.Use(limit)
			d.Pipeline.RegisterAssociate(ar)
		})
		api.Route("/solicitor", func(sr chi.Router) {
			sr.Use(middleware.RequireRole(d.Validator, d.Logger, domain.RoleSolicitor))
			sr.Use(limit)
			d.Pipeline.RegisterSolicitor(sr)
		})

		// the notification inbox is shared by every role
		api.Group(func(nr chi.Router) {
			nr.Use(middleware.RequireAuth(d.Validator, d.Logger))
			d.Notifications.Register(nr)
		})
	})

	return r
}
