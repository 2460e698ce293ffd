// Package httpapi assembles the HTTP surface: middleware, public routes and
// the admin group.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "samved/internal/audit/handler"
	identityhandler "samved/internal/identity/handler"
	institutehandler "samved/internal/institute/handler"
	notifyhandler "samved/internal/notify/handler"
	"samved/internal/platform/metrics"
	promotionhandler "samved/internal/promotion/handler"
	registrationhandler "samved/internal/registration/handler"
	teamhandler "samved/internal/team/handler"
	"samved/pkg/platform/httputil"
	"samved/pkg/platform/middleware/admin"
	"samved/pkg/platform/middleware/auth"
	"samved/pkg/platform/middleware/metadata"
	"samved/pkg/platform/middleware/request"
	"samved/pkg/platform/middleware/requesttime"
)

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Validator    auth.JWTValidator
	Registration *registrationhandler.Handler
	Promotion    *promotionhandler.Handler
	Team         *teamhandler.Handler
	Identity     *identityhandler.Handler
	Notify       *notifyhandler.Handler
	Audit        *audithandler.Handler
	Institute    *institutehandler.Handler
	HealthChecks map[string]HealthCheck
	// SubmitLimit throttles public submissions; nil disables it.
	SubmitLimit func(http.Handler) http.Handler
}

// NewRouter wires all endpoints. Everything under /admin requires an
// administrator token.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(d.Logger))
	r.Use(request.Logger(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.Get("/health", health(d.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if d.SubmitLimit != nil {
			r.Use(d.SubmitLimit)
		}
		d.Registration.RegisterPublic(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.Validator, d.Logger))
		r.Use(admin.RequireAdmin(d.Logger))
		d.Registration.RegisterAdmin(r)
		d.Promotion.Register(r)
		d.Team.Register(r)
		d.Identity.Register(r)
		d.Notify.Register(r)
		d.Audit.Register(r)
		d.Institute.Register(r)
	})
	return r
}

func health(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				components[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":     overall,
			"components": components,
		})
	}
}
