package admin

import (
	"log/slog"
	"net/http"
	"slices"

	id "samved/pkg/domain"
	request "samved/pkg/platform/middleware/request"
	"samved/pkg/requestcontext"
)

// RequireRole rejects requests whose authenticated actor lacks one of roles.
// Must run after auth.RequireAuth.
func RequireRole(logger *slog.Logger, roles ...id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.ActorRole(ctx)
			if !slices.Contains(roles, role) {
				logger.WarnContext(ctx, "forbidden - role not permitted",
					"role", role,
					"actor_id", requestcontext.ActorID(ctx),
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"insufficient role"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is RequireRole limited to administrators.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, id.RoleAdmin)
}
