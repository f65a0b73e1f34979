package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/agendei/agendei/internal/domain/principal"
)

// RequireRole admits principals holding one of roles. It runs after Auth; a
// request without a principal is answered 401, a principal with another
// role 403.
func RequireRole(roles ...principal.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			switch {
			case !ok:
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
			case !slices.Contains(roles, p.Role):
				slog.InfoContext(r.Context(), "role denied", "role", p.Role, "path", r.URL.Path)
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireStaff admits the console roles, ADMIN and SERVICE_AGENT.
func RequireStaff(next http.Handler) http.Handler {
	return RequireRole(principal.RoleAdmin, principal.RoleServiceAgent)(next)
}

// RequireAdmin admits ADMIN only. It guards destructive operations and
// account management.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(principal.RoleAdmin)(next)
}
