package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/principal"
	"github.com/agendei/agendei/internal/logger"
)

type principalCtxKey struct{}

// TokenResolver verifies a bearer token.
type TokenResolver interface {
	Resolve(token string) (principal.Principal, error)
}

// AccountLookup confirms that the tenant and the user a token names still
// exist and are enabled. domain.ErrNotFound rejects the token.
type AccountLookup interface {
	CheckAccount(ctx context.Context, p principal.Principal) error
}

// Auth returns middleware that requires a valid bearer token. The verified
// principal is stored in the request context; its tenant and its user must
// exist and be enabled.
func Auth(tokens TokenResolver, accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader || token == "" {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			p, err := tokens.Resolve(token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			if accounts != nil {
				if err := accounts.CheckAccount(r.Context(), p); err != nil {
					if !errors.Is(err, domain.ErrNotFound) {
						slog.ErrorContext(r.Context(), "account lookup failed", "kind", domain.Kind(err))
						http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
						return
					}
					http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
					return
				}
			}

			ctx := logger.WithTenantID(WithPrincipal(r.Context(), p), p.TenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p principal.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (principal.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(principal.Principal)
	return p, ok
}
