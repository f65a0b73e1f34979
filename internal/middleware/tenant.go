package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/tenant"
	"github.com/agendei/agendei/internal/logger"
)

// SlugParam is the route parameter naming a public storefront.
const SlugParam = "slug"

type tenantCtxKey struct{}

// SlugResolver maps a public slug to its enabled tenant.
type SlugResolver interface {
	Resolve(ctx context.Context, slug string) (*tenant.Tenant, error)
}

// Storefront resolves the {slug} route parameter of anonymous requests and
// stores the tenant in the request context. Unknown and disabled slugs are 404.
func Storefront(resolver SlugResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, err := resolver.Resolve(r.Context(), chi.URLParam(r, SlugParam))
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			case err != nil:
				slog.ErrorContext(r.Context(), "storefront resolve failed", "kind", domain.Kind(err))
				http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
				return
			}
			ctx := logger.WithTenantID(context.WithValue(r.Context(), tenantCtxKey{}, t), t.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFromContext returns the storefront tenant resolved for the request.
func TenantFromContext(ctx context.Context) *tenant.Tenant {
	t, _ := ctx.Value(tenantCtxKey{}).(*tenant.Tenant)
	return t
}
