package http

import (
	"net/http"

	"github.com/agendei/agendei/internal/domain/principal"
	"github.com/agendei/agendei/internal/middleware"
	"github.com/agendei/agendei/internal/port/database"
	"github.com/agendei/agendei/internal/service"
)

// Handlers holds the HTTP handlers of the booking API. It never stores a
// tenant: every request derives its scoped handle from the verified
// principal or from the resolved storefront.
type Handlers struct {
	Scoper        database.Scoper
	Booking       *service.BookingService
	Appointments  *service.AppointmentService
	Catalog       *service.CatalogService
	Storefront    *service.StorefrontService
	Reviews       *service.ReviewService
	Notifications *service.NotificationService
	Users         *service.UserService
}

// scoped returns the handle of the tenant the request acts for. An
// authenticated principal wins over a storefront tenant.
func (h *Handlers) scoped(r *http.Request) (database.Scoped, bool) {
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
		return h.Scoper.ForTenant(p.TenantID), true
	}
	if t := middleware.TenantFromContext(r.Context()); t != nil {
		return h.Scoper.ForTenant(t.ID), true
	}
	return nil, false
}

// client returns the principal when the caller is a USER acting on its own
// records. Staff callers get ok=false.
func client(r *http.Request) (principal.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || p.IsStaff() {
		return principal.Principal{}, false
	}
	return p, true
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me returns the verified principal.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
