package http

import (
	"context"
	"net/http"

	"github.com/agendei/agendei/internal/domain/catalog"
	"github.com/agendei/agendei/internal/domain/notification"
	"github.com/agendei/agendei/internal/domain/user"
	"github.com/agendei/agendei/internal/port/database"
)

// activeOnly reports whether a catalog listing should hide inactive
// entries. Clients never see them; staff opt in with ?active=true.
func activeOnly(r *http.Request) (bool, error) {
	if _, ok := client(r); ok {
		return true, nil
	}
	return queryBool(r, "active")
}

// --- Services ---

// ListServices lists the tenant's services.
func (h *Handlers) ListServices(w http.ResponseWriter, r *http.Request) {
	handleList(h.scoped, func(ctx context.Context, scope database.Scoped, r *http.Request) ([]catalog.Service, error) {
		active, err := activeOnly(r)
		if err != nil {
			return nil, err
		}
		return h.Catalog.ListServices(ctx, scope, active)
	})(w, r)
}

// GetService returns one service.
func (h *Handlers) GetService(w http.ResponseWriter, r *http.Request) {
	handleGet(h.scoped, h.Catalog.GetService, "service not found")(w, r)
}

// CreateService adds a service to the catalog.
func (h *Handlers) CreateService(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.scoped, h.Catalog.CreateService)(w, r)
}

// UpdateService applies a partial update to a service.
func (h *Handlers) UpdateService(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.scoped, h.Catalog.UpdateService, "service not found")(w, r)
}

// DeleteService removes a service that no appointment references.
func (h *Handlers) DeleteService(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.scoped, h.Catalog.DeleteService, "service not found")(w, r)
}

// --- Professionals ---

// ListProfessionals lists the tenant's professionals.
func (h *Handlers) ListProfessionals(w http.ResponseWriter, r *http.Request) {
	handleList(h.scoped, func(ctx context.Context, scope database.Scoped, r *http.Request) ([]catalog.Professional, error) {
		active, err := activeOnly(r)
		if err != nil {
			return nil, err
		}
		return h.Catalog.ListProfessionals(ctx, scope, active)
	})(w, r)
}

// GetProfessional returns one professional.
func (h *Handlers) GetProfessional(w http.ResponseWriter, r *http.Request) {
	handleGet(h.scoped, h.Catalog.GetProfessional, "professional not found")(w, r)
}

// CreateProfessional adds a professional.
func (h *Handlers) CreateProfessional(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.scoped, h.Catalog.CreateProfessional)(w, r)
}

// UpdateProfessional applies a partial update to a professional.
func (h *Handlers) UpdateProfessional(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.scoped, h.Catalog.UpdateProfessional, "professional not found")(w, r)
}

// DeleteProfessional removes a professional that no appointment references.
func (h *Handlers) DeleteProfessional(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.scoped, h.Catalog.DeleteProfessional, "professional not found")(w, r)
}

// --- Notifications ---

// ListNotifications returns the tenant's in-app notifications, newest first.
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	handleList(h.scoped, func(ctx context.Context, scope database.Scoped, r *http.Request) ([]notification.Notification, error) {
		unread, err := queryBool(r, "unread")
		if err != nil {
			return nil, err
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			return nil, err
		}
		return h.Notifications.List(ctx, scope, unread, limit)
	})(w, r)
}

// MarkNotificationRead marks one notification as read.
func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.scoped, h.Notifications.MarkRead, "notification not found")(w, r)
}

// --- Users ---

// ListUsers lists the tenant's accounts. Guests are included with ?guests=true.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	handleList(h.scoped, func(ctx context.Context, scope database.Scoped, r *http.Request) ([]user.User, error) {
		guests, err := queryBool(r, "guests")
		if err != nil {
			return nil, err
		}
		return h.Users.List(ctx, scope, guests)
	})(w, r)
}

// GetUser returns one account.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	handleGet(h.scoped, h.Users.Get, "user not found")(w, r)
}

// CreateUser creates an account in the caller's tenant.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.scoped, h.Users.Create)(w, r)
}
