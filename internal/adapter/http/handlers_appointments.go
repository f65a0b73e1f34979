package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/appointment"
	"github.com/agendei/agendei/internal/domain/review"
	"github.com/agendei/agendei/internal/port/database"
)

const appointmentNotFound = "appointment not found"

// CreateAppointment books a slot for an authenticated caller. A USER books
// for itself; staff book on behalf of a walk-in client named in the body.
func (h *Handlers) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scoped(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := readJSON[appointment.BookRequest](w, r)
	if !ok {
		return
	}
	req.ClientUserID = ""
	if p, ok := client(r); ok {
		req.ClientUserID = p.Subject
	}
	h.book(w, r, scope, req)
}

// BookGuest books a slot from the public storefront.
func (h *Handlers) BookGuest(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scoped(r)
	if !ok {
		writeError(w, http.StatusNotFound, "storefront not found")
		return
	}
	req, ok := readJSON[appointment.BookRequest](w, r)
	if !ok {
		return
	}
	req.ClientUserID = ""
	h.book(w, r, scope, req)
}

func (h *Handlers) book(w http.ResponseWriter, r *http.Request, scope database.Scoped, req appointment.BookRequest) {
	a, err := h.Booking.Book(r.Context(), scope, req)
	if err != nil {
		writeDomainError(w, r, err, "referenced record not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListAppointments lists appointments matching the query filter. A USER
// only ever sees its own.
func (h *Handlers) ListAppointments(w http.ResponseWriter, r *http.Request) {
	handleList(h.scoped, func(ctx context.Context, scope database.Scoped, r *http.Request) ([]appointment.Appointment, error) {
		f, err := appointmentFilter(r)
		if err != nil {
			return nil, err
		}
		if p, ok := client(r); ok {
			f.ClientID = p.Subject
		}
		return h.Appointments.List(ctx, scope, f)
	})(w, r)
}

// GetAppointment returns one appointment.
func (h *Handlers) GetAppointment(w http.ResponseWriter, r *http.Request) {
	handleGet(h.scoped, func(ctx context.Context, scope database.Scoped, id string) (*appointment.Appointment, error) {
		return h.ownAppointment(ctx, r, scope, id)
	}, appointmentNotFound)(w, r)
}

// ownAppointment loads an appointment and hides it from a USER who is not
// its client.
func (h *Handlers) ownAppointment(ctx context.Context, r *http.Request, scope database.Scoped, id string) (*appointment.Appointment, error) {
	a, err := h.Appointments.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if p, ok := client(r); ok && a.ClientID != p.Subject {
		return nil, fmt.Errorf("appointment %s: %w", id, domain.ErrNotFound)
	}
	return a, nil
}

// CancelAppointment cancels a scheduled appointment.
func (h *Handlers) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	handleAction(h.scoped, func(ctx context.Context, scope database.Scoped, id string) (*appointment.Appointment, error) {
		if p, ok := client(r); ok {
			return h.Appointments.CancelOwn(ctx, scope, id, p.Subject)
		}
		return h.Appointments.Cancel(ctx, scope, id)
	}, appointmentNotFound)(w, r)
}

// SubmitPaymentProof attaches a payment proof and moves the payment back to
// review.
func (h *Handlers) SubmitPaymentProof(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.scoped, func(ctx context.Context, scope database.Scoped, id string, req appointment.ProofRequest) (*appointment.Appointment, error) {
		if _, err := h.ownAppointment(ctx, r, scope, id); err != nil {
			return nil, err
		}
		return h.Appointments.SubmitPaymentProof(ctx, scope, id, req)
	}, appointmentNotFound)(w, r)
}

// ApprovePayment marks a payment under review as paid.
func (h *Handlers) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	handleAction(h.scoped, h.Appointments.ApprovePayment, appointmentNotFound)(w, r)
}

// RejectPayment rejects a payment under review. The body is optional.
func (h *Handlers) RejectPayment(w http.ResponseWriter, r *http.Request) {
	var req appointment.RejectRequest
	if r.ContentLength != 0 {
		var ok bool
		if req, ok = readJSON[appointment.RejectRequest](w, r); !ok {
			return
		}
	}
	handleAction(h.scoped, func(ctx context.Context, scope database.Scoped, id string) (*appointment.Appointment, error) {
		return h.Appointments.RejectPayment(ctx, scope, id, req)
	}, appointmentNotFound)(w, r)
}

// CompleteAppointment marks a scheduled appointment as done.
func (h *Handlers) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	handleAction(h.scoped, h.Appointments.Complete, appointmentNotFound)(w, r)
}

// DeleteAppointment removes an appointment.
func (h *Handlers) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.scoped, h.Appointments.Delete, appointmentNotFound)(w, r)
}

// CreateReview reviews a completed appointment. A USER may only review its
// own appointments.
func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.scoped, func(ctx context.Context, scope database.Scoped, req review.CreateRequest) (*review.Review, error) {
		clientID := ""
		if p, ok := client(r); ok {
			clientID = p.Subject
		}
		return h.Reviews.Create(ctx, scope, clientID, req)
	})(w, r)
}

// ListReviews lists reviews, optionally for one professional.
func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	handleList(h.scoped, func(ctx context.Context, scope database.Scoped, r *http.Request) ([]review.Review, error) {
		return h.Reviews.List(ctx, scope, r.URL.Query().Get("professional_id"))
	})(w, r)
}
