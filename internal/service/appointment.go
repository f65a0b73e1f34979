package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/agendei/agendei/internal/adapter/otel"
	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/appointment"
	"github.com/agendei/agendei/internal/domain/notification"
	"github.com/agendei/agendei/internal/port/database"
)

// AppointmentService runs the guarded status and payment transitions.
// Every transition is a compare-and-set through the scoped handle, so an
// appointment of another tenant is reported as domain.ErrNotFound and a
// transition the current state does not allow as domain.ErrValidation.
type AppointmentService struct {
	events  *EventPublisher
	metrics *cfotel.Metrics
}

// NewAppointmentService creates an AppointmentService.
func NewAppointmentService(events *EventPublisher) *AppointmentService {
	return &AppointmentService{events: events}
}

// SetMetrics attaches metric instruments.
func (s *AppointmentService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Get returns one appointment with its service and professional.
func (s *AppointmentService) Get(ctx context.Context, h database.Scoped, id string) (*appointment.Appointment, error) {
	return h.GetAppointment(ctx, id)
}

// List returns the appointments matching f in start order.
func (s *AppointmentService) List(ctx context.Context, h database.Scoped, f appointment.Filter) ([]appointment.Appointment, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return h.ListAppointments(ctx, f)
}

// ApprovePayment moves PENDING_APPROVAL to PAID.
func (s *AppointmentService) ApprovePayment(ctx context.Context, h database.Scoped, id string) (*appointment.Appointment, error) {
	return s.transitionPayment(ctx, h, id, appointment.PaymentPaid, database.PaymentPatch{})
}

// RejectPayment moves PENDING_APPROVAL to REJECTED and records the reason
// shown to the client.
func (s *AppointmentService) RejectPayment(ctx context.Context, h database.Scoped, id string, req appointment.RejectRequest) (*appointment.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.transitionPayment(ctx, h, id, appointment.PaymentRejected, database.PaymentPatch{RejectionReason: &req.Reason})
}

// SubmitPaymentProof attaches a proof of payment, moving PENDING or
// REJECTED to PENDING_APPROVAL. A resubmission clears the previous
// rejection reason. The staff notification is best effort.
func (s *AppointmentService) SubmitPaymentProof(ctx context.Context, h database.Scoped, id string, req appointment.ProofRequest) (*appointment.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cleared := ""
	a, err := s.transitionPayment(ctx, h, id, appointment.PaymentPendingApproval, database.PaymentPatch{
		ProofRef:        &req.PaymentProofRef,
		RejectionReason: &cleared,
	})
	if err != nil {
		return nil, err
	}
	if err := h.CreateNotification(ctx, &notification.Notification{
		Kind:          notification.KindPayment,
		Title:         "Payment proof submitted",
		Body:          a.ClientName + " submitted a proof of payment",
		AppointmentID: a.ID,
	}); err != nil {
		slog.WarnContext(ctx, "payment notification failed", "kind", domain.Kind(err))
	}
	return a, nil
}

// Complete moves SCHEDULED to COMPLETED.
func (s *AppointmentService) Complete(ctx context.Context, h database.Scoped, id string) (*appointment.Appointment, error) {
	return s.transitionStatus(ctx, h, id, appointment.StatusCompleted)
}

// Cancel moves SCHEDULED to CANCELLED, which frees the slot. Cancelling an
// appointment that is already cancelled is a validation error and changes
// nothing.
func (s *AppointmentService) Cancel(ctx context.Context, h database.Scoped, id string) (*appointment.Appointment, error) {
	return s.transitionStatus(ctx, h, id, appointment.StatusCancelled)
}

// CancelOwn cancels an appointment on behalf of its client. Another
// client's appointment is reported as not found.
func (s *AppointmentService) CancelOwn(ctx context.Context, h database.Scoped, id, clientID string) (*appointment.Appointment, error) {
	a, err := h.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ClientID != clientID {
		return nil, fmt.Errorf("appointment %s: %w", id, domain.ErrNotFound)
	}
	return s.Cancel(ctx, h, id)
}

// Delete removes an appointment permanently.
func (s *AppointmentService) Delete(ctx context.Context, h database.Scoped, id string) error {
	return h.DeleteAppointment(ctx, id)
}

func (s *AppointmentService) transitionStatus(ctx context.Context, h database.Scoped, id string, to appointment.Status) (*appointment.Appointment, error) {
	ctx, span := cfotel.StartTransitionSpan(ctx, id, "status", string(to))
	defer span.End()

	err := h.TransitionStatus(ctx, id, appointment.StatusScheduled, to)
	if errors.Is(err, domain.ErrNotFound) {
		// the guard matched no row: either absent or in another state
		cur, getErr := h.GetAppointment(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if cur.Status == to {
			return nil, domain.Validation("appointment is already %s", to)
		}
		return nil, domain.Validation("cannot move appointment from %s to %s", cur.Status, to)
	}
	if err != nil {
		return nil, err
	}

	a, err := h.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.StatusTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("to", string(to))))
	}
	s.events.AppointmentStatusChanged(ctx, a)
	return a, nil
}

func (s *AppointmentService) transitionPayment(ctx context.Context, h database.Scoped, id string, to appointment.PaymentStatus, patch database.PaymentPatch) (*appointment.Appointment, error) {
	ctx, span := cfotel.StartTransitionSpan(ctx, id, "payment", string(to))
	defer span.End()

	err := h.TransitionPayment(ctx, id, to.Sources(), to, patch)
	if errors.Is(err, domain.ErrNotFound) {
		cur, getErr := h.GetAppointment(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, domain.Validation("cannot move payment from %s to %s", cur.PaymentStatus, to)
	}
	if err != nil {
		return nil, err
	}

	a, err := h.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PaymentTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("to", string(to))))
	}
	s.events.PaymentChanged(ctx, a)
	return a, nil
}
