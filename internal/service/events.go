package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/agendei/agendei/internal/domain/appointment"
	"github.com/agendei/agendei/internal/domain/review"
	"github.com/agendei/agendei/internal/port/broadcast"
	"github.com/agendei/agendei/internal/port/messagequeue"
	"github.com/agendei/agendei/internal/resilience"
)

// EventPublisher announces committed state changes. With a queue the events
// travel through NATS and reach the consoles via the relay; without one they
// are pushed straight to the broadcaster. Publishing is best effort: the
// state change has already committed when it runs.
type EventPublisher struct {
	queue   messagequeue.Publisher
	hub     broadcast.Broadcaster
	breaker *resilience.Breaker
}

// NewEventPublisher creates a publisher. Any argument may be nil.
func NewEventPublisher(q messagequeue.Publisher, hub broadcast.Broadcaster, b *resilience.Breaker) *EventPublisher {
	return &EventPublisher{queue: q, hub: hub, breaker: b}
}

func appointmentPayload(a *appointment.Appointment) messagequeue.AppointmentEventPayload {
	return messagequeue.AppointmentEventPayload{
		TenantID:       a.TenantID,
		AppointmentID:  a.ID,
		ProfessionalID: a.ProfessionalID,
		ServiceID:      a.ServiceID,
		StartsAt:       a.StartsAt,
		Status:         string(a.Status),
		PaymentStatus:  string(a.PaymentStatus),
		ClientName:     a.ClientName,
	}
}

// AppointmentBooked announces a new booking.
func (p *EventPublisher) AppointmentBooked(ctx context.Context, a *appointment.Appointment) {
	p.publish(ctx, messagequeue.SubjectAppointmentBooked, broadcast.EventAppointmentBooked, a.TenantID, appointmentPayload(a))
}

// AppointmentStatusChanged announces a lifecycle transition.
func (p *EventPublisher) AppointmentStatusChanged(ctx context.Context, a *appointment.Appointment) {
	p.publish(ctx, messagequeue.SubjectAppointmentStatus, broadcast.EventAppointmentStatus, a.TenantID, appointmentPayload(a))
}

// PaymentChanged announces a payment transition.
func (p *EventPublisher) PaymentChanged(ctx context.Context, a *appointment.Appointment) {
	p.publish(ctx, messagequeue.SubjectAppointmentPayment, broadcast.EventAppointmentPayment, a.TenantID, appointmentPayload(a))
}

// ReviewCreated announces a new review.
func (p *EventPublisher) ReviewCreated(ctx context.Context, r *review.Review) {
	p.publish(ctx, messagequeue.SubjectReviewCreated, broadcast.EventReviewCreated, r.TenantID, messagequeue.ReviewCreatedPayload{
		TenantID:       r.TenantID,
		ReviewID:       r.ID,
		AppointmentID:  r.AppointmentID,
		ProfessionalID: r.ProfessionalID,
		Rating:         r.Rating,
	})
}

func (p *EventPublisher) publish(ctx context.Context, subject, eventType, tenantID string, payload any) {
	if p == nil {
		return
	}
	if p.queue == nil {
		if p.hub != nil {
			p.hub.BroadcastToTenant(ctx, tenantID, eventType, payload)
		}
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "subject", subject, "error", err)
		return
	}
	send := func(ctx context.Context) error { return p.queue.Publish(ctx, subject, data) }
	if p.breaker != nil {
		err = p.breaker.Call(ctx, send)
	} else {
		err = send(ctx)
	}
	if err != nil {
		slog.WarnContext(ctx, "event publish failed", "subject", subject, "error", err)
	}
}
