package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	cfotel "github.com/agendei/agendei/internal/adapter/otel"
	"github.com/agendei/agendei/internal/config"
	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/appointment"
	"github.com/agendei/agendei/internal/domain/notification"
	"github.com/agendei/agendei/internal/domain/storefront"
	"github.com/agendei/agendei/internal/domain/user"
	"github.com/agendei/agendei/internal/port/database"
)

// BookingService creates appointments. At most one active appointment can
// exist per professional and start time: the pre-check reports the common
// case and the storage-level unique index decides races.
type BookingService struct {
	guestDomain string
	defaultTZ   string
	events      *EventPublisher
	metrics     *cfotel.Metrics
}

// NewBookingService creates a BookingService.
func NewBookingService(cfg config.Booking, events *EventPublisher) *BookingService {
	return &BookingService{
		guestDomain: cfg.GuestEmailDomain,
		defaultTZ:   cfg.DefaultTimezone,
		events:      events,
	}
}

// SetMetrics attaches metric instruments.
func (s *BookingService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Book reserves a slot for the client described by req. Missing input is
// domain.ErrValidation, a taken slot is domain.ErrConflict and a service or
// professional outside the handle's tenant is domain.ErrNotFound. The
// returned appointment embeds its service and professional.
func (s *BookingService) Book(ctx context.Context, h database.Scoped, req appointment.BookRequest) (*appointment.Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := cfotel.StartBookingSpan(ctx, h.TenantID(), req.ProfessionalID)
	defer span.End()
	start := time.Now()

	var booked *appointment.Appointment
	err := h.InTx(ctx, func(tx database.Scoped) error {
		svc, err := tx.GetService(ctx, req.ServiceID)
		if err != nil {
			return fmt.Errorf("service: %w", err)
		}
		if !svc.Active {
			return domain.Validation("service is not bookable")
		}
		pro, err := tx.GetProfessional(ctx, req.ProfessionalID)
		if err != nil {
			return fmt.Errorf("professional: %w", err)
		}
		if !pro.Active {
			return domain.Validation("professional is not bookable")
		}

		cfg, err := s.config(ctx, tx)
		if err != nil {
			return err
		}
		startsAt, err := req.StartsAt(cfg.Location())
		if err != nil {
			return err
		}

		if _, err := tx.FindActiveAppointment(ctx, pro.ID, startsAt); err == nil {
			return domain.Conflict("slot already taken")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		paymentStatus := appointment.PaymentPending
		switch {
		case req.PaymentProofRef != "":
			paymentStatus = appointment.PaymentPendingApproval
		case cfg.RequirePaymentProof:
			return domain.Validation("payment_proof_ref is required")
		}

		client, err := s.resolveClient(ctx, tx, req)
		if err != nil {
			return err
		}

		a := &appointment.Appointment{
			ServiceID:       svc.ID,
			ProfessionalID:  pro.ID,
			ClientID:        client.ID,
			ClientName:      req.ClientName,
			ClientPhone:     req.ClientPhone,
			StartsAt:        startsAt,
			EndsAt:          startsAt.Add(time.Duration(svc.DurationMinutes) * time.Minute),
			Status:          appointment.StatusScheduled,
			PaymentStatus:   paymentStatus,
			PaymentProofRef: req.PaymentProofRef,
			Notes:           req.Notes,
		}
		if err := tx.CreateAppointment(ctx, a); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		if err := tx.CreateNotification(ctx, &notification.Notification{
			Kind:          notification.KindBooking,
			Title:         "New booking",
			Body:          fmt.Sprintf("%s booked %s with %s on %s", a.ClientName, svc.Name, pro.Name, startsAt.Format("2006-01-02 15:04")),
			AppointmentID: a.ID,
		}); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}

		booked, err = tx.GetAppointment(ctx, a.ID)
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, domain.Kind(err))
		if errors.Is(err, domain.ErrConflict) && s.metrics != nil {
			s.metrics.BookingConflicts.Add(ctx, 1)
		}
		slog.InfoContext(ctx, "booking rejected", "kind", domain.Kind(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Add(ctx, 1)
		s.metrics.BookingDuration.Record(ctx, time.Since(start).Seconds())
	}
	s.events.AppointmentBooked(ctx, booked)
	return booked, nil
}

// config returns the tenant's storefront config, or defaults if none was saved.
func (s *BookingService) config(ctx context.Context, h database.Scoped) (*storefront.Config, error) {
	cfg, err := h.GetConfig(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		d := storefront.Defaults(h.TenantID(), "", s.defaultTZ)
		return &d, nil
	}
	return cfg, err
}

// resolveClient returns the authenticated client or provisions a guest.
func (s *BookingService) resolveClient(ctx context.Context, h database.Scoped, req appointment.BookRequest) (*user.User, error) {
	if req.ClientUserID != "" {
		u, err := h.GetUser(ctx, req.ClientUserID)
		if err != nil {
			return nil, fmt.Errorf("client: %w", err)
		}
		return u, nil
	}
	guest := user.NewGuest(req.ClientName, req.ClientPhone, s.guestDomain)
	if err := h.CreateUser(ctx, guest); err != nil {
		return nil, fmt.Errorf("create guest: %w", err)
	}
	return guest, nil
}
