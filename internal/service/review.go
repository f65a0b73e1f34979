package service

import (
	"context"
	"fmt"

	cfotel "github.com/agendei/agendei/internal/adapter/otel"
	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/appointment"
	"github.com/agendei/agendei/internal/domain/notification"
	"github.com/agendei/agendei/internal/domain/review"
	"github.com/agendei/agendei/internal/port/database"
)

// ReviewService records client ratings of completed appointments.
type ReviewService struct {
	events  *EventPublisher
	metrics *cfotel.Metrics
}

// NewReviewService creates a ReviewService.
func NewReviewService(events *EventPublisher) *ReviewService {
	return &ReviewService{events: events}
}

// SetMetrics attaches metric instruments.
func (s *ReviewService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Create reviews the appointment named in req. Only a COMPLETED appointment
// can be reviewed, once. When clientID is set the appointment must belong
// to that client; another client's appointment is reported as not found.
func (s *ReviewService) Create(ctx context.Context, h database.Scoped, clientID string, req review.CreateRequest) (*review.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out *review.Review
	err := h.InTx(ctx, func(tx database.Scoped) error {
		a, err := tx.GetAppointment(ctx, req.AppointmentID)
		if err != nil {
			return err
		}
		if clientID != "" && a.ClientID != clientID {
			return fmt.Errorf("appointment %s: %w", req.AppointmentID, domain.ErrNotFound)
		}
		if a.Status != appointment.StatusCompleted {
			return domain.Validation("only completed appointments can be reviewed")
		}

		r := &review.Review{
			AppointmentID:  a.ID,
			ProfessionalID: a.ProfessionalID,
			ClientName:     a.ClientName,
			Rating:         req.Rating,
			Comment:        req.Comment,
		}
		if err := tx.CreateReview(ctx, r); err != nil {
			return err
		}
		if err := tx.CreateNotification(ctx, &notification.Notification{
			Kind:          notification.KindReview,
			Title:         "New review",
			Body:          fmt.Sprintf("%s rated their appointment %d/5", a.ClientName, r.Rating),
			AppointmentID: a.ID,
		}); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReviewsCreated.Add(ctx, 1)
	}
	s.events.ReviewCreated(ctx, out)
	return out, nil
}

// List returns the tenant's reviews, newest first, optionally for one
// professional only.
func (s *ReviewService) List(ctx context.Context, h database.Scoped, professionalID string) ([]review.Review, error) {
	if professionalID != "" {
		return h.ListReviews(ctx, database.Eq("professional_id", professionalID))
	}
	return h.ListReviews(ctx)
}

// Summary aggregates the tenant's ratings.
func (s *ReviewService) Summary(ctx context.Context, h database.Scoped, professionalID string) (review.Summary, error) {
	reviews, err := s.List(ctx, h, professionalID)
	if err != nil {
		return review.Summary{}, err
	}
	return review.Summarize(reviews), nil
}
