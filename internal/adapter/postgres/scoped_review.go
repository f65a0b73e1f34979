package postgres

import (
	"context"

	"github.com/agendei/agendei/internal/domain/notification"
	"github.com/agendei/agendei/internal/domain/review"
	"github.com/agendei/agendei/internal/port/database"
)

var reviewRel = relation[review.Review]{
	name:    "review",
	from:    "reviews r",
	alias:   "r",
	columns: `r.id, r.tenant_id, r.appointment_id, r.professional_id, r.client_name, r.rating, r.comment, r.created_at`,
	fields: map[string]string{
		"id":              "r.id",
		"appointment_id":  "r.appointment_id",
		"professional_id": "r.professional_id",
		"rating":          "r.rating",
	},
	order: "r.created_at DESC",
	scan: func(row scannable) (review.Review, error) {
		var r review.Review
		err := row.Scan(&r.ID, &r.TenantID, &r.AppointmentID, &r.ProfessionalID, &r.ClientName, &r.Rating, &r.Comment, &r.CreatedAt)
		return r, err
	},
}

func (s *Scoped) CreateReview(ctx context.Context, r *review.Review) error {
	return insert(ctx, s, "reviews", []assignment{
		set("appointment_id", r.AppointmentID),
		set("professional_id", r.ProfessionalID),
		set("client_name", r.ClientName),
		set("rating", r.Rating),
		set("comment", r.Comment),
	}, "id, tenant_id, created_at", &r.ID, &r.TenantID, &r.CreatedAt)
}

func (s *Scoped) ListReviews(ctx context.Context, conds ...database.Cond) ([]review.Review, error) {
	return findMany(ctx, s, reviewRel, page{}, conds...)
}

var notificationRel = relation[notification.Notification]{
	name:    "notification",
	from:    "notifications n",
	alias:   "n",
	columns: `n.id, n.tenant_id, n.kind, n.title, n.body, n.appointment_id, n.read_at, n.created_at`,
	fields: map[string]string{
		"id":     "n.id",
		"unread": "(n.read_at IS NULL)",
	},
	order: "n.created_at DESC",
	scan: func(row scannable) (notification.Notification, error) {
		var (
			n      notification.Notification
			apptID *string
		)
		err := row.Scan(&n.ID, &n.TenantID, &n.Kind, &n.Title, &n.Body, &apptID, &n.ReadAt, &n.CreatedAt)
		if apptID != nil {
			n.AppointmentID = *apptID
		}
		return n, err
	},
}

func (s *Scoped) CreateNotification(ctx context.Context, n *notification.Notification) error {
	return insert(ctx, s, "notifications", []assignment{
		set("kind", string(n.Kind)),
		set("title", n.Title),
		set("body", n.Body),
		set("appointment_id", nullIfEmpty(n.AppointmentID)),
	}, "id, tenant_id, created_at", &n.ID, &n.TenantID, &n.CreatedAt)
}

func (s *Scoped) ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]notification.Notification, error) {
	var conds []database.Cond
	if unreadOnly {
		conds = append(conds, database.Eq("unread", true))
	}
	return findMany(ctx, s, notificationRel, page{limit: limit}, conds...)
}

// MarkNotificationRead is idempotent for a notification of the bound tenant.
func (s *Scoped) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, now()) WHERE id = $1 AND tenant_id = $2`,
		id, s.tenantID)
	return expectOne("mark notification read", tag, err)
}
