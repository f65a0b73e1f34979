// Package review defines client feedback left on completed appointments.
package review

import (
	"strings"
	"time"

	"github.com/agendei/agendei/internal/domain"
)

// Review is a rating left by the client of a completed appointment.
type Review struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	AppointmentID  string    `json:"appointment_id"`
	ProfessionalID string    `json:"professional_id"`
	ClientName     string    `json:"client_name"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateRequest holds the fields for reviewing an appointment.
type CreateRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required"`
	Rating        int    `json:"rating" validate:"gte=1,lte=5"`
	Comment       string `json:"comment" validate:"max=1000"`
}

// Validate checks the rating range and comment length.
func (r *CreateRequest) Validate() error {
	r.Comment = strings.TrimSpace(r.Comment)
	return domain.ValidateStruct(r)
}

// Summary aggregates the ratings of a tenant or a professional.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Summarize computes the count and mean rating of reviews.
func Summarize(reviews []Review) Summary {
	if len(reviews) == 0 {
		return Summary{}
	}
	total := 0
	for i := range reviews {
		total += reviews[i].Rating
	}
	return Summary{Count: len(reviews), Average: float64(total) / float64(len(reviews))}
}
