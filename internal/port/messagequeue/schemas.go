package messagequeue

import "time"

// AppointmentEventPayload is the schema for appointments.* messages.
type AppointmentEventPayload struct {
	TenantID       string    `json:"tenant_id" validate:"required"`
	AppointmentID  string    `json:"appointment_id" validate:"required"`
	ProfessionalID string    `json:"professional_id" validate:"required"`
	ServiceID      string    `json:"service_id"`
	StartsAt       time.Time `json:"starts_at" validate:"required"`
	Status         string    `json:"status" validate:"required,oneof=SCHEDULED COMPLETED CANCELLED"`
	PaymentStatus  string    `json:"payment_status" validate:"required,oneof=PENDING PENDING_APPROVAL PAID REJECTED"`
	ClientName     string    `json:"client_name,omitempty"`
}

// ReviewCreatedPayload is the schema for reviews.created messages.
type ReviewCreatedPayload struct {
	TenantID       string `json:"tenant_id" validate:"required"`
	ReviewID       string `json:"review_id" validate:"required"`
	AppointmentID  string `json:"appointment_id" validate:"required"`
	ProfessionalID string `json:"professional_id"`
	Rating         int    `json:"rating" validate:"min=1,max=5"`
}
