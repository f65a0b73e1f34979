// Package appointment defines the booking record and its two state machines.
package appointment

import (
	"strings"
	"time"

	"github.com/agendei/agendei/internal/domain"
	"github.com/agendei/agendei/internal/domain/catalog"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// PaymentStatus is the payment state of an appointment.
type PaymentStatus string

const (
	PaymentPending         PaymentStatus = "PENDING"
	PaymentPendingApproval PaymentStatus = "PENDING_APPROVAL"
	PaymentPaid            PaymentStatus = "PAID"
	PaymentRejected        PaymentStatus = "REJECTED"
)

var statusTransitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:         {PaymentPendingApproval},
	PaymentPendingApproval: {PaymentPaid, PaymentRejected},
	PaymentRejected:        {PaymentPendingApproval},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransition reports whether s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, to := range statusTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPendingApproval, PaymentPaid, PaymentRejected:
		return true
	}
	return false
}

// CanTransition reports whether p may move to next.
func (p PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, to := range paymentTransitions[p] {
		if to == next {
			return true
		}
	}
	return false
}

// Sources returns every payment status from which next is reachable.
func (p PaymentStatus) Sources() []PaymentStatus {
	var out []PaymentStatus
	for _, from := range []PaymentStatus{PaymentPending, PaymentPendingApproval, PaymentPaid, PaymentRejected} {
		if from.CanTransition(p) {
			out = append(out, from)
		}
	}
	return out
}

// Appointment is one booking of a professional at an exact start time.
type Appointment struct {
	ID              string        `json:"id"`
	TenantID        string        `json:"tenant_id"`
	ServiceID       string        `json:"service_id"`
	ProfessionalID  string        `json:"professional_id"`
	ClientID        string        `json:"client_id"`
	ClientName      string        `json:"client_name"`
	ClientPhone     string        `json:"client_phone"`
	StartsAt        time.Time     `json:"starts_at"`
	EndsAt          time.Time     `json:"ends_at"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentProofRef string        `json:"payment_proof_ref,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Service      *catalog.Service      `json:"service,omitempty"`
	Professional *catalog.Professional `json:"professional,omitempty"`
}

// Active reports whether the appointment occupies its slot.
func (a *Appointment) Active() bool {
	return a.Status != StatusCancelled
}

const (
	// DateLayout is the wire format of a booking date.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format of a booking time of day.
	TimeLayout = "15:04"
)

// BookRequest is the validated input of the booking operation. ClientUserID is
// never read from the wire; the HTTP layer sets it from an authenticated USER.
type BookRequest struct {
	ServiceID       string `json:"service_id"`
	ProfessionalID  string `json:"professional_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	ClientName      string `json:"client_name"`
	ClientPhone     string `json:"client_phone"`
	PaymentProofRef string `json:"payment_proof_ref,omitempty"`
	Notes           string `json:"notes,omitempty"`
	ClientUserID    string `json:"-"`
}

// Validate checks presence and format of every required field. A missing
// field is always a validation error, never a conflict.
func (r *BookRequest) Validate() error {
	r.ServiceID = strings.TrimSpace(r.ServiceID)
	r.ProfessionalID = strings.TrimSpace(r.ProfessionalID)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.ClientName = strings.TrimSpace(r.ClientName)
	r.ClientPhone = strings.TrimSpace(r.ClientPhone)

	var missing []string
	for _, f := range []struct{ name, val string }{
		{"service_id", r.ServiceID},
		{"professional_id", r.ProfessionalID},
		{"date", r.Date},
		{"time", r.Time},
		{"client_name", r.ClientName},
		{"client_phone", r.ClientPhone},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return domain.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return domain.Validation("date must match %s", DateLayout)
	}
	if _, err := time.Parse(TimeLayout, r.Time); err != nil {
		return domain.Validation("time must match %s", TimeLayout)
	}
	if len(r.ClientName) > 120 {
		return domain.Validation("client_name must be at most 120")
	}
	if len(r.Notes) > 2000 {
		return domain.Validation("notes must be at most 2000")
	}
	return nil
}

// StartsAt resolves the requested wall-clock date and time in loc.
func (r *BookRequest) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, r.Date+" "+r.Time, loc)
	if err != nil {
		return time.Time{}, domain.Validation("invalid date/time %q %q", r.Date, r.Time)
	}
	return t, nil
}

// Filter narrows a listing. Zero values mean "any".
type Filter struct {
	Status         Status
	PaymentStatus  PaymentStatus
	ProfessionalID string
	ClientID       string
	From           time.Time
	To             time.Time
	Limit          int
	Offset         int
}

// MaxLimit caps a single page of appointments.
const MaxLimit = 200

// Validate checks the enum values and normalizes paging.
func (f *Filter) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return domain.Validation("unknown status %q", f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return domain.Validation("unknown payment status %q", f.PaymentStatus)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return domain.Validation("to must not be before from")
	}
	if f.Limit <= 0 || f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return nil
}

// RejectRequest carries the reason shown to the client.
type RejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Validate checks the reason length.
func (r *RejectRequest) Validate() error {
	return domain.ValidateStruct(r)
}

// ProofRequest carries the reference of an uploaded proof of payment.
type ProofRequest struct {
	PaymentProofRef string `json:"payment_proof_ref" validate:"required,max=500"`
}

// Validate checks that a reference is present.
func (r *ProofRequest) Validate() error {
	r.PaymentProofRef = strings.TrimSpace(r.PaymentProofRef)
	return domain.ValidateStruct(r)
}
