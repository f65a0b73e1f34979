// Package notification defines in-app messages shown on a tenant's admin console.
package notification

import "time"

// Kind classifies a notification.
type Kind string

const (
	KindBooking Kind = "BOOKING"
	KindPayment Kind = "PAYMENT"
	KindReview  Kind = "REVIEW"
)

// Notification is a message addressed to the staff of one tenant.
type Notification struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	Kind          Kind       `json:"kind"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	AppointmentID string     `json:"appointment_id,omitempty"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Read reports whether the notification has been acknowledged.
func (n *Notification) Read() bool {
	return n.ReadAt != nil
}
