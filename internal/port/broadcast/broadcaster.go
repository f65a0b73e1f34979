// Package broadcast defines the port for pushing real-time events to the
// connected admin consoles of a tenant.
package broadcast

import "context"

// Event types pushed to admin consoles.
const (
	EventAppointmentBooked  = "appointment.booked"
	EventAppointmentStatus  = "appointment.status"
	EventAppointmentPayment = "appointment.payment"
	EventReviewCreated      = "review.created"
)

// Broadcaster sends real-time events to connected clients. Delivery is
// partitioned by tenant: a client only ever receives its own tenant's events.
type Broadcaster interface {
	BroadcastToTenant(ctx context.Context, tenantID, eventType string, payload any)
}
