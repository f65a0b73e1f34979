// Package messagequeue defines the event bus port and the schemas of the
// events published on it.
package messagequeue

import "context"

// Handler processes one delivered message. The context carries the request
// ID of the publishing request when the producer set one.
type Handler func(ctx context.Context, subject string, data []byte) error

// Publisher sends events after a committed state change.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Subscriber delivers events to a handler until the returned cancel runs.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)
}

// Queue is the full bus connection owned by main.
type Queue interface {
	Publisher
	Subscriber

	// Drain lets in-flight handlers finish before closing.
	Drain() error
	Close() error
	IsConnected() bool
}

// Subjects published after a committed state change.
const (
	SubjectAppointmentBooked  = "appointments.booked"
	SubjectAppointmentStatus  = "appointments.status"
	SubjectAppointmentPayment = "appointments.payment"
	SubjectReviewCreated      = "reviews.created"

	// Wildcards for fan-out subscribers. A single-token wildcard leaves the
	// ".dlq" subjects out.
	SubjectAppointments = "appointments.*"
	SubjectReviews      = "reviews.*"
)
