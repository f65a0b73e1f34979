package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/agendei/agendei/internal/port/broadcast"
	"github.com/agendei/agendei/internal/port/messagequeue"
)

// subjectEvents maps queue subjects to the event types pushed to consoles.
var subjectEvents = map[string]string{
	messagequeue.SubjectAppointmentBooked:  broadcast.EventAppointmentBooked,
	messagequeue.SubjectAppointmentStatus:  broadcast.EventAppointmentStatus,
	messagequeue.SubjectAppointmentPayment: broadcast.EventAppointmentPayment,
	messagequeue.SubjectReviewCreated:      broadcast.EventReviewCreated,
}

// BroadcastToTenant marshals a typed event and sends it to tenantID's connections.
func (h *Hub) BroadcastToTenant(ctx context.Context, tenantID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Send(ctx, tenantID, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}

// HandleQueueMessage routes one queue message to the connections of the
// tenant named in its payload. Unknown subjects are ignored.
func (h *Hub) HandleQueueMessage(ctx context.Context, subject string, data []byte) error {
	eventType, ok := subjectEvents[subject]
	if !ok {
		return nil
	}
	var envelope struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode %s: %w", subject, err)
	}
	h.Send(ctx, envelope.TenantID, Message{Type: eventType, Payload: json.RawMessage(data)})
	return nil
}

// Relay subscribes the hub to every appointment and review event on q.
// The returned function cancels both subscriptions.
func Relay(ctx context.Context, q messagequeue.Subscriber, h *Hub) (func(), error) {
	var stops []func()
	stopAll := func() {
		for _, stop := range stops {
			stop()
		}
	}
	for _, subject := range []string{messagequeue.SubjectAppointments, messagequeue.SubjectReviews} {
		stop, err := q.Subscribe(ctx, subject, h.HandleQueueMessage)
		if err != nil {
			stopAll()
			return nil, fmt.Errorf("relay subscribe %s: %w", subject, err)
		}
		stops = append(stops, stop)
	}
	return stopAll, nil
}
