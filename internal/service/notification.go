// Package service contains application services.
package service

import (
	"context"

	"github.com/agendei/agendei/internal/domain/notification"
	"github.com/agendei/agendei/internal/port/database"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationService serves the in-app notifications of a tenant's console.
type NotificationService struct{}

// NewNotificationService creates a NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// List returns the newest notifications, optionally only unread ones.
func (s *NotificationService) List(ctx context.Context, h database.Scoped, unreadOnly bool, limit int) ([]notification.Notification, error) {
	switch {
	case limit <= 0:
		limit = defaultNotificationLimit
	case limit > maxNotificationLimit:
		limit = maxNotificationLimit
	}
	return h.ListNotifications(ctx, unreadOnly, limit)
}

// MarkRead acknowledges a notification. Marking it again keeps the first
// read time.
func (s *NotificationService) MarkRead(ctx context.Context, h database.Scoped, id string) error {
	return h.MarkNotificationRead(ctx, id)
}
