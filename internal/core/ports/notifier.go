package ports

import (
	"context"

	"github.com/farmfresh/connect/internal/core/domain"
)

// Notifier is a fire-and-forget sink for user-facing messages.
type Notifier interface {
	Notify(n domain.Notification)
}

// NotificationInbox buffers delivered notifications until the view drains them.
type NotificationInbox interface {
	Push(ctx context.Context, n domain.Notification) error
	Drain(ctx context.Context, sessionID string) ([]domain.Notification, error)
}
