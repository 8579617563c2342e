package domain

import "time"

// NotificationVariant selects how a notification is presented.
type NotificationVariant string

const (
	VariantSuccess     NotificationVariant = "default"
	VariantDestructive NotificationVariant = "destructive"
)

// Notification is a transient user-facing message for one browser session.
type Notification struct {
	SessionID   string              `json:"-"`
	Variant     NotificationVariant `json:"variant"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
}
