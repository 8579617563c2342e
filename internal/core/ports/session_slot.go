package ports

import "context"

// SessionSlot is the single persisted cell a session store restores from.
// Load returns nil, nil when the slot is empty.
type SessionSlot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, value []byte) error
	Clear(ctx context.Context) error
}

// SlotProvider returns the slot bound to one browser session.
type SlotProvider func(sessionID string) SessionSlot
