package domain

import "time"

// SessionState is the lifecycle position of a session store.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateRestoring
	StateAnonymous
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// SessionRecord is the value written to the persisted session slot.
type SessionRecord struct {
	Identity  Identity  `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the record is past its expiry at now.
// A zero ExpiresAt never expires.
func (r *SessionRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}
