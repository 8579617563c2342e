package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farmfresh/connect/internal/core/ports"
)

// SessionKeyPrefix namespaces persisted sessions.
// Key format: farmfresh_user:<session_id>
const SessionKeyPrefix = "farmfresh_user:"

// SessionSlot is the persisted session cell of one browser session.
type SessionSlot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSessionSlot binds a slot to sessionID. A non-zero ttl expires the key.
func NewSessionSlot(client *redis.Client, sessionID string, ttl time.Duration) *SessionSlot {
	return &SessionSlot{client: client, key: SessionKeyPrefix + sessionID, ttl: ttl}
}

// SlotProvider returns a ports.SlotProvider handing out Redis slots.
func SlotProvider(client *redis.Client, ttl time.Duration) ports.SlotProvider {
	return func(sessionID string) ports.SessionSlot {
		return NewSessionSlot(client, sessionID, ttl)
	}
}

func (s *SessionSlot) Load(ctx context.Context) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session slot load: %w", err)
	}
	return raw, nil
}

func (s *SessionSlot) Save(ctx context.Context, value []byte) error {
	if err := s.client.Set(ctx, s.key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("session slot save: %w", err)
	}
	return nil
}

func (s *SessionSlot) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("session slot clear: %w", err)
	}
	return nil
}
