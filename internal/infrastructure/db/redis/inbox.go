package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farmfresh/connect/internal/core/domain"
)

const inboxCapacity = 20

// NotificationInbox buffers notifications per browser session in a list,
// newest first, capped at inboxCapacity entries.
// Key format: notifications:<session_id>
type NotificationInbox struct {
	client *redis.Client
	ttl    time.Duration
}

func NewNotificationInbox(client *redis.Client, ttl time.Duration) *NotificationInbox {
	return &NotificationInbox{client: client, ttl: ttl}
}

func (in *NotificationInbox) Push(ctx context.Context, n domain.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("inbox encode: %w", err)
	}
	key := in.key(n.SessionID)
	_, err = in.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, raw)
		p.LTrim(ctx, key, 0, inboxCapacity-1)
		if in.ttl > 0 {
			p.Expire(ctx, key, in.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("inbox push: %w", err)
	}
	return nil
}

// Drain returns pending notifications oldest first and empties the inbox.
func (in *NotificationInbox) Drain(ctx context.Context, sessionID string) ([]domain.Notification, error) {
	key := in.key(sessionID)
	var rng *redis.StringSliceCmd
	_, err := in.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		rng = p.LRange(ctx, key, 0, -1)
		p.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inbox drain: %w", err)
	}

	items := rng.Val()
	out := make([]domain.Notification, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		var n domain.Notification
		if err := json.Unmarshal([]byte(items[i]), &n); err != nil {
			continue
		}
		n.SessionID = sessionID
		out = append(out, n)
	}
	return out, nil
}

func (in *NotificationInbox) key(sessionID string) string {
	return "notifications:" + sessionID
}
