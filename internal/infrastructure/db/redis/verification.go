package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript deletes the code only when it matches, in one round trip.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// CodeStore keeps pending verification codes.
// Key format: otp:<email>
type CodeStore struct {
	client *redis.Client
}

func NewCodeStore(client *redis.Client) *CodeStore {
	return &CodeStore{client: client}
}

func (s *CodeStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("otp save: %w", err)
	}
	return nil
}

func (s *CodeStore) Consume(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{s.key(email)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("otp consume: %w", err)
	}
	return n == 1, nil
}

func (s *CodeStore) key(email string) string {
	return "otp:" + strings.ToLower(email)
}

// TokenLedger records redeemed reset tokens.
// Key format: reset:redeemed:<token_id>
type TokenLedger struct {
	client *redis.Client
}

func NewTokenLedger(client *redis.Client) *TokenLedger {
	return &TokenLedger{client: client}
}

func (l *TokenLedger) Redeem(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, "reset:redeemed:"+tokenID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("token redeem: %w", err)
	}
	return ok, nil
}
