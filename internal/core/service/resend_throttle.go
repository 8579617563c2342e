package service

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const DefaultResendCooldown = 30 * time.Second

// ResendThrottle is the countdown shown next to "resend code". It paces a
// well-behaved client; it is not a security control.
type ResendThrottle struct {
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewResendThrottle(cooldown time.Duration, now func() time.Time) *ResendThrottle {
	if cooldown <= 0 {
		cooldown = DefaultResendCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &ResendThrottle{
		cooldown: cooldown,
		now:      now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Arm starts the countdown for email, as when a code has just been sent.
func (t *ResendThrottle) Arm(email string) {
	t.limiter(email).AllowN(t.now(), 1)
}

// Take consumes the resend slot for email, or reports how long is left.
func (t *ResendThrottle) Take(email string) (time.Duration, bool) {
	lim := t.limiter(email)
	now := t.now()
	if lim.AllowN(now, 1) {
		return 0, true
	}
	return remaining(lim, now, t.cooldown), false
}

// Remaining is the time until email may request another code.
func (t *ResendThrottle) Remaining(email string) time.Duration {
	return remaining(t.limiter(email), t.now(), t.cooldown)
}

func remaining(lim *rate.Limiter, now time.Time, cooldown time.Duration) time.Duration {
	tokens := lim.TokensAt(now)
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) * float64(cooldown))
}

func (t *ResendThrottle) limiter(email string) *rate.Limiter {
	key := strings.ToLower(strings.TrimSpace(email))

	t.mu.Lock()
	defer t.mu.Unlock()

	lim, ok := t.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(t.cooldown), 1)
		t.limiters[key] = lim
	}
	return lim
}
