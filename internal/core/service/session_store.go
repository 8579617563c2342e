package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/farmfresh/connect/internal/api/metrics"
	"github.com/farmfresh/connect/internal/core/domain"
	"github.com/farmfresh/connect/internal/core/ports"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionStoreOptions tunes a SessionStore. Zero values select the defaults.
type SessionStoreOptions struct {
	// SessionTTL bounds how long a persisted session stays restorable.
	SessionTTL time.Duration
	// ResendCooldown is the countdown between verification code sends.
	ResendCooldown time.Duration
	Now            func() time.Time
	Logger         zerolog.Logger
}

// SessionStore is the single authority for who is logged in within one
// browser session. It restores from and persists to one SessionSlot.
type SessionStore struct {
	backend     ports.AuthBackend
	slot        ports.SessionSlot
	validate    *Validator
	throttle    *ResendThrottle
	ttl         time.Duration
	now         func() time.Time
	log         zerolog.Logger
	restoreOnce sync.Once

	mu        sync.RWMutex
	state     domain.SessionState
	current   *domain.Identity
	expiresAt time.Time
	inflight  int
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore returns a store in the Uninitialized state. Call Restore
// before serving reads.
func NewSessionStore(backend ports.AuthBackend, slot ports.SessionSlot, opts SessionStoreOptions) *SessionStore {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionStore{
		backend:  backend,
		slot:     slot,
		validate: NewValidator(),
		throttle: NewResendThrottle(opts.ResendCooldown, opts.Now),
		ttl:      opts.SessionTTL,
		now:      opts.Now,
		log:      opts.Logger.With().Str("component", "session_store").Logger(),
		state:    domain.StateUninitialized,
	}
}

// OpenSessionStore constructs a store and restores it from the slot.
func OpenSessionStore(ctx context.Context, backend ports.AuthBackend, slot ports.SessionSlot, opts SessionStoreOptions) *SessionStore {
	s := NewSessionStore(backend, slot, opts)
	s.Restore(ctx)
	return s
}

// Restore reads the persisted slot once. It never fails: anything other than
// a well-formed, unexpired record leaves the store Anonymous, and corrupt or
// expired records are cleared from the slot.
func (s *SessionStore) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() {
		s.mu.Lock()
		s.state = domain.StateRestoring
		s.mu.Unlock()

		rec, outcome := s.readSlot(ctx)
		metrics.SessionsRestoredTotal.WithLabelValues(outcome).Inc()

		s.mu.Lock()
		defer s.mu.Unlock()
		if rec != nil {
			identity := rec.Identity
			s.current = &identity
			s.expiresAt = rec.ExpiresAt
			s.state = domain.StateAuthenticated
			return
		}
		s.state = domain.StateAnonymous
	})
}

func (s *SessionStore) readSlot(ctx context.Context) (*domain.SessionRecord, string) {
	raw, err := s.slot.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session slot read failed, continuing anonymous")
		return nil, "read_failed"
	}
	if len(raw) == 0 {
		return nil, "empty"
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil || !rec.Identity.WellFormed() {
		s.log.Warn().Err(err).Msg("discarding corrupt session record")
		s.clearSlot(ctx)
		return nil, "corrupt"
	}
	if rec.Expired(s.now()) {
		s.log.Debug().Str("email", rec.Identity.Email).Time("expires_at", rec.ExpiresAt).Msg("session expired")
		s.clearSlot(ctx)
		return nil, "expired"
	}

	return &rec, "authenticated"
}

// Login authenticates and makes the returned identity current, replacing any
// previous one. The identity is persisted before it is adopted.
func (s *SessionStore) Login(ctx context.Context, email, password string) error {
	if err := s.validate.Login(email, password); err != nil {
		return s.record("login", err)
	}

	s.begin()
	defer s.end()

	start := s.now()
	identity, err := s.backend.Login(ctx, email, password)
	metrics.AuthOperationDuration.WithLabelValues("login").Observe(time.Since(start).Seconds())
	if err != nil {
		return s.record("login", remoteError(err))
	}
	if !identity.WellFormed() {
		return s.record("login", fmt.Errorf("%w: backend returned malformed identity", domain.ErrRemoteUnavailable))
	}

	now := s.now()
	rec := domain.SessionRecord{
		Identity:  *identity,
		IssuedAt:  now.UTC(),
		ExpiresAt: now.Add(s.ttl).UTC(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return s.record("login", fmt.Errorf("encode session: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.slot.Save(ctx, raw); err != nil {
		return s.record("login", fmt.Errorf("%w: persist session: %v", domain.ErrRemoteUnavailable, err))
	}
	adopted := *identity
	s.current = &adopted
	s.expiresAt = rec.ExpiresAt
	s.state = domain.StateAuthenticated

	s.log.Info().Str("user_id", identity.ID).Str("role", string(identity.Role)).Msg("signed in")
	return s.record("login", nil)
}

// Signup registers an unverified account. It never changes the current
// identity; the caller verifies the code and then signs in.
func (s *SessionStore) Signup(ctx context.Context, req domain.SignupRequest) error {
	if err := s.validate.Signup(req); err != nil {
		return s.record("signup", err)
	}

	s.begin()
	defer s.end()

	email := req.Credentials().Email
	if err := s.call(ctx, "signup", func(ctx context.Context) error {
		return s.backend.Signup(ctx, req)
	}); err != nil {
		return err
	}
	s.throttle.Arm(email)
	return nil
}

// VerifyOTP confirms a pending signup. It does not sign the user in.
func (s *SessionStore) VerifyOTP(ctx context.Context, email, code string) error {
	if err := s.validate.OTP(email, code); err != nil {
		return s.record("verify_otp", err)
	}
	return s.call(ctx, "verify_otp", func(ctx context.Context) error {
		return s.backend.VerifyOTP(ctx, email, code)
	})
}

// ResendOTP asks for a new code once the countdown for email has elapsed.
func (s *SessionStore) ResendOTP(ctx context.Context, email string) error {
	if err := s.validate.Email(email); err != nil {
		return s.record("resend_otp", err)
	}
	if left, ok := s.throttle.Take(email); !ok {
		return s.record("resend_otp", &domain.CooldownError{Remaining: left})
	}
	return s.call(ctx, "resend_otp", func(ctx context.Context) error {
		return s.backend.ResendOTP(ctx, email)
	})
}

// ResendAvailableIn reports the countdown before ResendOTP will be accepted.
func (s *SessionStore) ResendAvailableIn(email string) time.Duration {
	return s.throttle.Remaining(email)
}

func (s *SessionStore) ForgotPassword(ctx context.Context, email string) error {
	if err := s.validate.Email(email); err != nil {
		return s.record("forgot_password", err)
	}
	return s.call(ctx, "forgot_password", func(ctx context.Context) error {
		return s.backend.ForgotPassword(ctx, email)
	})
}

// ResetPassword sets a new password using a reset token. A structurally
// absent token is rejected before anything else. A successful reset does not
// establish a session.
func (s *SessionStore) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return s.record("reset_password", domain.ErrInvalidOrExpiredToken)
	}
	if err := s.validate.NewPassword(newPassword); err != nil {
		return s.record("reset_password", err)
	}
	return s.call(ctx, "reset_password", func(ctx context.Context) error {
		return s.backend.ResetPassword(ctx, token, newPassword)
	})
}

// Logout clears the current identity and the persisted slot. It always
// succeeds; a failed slot clear is only logged.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.expiresAt = time.Time{}
	s.state = domain.StateAnonymous
	s.clearSlot(ctx)
}

// Current returns a copy of the signed-in identity, or nil.
func (s *SessionStore) Current() *domain.Identity {
	s.expire()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	identity := *s.current
	return &identity
}

// Loading is true while restoring and while a login or signup is in flight.
func (s *SessionStore) Loading() bool {
	s.expire()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == domain.StateUninitialized || s.state == domain.StateRestoring || s.inflight > 0
}

func (s *SessionStore) State() domain.SessionState {
	s.expire()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// expire drops an adopted session once its expiry has passed. The slot key
// carries the same TTL, so only memory needs clearing.
func (s *SessionStore) expire() {
	now := s.now()
	s.mu.RLock()
	due := s.pastExpiry(now)
	s.mu.RUnlock()
	if !due {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pastExpiry(now) {
		return
	}
	s.log.Debug().Str("user_id", s.current.ID).Time("expires_at", s.expiresAt).Msg("session expired")
	s.current = nil
	s.expiresAt = time.Time{}
	s.state = domain.StateAnonymous
}

func (s *SessionStore) pastExpiry(now time.Time) bool {
	return s.state == domain.StateAuthenticated && s.current != nil &&
		!s.expiresAt.IsZero() && !now.Before(s.expiresAt)
}

func (s *SessionStore) begin() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *SessionStore) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// call runs one backend operation, timing it and normalising its error.
func (s *SessionStore) call(ctx context.Context, op string, fn func(context.Context) error) error {
	start := s.now()
	err := fn(ctx)
	metrics.AuthOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return s.record(op, remoteError(err))
	}
	return s.record(op, nil)
}

func (s *SessionStore) record(op string, err error) error {
	metrics.AuthOperationsTotal.WithLabelValues(op, errorClass(err)).Inc()
	if err != nil {
		s.log.Debug().Err(err).Str("operation", op).Msg("session operation failed")
	}
	return err
}

func (s *SessionStore) clearSlot(ctx context.Context) {
	if err := s.slot.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("session slot clear failed")
	}
}

// remoteError keeps expected backend failures and folds everything else into
// ErrRemoteUnavailable.
func remoteError(err error) error {
	for _, known := range []error{
		domain.ErrValidation,
		domain.ErrInvalidCredentials,
		domain.ErrEmailAlreadyRegistered,
		domain.ErrInvalidOrExpiredCode,
		domain.ErrInvalidOrExpiredToken,
		domain.ErrRemoteUnavailable,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
}

func errorClass(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrEmailAlreadyRegistered):
		return "email_registered"
	case errors.Is(err, domain.ErrInvalidOrExpiredCode):
		return "invalid_code"
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrResendCooldown):
		return "cooldown"
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return "remote_unavailable"
	default:
		return "internal"
	}
}
