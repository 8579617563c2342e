package middleware

import (
	"context"
	"time"

	"github.com/farmfresh/connect/internal/core/domain"
)

// stubStore is a read-only ports.SessionStore for middleware tests.
type stubStore struct {
	identity *domain.Identity
	loading  bool
}

func (s *stubStore) Restore(context.Context) {}

func (s *stubStore) Login(context.Context, string, string) error {
	return nil
}

func (s *stubStore) Signup(context.Context, domain.SignupRequest) error {
	return nil
}

func (s *stubStore) Logout(context.Context) {}

func (s *stubStore) ForgotPassword(context.Context, string) error {
	return nil
}

func (s *stubStore) ResetPassword(context.Context, string, string) error {
	return nil
}

func (s *stubStore) VerifyOTP(context.Context, string, string) error {
	return nil
}

func (s *stubStore) ResendOTP(context.Context, string) error {
	return nil
}

func (s *stubStore) ResendAvailableIn(string) time.Duration {
	return 0
}

func (s *stubStore) Current() *domain.Identity {
	return s.identity
}

func (s *stubStore) Loading() bool {
	return s.loading
}

func (s *stubStore) State() domain.SessionState {
	return domain.StateAnonymous
}

func farmer(verified bool) *domain.Identity {
	return &domain.Identity{ID: "u-1", DisplayName: "Farmer Joe", Email: "farmer@example.com", Role: domain.RoleFarmer, Verified: verified}
}
