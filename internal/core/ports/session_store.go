package ports

import (
	"context"
	"time"

	"github.com/farmfresh/connect/internal/core/domain"
)

// SessionStore owns "who is logged in" for one browser session.
type SessionStore interface {
	Restore(ctx context.Context)
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, req domain.SignupRequest) error
	Logout(ctx context.Context)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResendOTP(ctx context.Context, email string) error
	ResendAvailableIn(email string) time.Duration

	Current() *domain.Identity
	Loading() bool
	State() domain.SessionState
}
