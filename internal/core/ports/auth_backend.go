package ports

import (
	"context"

	"github.com/farmfresh/connect/internal/core/domain"
)

// AuthBackend is the remote authentication collaborator a session store talks to.
// Implementations return the domain sentinel errors for expected failures; anything
// else is treated by callers as the backend being unavailable.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Signup(ctx context.Context, req domain.SignupRequest) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResendOTP(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}
