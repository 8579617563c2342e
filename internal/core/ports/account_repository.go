package ports

import (
	"context"

	"github.com/farmfresh/connect/internal/core/domain"
)

// AccountRepository persists backend accounts. Lookups of a missing email
// return domain.ErrAccountNotFound; duplicate creates return
// domain.ErrEmailAlreadyRegistered.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	MarkVerified(ctx context.Context, email string) error
	UpdatePasswordHash(ctx context.Context, email, hash string) error
}
