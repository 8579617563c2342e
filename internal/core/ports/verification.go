package ports

import (
	"context"
	"time"
)

// VerificationCodeStore keeps the pending one-time code per email.
type VerificationCodeStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume deletes the stored code and reports true only when it matches.
	Consume(ctx context.Context, email, code string) (bool, error)
}

// TokenLedger makes reset tokens single-use.
type TokenLedger interface {
	// Redeem reports true the first time tokenID is seen within ttl.
	Redeem(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

// CodeMailer dispatches verification codes and reset links out of band.
type CodeMailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}
