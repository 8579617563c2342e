package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/farmfresh/connect/internal/core/domain"
	"github.com/farmfresh/connect/internal/core/ports"
)

const (
	defaultCodeTTL  = 10 * time.Minute
	defaultResetTTL = time.Hour
	resetPurpose    = "password_reset"
	codeDigits      = 6
)

// AccountBackendConfig carries the secrets and lifetimes of AccountBackend.
type AccountBackendConfig struct {
	JWTSecret string
	CodeTTL   time.Duration
	ResetTTL  time.Duration
}

// AccountBackend authenticates against stored accounts. Roles are asserted by
// the account record, passwords are bcrypt hashes, verification codes live in
// a VerificationCodeStore, and reset tokens are signed JWTs redeemed once.
type AccountBackend struct {
	repo    ports.AccountRepository
	codes   ports.VerificationCodeStore
	ledger  ports.TokenLedger
	mailer  ports.CodeMailer
	cfg     AccountBackendConfig
	now     func() time.Time
	newCode func() (string, error)
	log     zerolog.Logger
}

var _ ports.AuthBackend = (*AccountBackend)(nil)

func NewAccountBackend(
	repo ports.AccountRepository,
	codes ports.VerificationCodeStore,
	ledger ports.TokenLedger,
	mailer ports.CodeMailer,
	cfg AccountBackendConfig,
	log zerolog.Logger,
) *AccountBackend {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = defaultCodeTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = defaultResetTTL
	}
	return &AccountBackend{
		repo:    repo,
		codes:   codes,
		ledger:  ledger,
		mailer:  mailer,
		cfg:     cfg,
		now:     time.Now,
		newCode: generateCode,
		log:     log.With().Str("component", "account_backend").Logger(),
	}
}

func (b *AccountBackend) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	account, err := b.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return account.Identity(), nil
}

func (b *AccountBackend) Signup(ctx context.Context, req domain.SignupRequest) error {
	req, ok := domain.UnwrapSignup(req)
	if !ok {
		return domain.NewValidationError("role", "Please select a role")
	}
	creds := req.Credentials()
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("signup: hash password: %w", err)
	}

	now := b.now().UTC()
	account := &domain.Account{
		ID:           uuid.NewString(),
		DisplayName:  strings.TrimSpace(creds.DisplayName),
		Email:        normalizeEmail(creds.Email),
		PasswordHash: string(hash),
		Role:         req.Role(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if farmer, ok := asFarmer(req); ok {
		account.Location = strings.TrimSpace(farmer.Location)
		account.Phone = strings.TrimSpace(farmer.Phone)
	}

	if _, err := b.repo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyRegistered) {
			return err
		}
		return fmt.Errorf("signup: %w", err)
	}

	return b.dispatchCode(ctx, account.Email)
}

func (b *AccountBackend) VerifyOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	ok, err := b.codes.Consume(ctx, email, code)
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return domain.ErrInvalidOrExpiredCode
	}
	if err := b.repo.MarkVerified(ctx, email); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("verify otp: %w", err)
	}
	return nil
}

// ResendOTP replaces the pending code of an unverified account.
func (b *AccountBackend) ResendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	account, err := b.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("resend otp: %w", err)
	}
	if account.Verified {
		return domain.ErrInvalidOrExpiredCode
	}
	return b.dispatchCode(ctx, email)
}

// ForgotPassword mails a reset token. Unknown emails succeed silently so the
// response does not reveal which addresses hold accounts.
func (b *AccountBackend) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := b.repo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			b.log.Debug().Str("email", email).Msg("reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("forgot password: %w", err)
	}

	token, err := b.issueResetToken(email)
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	if err := b.mailer.SendPasswordReset(ctx, email, token); err != nil {
		return fmt.Errorf("forgot password: send: %w", err)
	}
	return nil
}

func (b *AccountBackend) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := b.parseResetToken(token)
	if err != nil {
		return domain.ErrInvalidOrExpiredToken
	}

	ttl := claims.ExpiresAt.Time.Sub(b.now())
	if ttl <= 0 {
		return domain.ErrInvalidOrExpiredToken
	}
	first, err := b.ledger.Redeem(ctx, claims.ID, ttl)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if !first {
		return domain.ErrInvalidOrExpiredToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("reset password: hash password: %w", err)
	}
	if err := b.repo.UpdatePasswordHash(ctx, claims.Subject, string(hash)); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

func (b *AccountBackend) dispatchCode(ctx context.Context, email string) error {
	code, err := b.newCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := b.codes.Save(ctx, email, code, b.cfg.CodeTTL); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if err := b.mailer.SendVerificationCode(ctx, email, code); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (b *AccountBackend) issueResetToken(email string) (string, error) {
	now := b.now()
	claims := resetClaims{
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(b.cfg.ResetTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(b.cfg.JWTSecret))
}

func (b *AccountBackend) parseResetToken(token string) (*resetClaims, error) {
	claims := &resetClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(b.cfg.JWTSecret), nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(b.now))
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("parse reset token: %w", err)
	}
	if claims.Purpose != resetPurpose || claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("parse reset token: not a reset token")
	}
	return claims, nil
}

// generateCode returns a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func asFarmer(req domain.SignupRequest) (domain.FarmerSignup, bool) {
	r, ok := domain.UnwrapSignup(req)
	if !ok {
		return domain.FarmerSignup{}, false
	}
	f, ok := r.(domain.FarmerSignup)
	return f, ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
