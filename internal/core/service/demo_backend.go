package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/farmfresh/connect/internal/core/domain"
	"github.com/farmfresh/connect/internal/core/ports"
)

// demoNamespace seeds the deterministic identity ids handed out by DemoBackend.
var demoNamespace = uuid.MustParse("5b0f7c3e-2f1d-4c5e-9a57-6d8e1f0a4b21")

// DemoBackend is the stand-in authentication service used by the marketplace
// demo. Any well-formed credentials sign in and the role is inferred from the
// email: an address containing "farmer" is a farmer, anything else a customer.
// Real deployments use AccountBackend, where the role comes from the account.
type DemoBackend struct {
	latency time.Duration

	mu      sync.Mutex
	pending map[string]bool // email -> verified
}

var _ ports.AuthBackend = (*DemoBackend)(nil)

// NewDemoBackend returns a DemoBackend that waits latency before answering
// each call. Zero latency answers immediately.
func NewDemoBackend(latency time.Duration) *DemoBackend {
	return &DemoBackend{
		latency: latency,
		pending: make(map[string]bool),
	}
}

func (b *DemoBackend) Login(ctx context.Context, email, _ string) (*domain.Identity, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	role := domain.RoleCustomer
	if strings.Contains(email, "farmer") {
		role = domain.RoleFarmer
	}
	return &domain.Identity{
		ID:          uuid.NewSHA1(demoNamespace, []byte(strings.ToLower(email))).String(),
		DisplayName: displayName(email),
		Email:       email,
		Role:        role,
		Verified:    true,
	}, nil
}

func (b *DemoBackend) Signup(ctx context.Context, req domain.SignupRequest) error {
	req, ok := domain.UnwrapSignup(req)
	if !ok {
		return domain.NewValidationError("role", "Please select a role")
	}
	if err := b.wait(ctx); err != nil {
		return err
	}
	key := strings.ToLower(req.Credentials().Email)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.pending[key]; exists {
		return domain.ErrEmailAlreadyRegistered
	}
	b.pending[key] = false
	return nil
}

// VerifyOTP accepts any code for an email with a signup on record.
func (b *DemoBackend) VerifyOTP(ctx context.Context, email, _ string) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	key := strings.ToLower(email)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.pending[key]; !exists {
		return domain.ErrInvalidOrExpiredCode
	}
	b.pending[key] = true
	return nil
}

func (b *DemoBackend) ResendOTP(ctx context.Context, email string) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if verified, exists := b.pending[strings.ToLower(email)]; !exists || verified {
		return domain.ErrInvalidOrExpiredCode
	}
	return nil
}

func (b *DemoBackend) ForgotPassword(ctx context.Context, _ string) error {
	return b.wait(ctx)
}

func (b *DemoBackend) ResetPassword(ctx context.Context, token, _ string) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	if token == "" {
		return domain.ErrInvalidOrExpiredToken
	}
	return nil
}

// Verified reports whether a demo signup has completed verification.
func (b *DemoBackend) Verified(email string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[strings.ToLower(email)]
}

func (b *DemoBackend) wait(ctx context.Context) error {
	if b.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(b.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// displayName turns "jane.doe@example.com" into "Jane Doe". Casers keep state,
// so each call builds its own.
func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ", "+", " ").Replace(local)
	name := strings.Join(strings.Fields(cases.Title(language.English).String(local)), " ")
	if len(name) < 2 {
		return "FarmFresh Member"
	}
	return name
}
