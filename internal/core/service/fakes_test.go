package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/farmfresh/connect/internal/core/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// memSlot is an in-memory ports.SessionSlot.
type memSlot struct {
	mu       sync.Mutex
	value    []byte
	loads    int
	loadErr  error
	saveErr  error
	clearErr error
}

func (s *memSlot) Load(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.value, nil
}

func (s *memSlot) Save(_ context.Context, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.value = append([]byte(nil), value...)
	return nil
}

func (s *memSlot) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.value = nil
	return nil
}

func (s *memSlot) get() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// stubBackend answers immediately. loginFn and err override the defaults.
type stubBackend struct {
	mu      sync.Mutex
	calls   map[string]int
	loginFn func(ctx context.Context, email, password string) (*domain.Identity, error)
	err     error
}

func newStubBackend() *stubBackend {
	return &stubBackend{calls: make(map[string]int)}
}

func (b *stubBackend) count(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *stubBackend) hit(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[op]++
	return b.err
}

func (b *stubBackend) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	if err := b.hit("login"); err != nil {
		return nil, err
	}
	if b.loginFn != nil {
		return b.loginFn(ctx, email, password)
	}
	return &domain.Identity{
		ID:          "id-" + strings.ToLower(email),
		DisplayName: "Test User",
		Email:       email,
		Role:        domain.RoleCustomer,
		Verified:    true,
	}, nil
}

func (b *stubBackend) Signup(context.Context, domain.SignupRequest) error {
	return b.hit("signup")
}

func (b *stubBackend) VerifyOTP(context.Context, string, string) error {
	return b.hit("verify_otp")
}

func (b *stubBackend) ResendOTP(context.Context, string) error {
	return b.hit("resend_otp")
}

func (b *stubBackend) ForgotPassword(context.Context, string) error {
	return b.hit("forgot_password")
}

func (b *stubBackend) ResetPassword(context.Context, string, string) error {
	return b.hit("reset_password")
}

func customerSignup(email string) domain.CustomerSignup {
	return domain.CustomerSignup{SignupBase: domain.SignupBase{
		DisplayName: "Jane Doe",
		Email:       email,
		Password:    "Harvest2024",
	}}
}

func farmerSignup(email string) domain.FarmerSignup {
	return domain.FarmerSignup{
		SignupBase: domain.SignupBase{
			DisplayName: "Old MacDonald",
			Email:       email,
			Password:    "Harvest2024",
		},
		Location: "Willow Creek",
		Phone:    "+1 (555) 010-2030",
	}
}
