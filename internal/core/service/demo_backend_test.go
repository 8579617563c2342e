package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmfresh/connect/internal/core/domain"
)

func TestDemoBackend_RoleFromEmail(t *testing.T) {
	store := OpenSessionStore(context.Background(), NewDemoBackend(0), &memSlot{}, SessionStoreOptions{Logger: zerolog.Nop()})

	require.NoError(t, store.Login(context.Background(), "farmer@example.com", "anything8A"))
	assert.Equal(t, domain.RoleFarmer, store.Current().Role)

	require.NoError(t, store.Login(context.Background(), "buyer@example.com", "anything8A"))
	assert.Equal(t, domain.RoleCustomer, store.Current().Role)
}

func TestDemoBackend_Login_StableIdentity(t *testing.T) {
	b := NewDemoBackend(0)

	first, err := b.Login(context.Background(), "jane.doe@example.com", "x")
	require.NoError(t, err)
	second, err := b.Login(context.Background(), "Jane.Doe@example.com", "y")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Jane Doe", first.DisplayName)
	assert.True(t, first.Verified)
	assert.True(t, first.WellFormed())
}

func TestDemoBackend_SignupVerifyFlow(t *testing.T) {
	b := NewDemoBackend(0)
	ctx := context.Background()

	assert.ErrorIs(t, b.VerifyOTP(ctx, "new@example.com", "123456"), domain.ErrInvalidOrExpiredCode)

	require.NoError(t, b.Signup(ctx, customerSignup("new@example.com")))
	assert.ErrorIs(t, b.Signup(ctx, customerSignup("NEW@example.com")), domain.ErrEmailAlreadyRegistered)
	assert.NoError(t, b.ResendOTP(ctx, "new@example.com"))

	require.NoError(t, b.VerifyOTP(ctx, "new@example.com", "000000"))
	assert.True(t, b.Verified("new@example.com"))
	assert.ErrorIs(t, b.ResendOTP(ctx, "new@example.com"), domain.ErrInvalidOrExpiredCode)
}

func TestDemoBackend_Signup_NilRequest(t *testing.T) {
	assert.ErrorIs(t, NewDemoBackend(0).Signup(context.Background(), (*domain.CustomerSignup)(nil)), domain.ErrValidation)
}

func TestDemoBackend_LatencyHonoursContext(t *testing.T) {
	b := NewDemoBackend(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := b.Login(ctx, "jane@example.com", "x")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"jane.doe@example.com":   "Jane Doe",
		"farmer_joe@example.com": "Farmer Joe",
		"x@example.com":          "FarmFresh Member",
	}
	for email, want := range cases {
		assert.Equal(t, want, displayName(email), email)
	}
}
