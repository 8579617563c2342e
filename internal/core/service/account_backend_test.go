package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/farmfresh/connect/internal/core/domain"
)

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.Email]; exists {
		return nil, domain.ErrEmailAlreadyRegistered
	}
	r.accounts[account.Email] = cloneAccount(account)
	return cloneAccount(account), nil
}

func (r *stubAccountRepo) MarkVerified(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Verified = true
	return nil
}

func (r *stubAccountRepo) UpdatePasswordHash(_ context.Context, email, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.PasswordHash = hash
	return nil
}

type stubCodes struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *stubCodes) Save(_ context.Context, email, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[email] = code
	return nil
}

func (s *stubCodes) Consume(_ context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes[email] != code || code == "" {
		return false, nil
	}
	delete(s.codes, email)
	return true, nil
}

type stubLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (l *stubLedger) Redeem(_ context.Context, id string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	if l.seen[id] {
		return false, nil
	}
	l.seen[id] = true
	return true, nil
}

type stubMailer struct {
	mu     sync.Mutex
	codes  map[string]string
	tokens map[string]string
	err    error
}

func (m *stubMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[email] = code
	return m.err
}

func (m *stubMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = make(map[string]string)
	}
	m.tokens[email] = token
	return m.err
}

type accountFixture struct {
	backend *AccountBackend
	repo    *stubAccountRepo
	mailer  *stubMailer
	clock   *fakeClock
}

const testSecret = "test-secret"

func newAccountFixture() *accountFixture {
	f := &accountFixture{
		repo:   newStubAccountRepo(),
		mailer: &stubMailer{},
		clock:  newFakeClock(),
	}
	f.backend = NewAccountBackend(f.repo, &stubCodes{}, &stubLedger{}, f.mailer, AccountBackendConfig{
		JWTSecret: testSecret,
		ResetTTL:  time.Hour,
	}, zerolog.Nop())
	f.backend.now = f.clock.Now
	seq := 0
	f.backend.newCode = func() (string, error) {
		seq++
		return []string{"111111", "222222", "333333"}[seq%3], nil
	}
	return f
}

func TestAccountBackend_SignupVerifyLogin(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	require.NoError(t, f.backend.Signup(ctx, customerSignup("Buyer@Example.com")))

	stored, err := f.repo.FindByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Harvest2024", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Harvest2024")))
	assert.Equal(t, domain.RoleCustomer, stored.Role)

	identity, err := f.backend.Login(ctx, "buyer@example.com", "Harvest2024")
	require.NoError(t, err)
	assert.False(t, identity.Verified)

	assert.ErrorIs(t, f.backend.VerifyOTP(ctx, "buyer@example.com", "999999"), domain.ErrInvalidOrExpiredCode)
	require.NoError(t, f.backend.VerifyOTP(ctx, "buyer@example.com", f.mailer.codes["buyer@example.com"]))

	identity, err = f.backend.Login(ctx, "BUYER@example.com", "Harvest2024")
	require.NoError(t, err)
	assert.True(t, identity.Verified)
	assert.True(t, identity.WellFormed())
}

func TestAccountBackend_FarmerSignupKeepsFarmDetails(t *testing.T) {
	f := newAccountFixture()

	require.NoError(t, f.backend.Signup(context.Background(), farmerSignup("farmer@example.com")))

	stored, err := f.repo.FindByEmail(context.Background(), "farmer@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFarmer, stored.Role)
	assert.Equal(t, "Willow Creek", stored.Location)
	assert.Equal(t, "+1 (555) 010-2030", stored.Phone)
}

func TestAccountBackend_DuplicateSignup(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	require.NoError(t, f.backend.Signup(ctx, customerSignup("buyer@example.com")))

	assert.ErrorIs(t, f.backend.Signup(ctx, farmerSignup("buyer@example.com")), domain.ErrEmailAlreadyRegistered)
}

func TestAccountBackend_Signup_NilRequest(t *testing.T) {
	f := newAccountFixture()

	err := f.backend.Signup(context.Background(), (*domain.FarmerSignup)(nil))

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.mailer.codes)
}

func TestAccountBackend_LoginFailures(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	require.NoError(t, f.backend.Signup(ctx, customerSignup("buyer@example.com")))

	_, err := f.backend.Login(ctx, "buyer@example.com", "Wrong12345")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.backend.Login(ctx, "nobody@example.com", "Harvest2024")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAccountBackend_ResendOTP(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	assert.ErrorIs(t, f.backend.ResendOTP(ctx, "nobody@example.com"), domain.ErrInvalidOrExpiredCode)

	require.NoError(t, f.backend.Signup(ctx, customerSignup("buyer@example.com")))
	first := f.mailer.codes["buyer@example.com"]
	require.NoError(t, f.backend.ResendOTP(ctx, "buyer@example.com"))
	second := f.mailer.codes["buyer@example.com"]
	assert.NotEqual(t, first, second)

	assert.ErrorIs(t, f.backend.VerifyOTP(ctx, "buyer@example.com", first), domain.ErrInvalidOrExpiredCode)
	require.NoError(t, f.backend.VerifyOTP(ctx, "buyer@example.com", second))

	assert.ErrorIs(t, f.backend.ResendOTP(ctx, "buyer@example.com"), domain.ErrInvalidOrExpiredCode)
}

func TestAccountBackend_ForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	f := newAccountFixture()

	require.NoError(t, f.backend.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Empty(t, f.mailer.tokens)
}

func TestAccountBackend_ResetPassword(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	require.NoError(t, f.backend.Signup(ctx, customerSignup("buyer@example.com")))
	require.NoError(t, f.backend.ForgotPassword(ctx, "buyer@example.com"))
	token := f.mailer.tokens["buyer@example.com"]
	require.NotEmpty(t, token)

	require.NoError(t, f.backend.ResetPassword(ctx, token, "NewHarvest9"))

	_, err := f.backend.Login(ctx, "buyer@example.com", "NewHarvest9")
	assert.NoError(t, err)
	_, err = f.backend.Login(ctx, "buyer@example.com", "Harvest2024")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	assert.ErrorIs(t, f.backend.ResetPassword(ctx, token, "Another123"), domain.ErrInvalidOrExpiredToken, "token is single-use")
}

func TestAccountBackend_ResetPassword_Expired(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	require.NoError(t, f.backend.Signup(ctx, customerSignup("buyer@example.com")))
	require.NoError(t, f.backend.ForgotPassword(ctx, "buyer@example.com"))

	f.clock.Advance(2 * time.Hour)

	err := f.backend.ResetPassword(ctx, f.mailer.tokens["buyer@example.com"], "NewHarvest9")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestAccountBackend_ResetPassword_RejectsForeignTokens(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	require.NoError(t, f.backend.Signup(ctx, customerSignup("buyer@example.com")))
	now := f.clock.Now()

	sign := func(secret string, claims resetClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return tok
	}
	valid := jwt.RegisteredClaims{
		ID:        "jti-1",
		Subject:   "buyer@example.com",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	cases := map[string]string{
		"garbage":       "not-a-jwt",
		"wrong secret":  sign("other-secret", resetClaims{Purpose: resetPurpose, RegisteredClaims: valid}),
		"wrong purpose": sign(testSecret, resetClaims{Purpose: "session", RegisteredClaims: valid}),
		"no expiry": sign(testSecret, resetClaims{Purpose: resetPurpose, RegisteredClaims: jwt.RegisteredClaims{
			ID: "jti-2", Subject: "buyer@example.com",
		}}),
		"unknown account": sign(testSecret, resetClaims{Purpose: resetPurpose, RegisteredClaims: jwt.RegisteredClaims{
			ID: "jti-3", Subject: "nobody@example.com", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			err := f.backend.ResetPassword(ctx, token, "NewHarvest9")
			assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
		})
	}
}

func TestAccountBackend_MailerFailureSurfaces(t *testing.T) {
	f := newAccountFixture()
	f.mailer.err = errors.New("smtp down")

	err := f.backend.Signup(context.Background(), customerSignup("buyer@example.com"))

	require.Error(t, err)
	assert.ErrorIs(t, remoteError(err), domain.ErrRemoteUnavailable)
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
}
