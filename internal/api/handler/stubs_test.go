package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/farmfresh/connect/internal/api/middleware"
	"github.com/farmfresh/connect/internal/core/domain"
)

type stubSessionStore struct {
	identity *domain.Identity
	loading  bool
	state    domain.SessionState
	err      error
	resendIn time.Duration

	// loggedOutMidLogin leaves no identity behind after a successful Login.
	loggedOutMidLogin bool

	calls      []string
	signupReq  domain.SignupRequest
	resetToken string
}

func (s *stubSessionStore) called(op string) error {
	s.calls = append(s.calls, op)
	return s.err
}

func (s *stubSessionStore) Restore(context.Context) {}

func (s *stubSessionStore) Login(_ context.Context, email, _ string) error {
	if err := s.called("login"); err != nil {
		return err
	}
	if s.loggedOutMidLogin {
		s.identity = nil
		s.state = domain.StateAnonymous
		return nil
	}
	s.identity = &domain.Identity{ID: "u-1", DisplayName: "Jane Doe", Email: email, Role: domain.RoleCustomer, Verified: true}
	s.state = domain.StateAuthenticated
	return nil
}

func (s *stubSessionStore) Signup(_ context.Context, req domain.SignupRequest) error {
	s.signupReq = req
	return s.called("signup")
}

func (s *stubSessionStore) Logout(context.Context) {
	_ = s.called("logout")
	s.identity = nil
	s.state = domain.StateAnonymous
}

func (s *stubSessionStore) ForgotPassword(context.Context, string) error {
	return s.called("forgot_password")
}

func (s *stubSessionStore) ResetPassword(_ context.Context, token, _ string) error {
	s.resetToken = token
	return s.called("reset_password")
}

func (s *stubSessionStore) VerifyOTP(context.Context, string, string) error {
	return s.called("verify_otp")
}

func (s *stubSessionStore) ResendOTP(context.Context, string) error {
	return s.called("resend_otp")
}

func (s *stubSessionStore) ResendAvailableIn(string) time.Duration {
	return s.resendIn
}

func (s *stubSessionStore) Current() *domain.Identity {
	return s.identity
}

func (s *stubSessionStore) Loading() bool {
	return s.loading
}

func (s *stubSessionStore) State() domain.SessionState {
	return s.state
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(msg domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) last() (domain.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return domain.Notification{}, false
	}
	return n.sent[len(n.sent)-1], true
}

const testSessionID = "6f1c2c3e-8f0a-4d8b-9b7e-2c1f0e5d4a3b"

// newSessionContext builds an echo context as the Session middleware would leave it.
func newSessionContext(store *stubSessionStore, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextStore, store)
	c.Set(middleware.ContextSessionID, testSessionID)
	return c, rec
}
