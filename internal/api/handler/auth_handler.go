package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/farmfresh/connect/internal/core/domain"
	"github.com/farmfresh/connect/internal/core/ports"
)

type AuthHandler struct {
	notifier ports.Notifier
	now      func() time.Time
}

func NewAuthHandler(notifier ports.Notifier) *AuthHandler {
	return &AuthHandler{notifier: notifier, now: time.Now}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

type sessionResponse struct {
	User    *domain.Identity `json:"user"`
	Loading bool             `json:"loading"`
	State   string           `json:"state"`
}

type nextResponse struct {
	Status string `json:"status"`
	Next   string `json:"next,omitempty"`
}

type countdownResponse struct {
	SecondsLeft int  `json:"seconds_left"`
	CanResend   bool `json:"can_resend"`
}

// Session reports the current identity and loading flag.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	store, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{
		User:    store.Current(),
		Loading: store.Loading(),
		State:   store.State().String(),
	})
}

// Login signs the browser session in.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	store, sid, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	if err := store.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		h.fail(sid, "Sign in failed", "Please check your email and password and try again.")
		return err
	}

	// A concurrent logout may already have cleared the identity.
	user := store.Current()
	if user != nil {
		h.succeed(sid, "Welcome back!", fmt.Sprintf("You're signed in as %s.", user.DisplayName))
	}
	return c.JSON(http.StatusOK, sessionResponse{User: user, Loading: store.Loading(), State: store.State().String()})
}

// Logout ends the browser session.
//
// @Summary      Sign out
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	store, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	store.Logout(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// SignupCustomer registers a customer account pending verification.
//
// @Summary      Sign up as a customer
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.CustomerSignup  true  "Customer details"
// @Success      201   {object}  nextResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/signup/customer [post]
func (h *AuthHandler) SignupCustomer(c echo.Context) error {
	var req domain.CustomerSignup
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	return h.signup(c, req)
}

// SignupFarmer registers a farmer account pending verification.
//
// @Summary      Sign up as a farmer
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      domain.FarmerSignup  true  "Farmer details"
// @Success      201   {object}  nextResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/signup/farmer [post]
func (h *AuthHandler) SignupFarmer(c echo.Context) error {
	var req domain.FarmerSignup
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	return h.signup(c, req)
}

func (h *AuthHandler) signup(c echo.Context, req domain.SignupRequest) error {
	store, sid, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := store.Signup(c.Request().Context(), req); err != nil {
		h.fail(sid, "Something went wrong", "Please try again later.")
		return err
	}

	h.succeed(sid, "Account created!", fmt.Sprintf("You've successfully signed up as a %s.", req.Role()))
	return c.JSON(http.StatusCreated, nextResponse{
		Status: "pending_verification",
		Next:   "/verify-otp?email=" + url.QueryEscape(req.Credentials().Email),
	})
}

// VerifyOTP confirms the emailed verification code.
//
// @Summary      Verify email code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOTPRequest  true  "Email and 6-digit code"
// @Success      200   {object}  nextResponse
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	store, sid, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	if err := store.VerifyOTP(c.Request().Context(), req.Email, req.Code); err != nil {
		h.fail(sid, "Verification failed", "The code you entered is incorrect. Please try again.")
		return err
	}

	h.succeed(sid, "Verification successful", "Your email has been verified successfully.")
	return c.JSON(http.StatusOK, nextResponse{Status: "verified", Next: "/"})
}

// ResendOTP sends a fresh verification code once the countdown has elapsed.
//
// @Summary      Resend email code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Email of the pending signup"
// @Success      202   {object}  countdownResponse
// @Failure      429   {object}  map[string]string
// @Router       /auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c echo.Context) error {
	store, sid, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	if err := store.ResendOTP(c.Request().Context(), req.Email); err != nil {
		h.fail(sid, "Failed to resend", "We couldn't send a new code. Please try again later.")
		return err
	}

	h.succeed(sid, "OTP resent", "A new verification code has been sent to your email.")
	return c.JSON(http.StatusAccepted, countdown(store.ResendAvailableIn(req.Email)))
}

// ResendCountdown reports how long until a code may be resent.
//
// @Summary      Resend countdown
// @Tags         auth
// @Produce      json
// @Param        email  query     string  true  "Email of the pending signup"
// @Success      200    {object}  countdownResponse
// @Router       /auth/resend-otp [get]
func (h *AuthHandler) ResendCountdown(c echo.Context) error {
	store, _, err := ctxSession(c)
	if err != nil {
		return err
	}
	email := strings.TrimSpace(c.QueryParam("email"))
	if email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email is required"})
	}
	return c.JSON(http.StatusOK, countdown(store.ResendAvailableIn(email)))
}

// ForgotPassword requests a reset link.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Account email"
// @Success      202   {object}  nextResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	store, sid, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	if err := store.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		h.fail(sid, "Something went wrong", "We couldn't send a reset email. Please try again.")
		return err
	}

	h.succeed(sid, "Reset email sent", "Check your inbox for password reset instructions.")
	return c.JSON(http.StatusAccepted, nextResponse{Status: "sent"})
}

// ResetPassword sets a new password from a reset link. The token comes from
// the body or, failing that, the "token" query parameter of the link. A
// request without a token is answered as an invalid link and never reaches
// the session store.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Token and new password"
// @Success      200   {object}  nextResponse
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	store, sid, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	if req.Token == "" {
		req.Token = c.QueryParam("token")
	}

	if strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": "This password reset link is invalid or has expired.",
		})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := store.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		h.fail(sid, "Password reset failed", "We couldn't reset your password. Please try again or request a new reset link.")
		return err
	}

	h.succeed(sid, "Password reset successful", "Your password has been changed. You can now sign in with your new password.")
	return c.JSON(http.StatusOK, nextResponse{Status: "reset", Next: "/sign-in"})
}

func (h *AuthHandler) succeed(sid, title, description string) {
	h.publish(sid, domain.VariantSuccess, title, description)
}

func (h *AuthHandler) fail(sid, title, description string) {
	h.publish(sid, domain.VariantDestructive, title, description)
}

func (h *AuthHandler) publish(sid string, variant domain.NotificationVariant, title, description string) {
	h.notifier.Notify(domain.Notification{
		SessionID:   sid,
		Variant:     variant,
		Title:       title,
		Description: description,
		CreatedAt:   h.now().UTC(),
	})
}

func countdown(left time.Duration) countdownResponse {
	secs := int((left + time.Second - 1) / time.Second)
	return countdownResponse{SecondsLeft: secs, CanResend: secs == 0}
}
