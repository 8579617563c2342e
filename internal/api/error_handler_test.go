package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/farmfresh/connect/internal/core/domain"
)

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", domain.NewValidationError("email", "Please enter a valid email address"), http.StatusBadRequest},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"email registered", domain.ErrEmailAlreadyRegistered, http.StatusConflict},
		{"bad code", domain.ErrInvalidOrExpiredCode, http.StatusUnprocessableEntity},
		{"bad token", domain.ErrInvalidOrExpiredToken, http.StatusUnprocessableEntity},
		{"remote", fmt.Errorf("%w: dial tcp", domain.ErrRemoteUnavailable), http.StatusServiceUnavailable},
		{"echo", echo.NewHTTPError(http.StatusNotFound, "not found"), http.StatusNotFound},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	handler := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/login", nil), rec)

			handler(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}
}

func TestHTTPErrorHandler_ValidationFields(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/signup/customer", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.NewValidationError("name", "Name must be at least 2 characters"), c)

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Fields) != 1 || resp.Fields[0].Field != "name" {
		t.Fatalf("unexpected fields: %+v", resp.Fields)
	}
}

func TestHTTPErrorHandler_Cooldown(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/resend-otp", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(&domain.CooldownError{Remaining: 12500 * time.Millisecond}, c)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "13" {
		t.Fatalf("expected Retry-After 13, got %q", got)
	}
}
