package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/farmfresh/connect/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error      string              `json:"error"`
	Fields     []domain.FieldError `json:"fields,omitempty"`
	RetryAfter int                 `json:"retry_after,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if resp.RetryAfter > 0 {
			c.Response().Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: ve.Fields}
	}

	var ce *domain.CooldownError
	if errors.As(err, &ce) {
		secs := int((ce.Remaining + time.Second - 1) / time.Second)
		return http.StatusTooManyRequests, errorResponse{Error: "please wait before requesting another code", RetryAfter: secs}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrEmailAlreadyRegistered):
		return http.StatusConflict, errorResponse{Error: "email already registered"}
	case errors.Is(err, domain.ErrInvalidOrExpiredCode):
		return http.StatusUnprocessableEntity, errorResponse{Error: "invalid or expired verification code"}
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return http.StatusUnprocessableEntity, errorResponse{Error: "invalid or expired reset token"}
	case errors.Is(err, domain.ErrRemoteUnavailable):
		log.Warn().Err(err).Str("path", c.Path()).Msg("authentication backend unavailable")
		return http.StatusServiceUnavailable, errorResponse{Error: "authentication service unavailable"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
