package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidOrExpiredCode   = errors.New("invalid or expired verification code")
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired reset token")
	ErrRemoteUnavailable      = errors.New("authentication service unavailable")
	ErrResendCooldown         = errors.New("verification code was sent recently")
	ErrAccountNotFound        = errors.New("account not found")
)

// FieldError attributes a validation failure to one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for malformed input before any backend call.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CooldownError carries how long until a verification code may be resent.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: retry in %ds", ErrResendCooldown, int(e.Remaining.Round(time.Second)/time.Second))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrResendCooldown
}
