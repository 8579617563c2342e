package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/farmfresh/connect/internal/core/domain"
)

var (
	upperRe = regexp.MustCompile(`[A-Z]`)
	lowerRe = regexp.MustCompile(`[a-z]`)
	digitRe = regexp.MustCompile(`[0-9]`)
	phoneRe = regexp.MustCompile(`^\+?[0-9 ()\-]{7,20}$`)
)

const minPasswordLen = 8

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type emailInput struct {
	Email string `validate:"required,email"`
}

type otpInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,len=6,numeric"`
}

type resetInput struct {
	Password string `validate:"required,strongpassword"`
}

// newValidator returns a validator with the marketplace's custom tags registered.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return len(passwordProblems(fl.Field().String())) == 0
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return phoneRe.MatchString(s) && len(digitRe.FindAllString(s, -1)) >= 7
	})
	return v
}

// passwordProblems lists every strength rule the password breaks.
func passwordProblems(pw string) []string {
	var out []string
	if len(pw) < minPasswordLen {
		out = append(out, "Password must be at least 8 characters")
	}
	if !upperRe.MatchString(pw) {
		out = append(out, "Password must contain at least one uppercase letter")
	}
	if !lowerRe.MatchString(pw) {
		out = append(out, "Password must contain at least one lowercase letter")
	}
	if !digitRe.MatchString(pw) {
		out = append(out, "Password must contain at least one number")
	}
	return out
}

// Validator runs the pre-flight checks the session store applies before any
// backend call.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: newValidator()}
}

func (val *Validator) Login(email, password string) error {
	return val.check(loginInput{Email: email, Password: password})
}

func (val *Validator) Email(email string) error {
	return val.check(emailInput{Email: email})
}

func (val *Validator) OTP(email, code string) error {
	return val.check(otpInput{Email: email, Code: code})
}

func (val *Validator) NewPassword(password string) error {
	return val.check(resetInput{Password: password})
}

// Signup validates either signup variant against its own schema.
func (val *Validator) Signup(req domain.SignupRequest) error {
	r, ok := domain.UnwrapSignup(req)
	if !ok {
		return domain.NewValidationError("role", "Please select a role")
	}
	return val.check(r)
}

func (val *Validator) check(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &domain.ValidationError{}
	for _, fe := range ve {
		out.Fields = append(out.Fields, fieldErrors(fe)...)
	}
	return out
}

// fieldErrors converts a single validator.FieldError into user-facing messages.
func fieldErrors(fe validator.FieldError) []domain.FieldError {
	field := strings.ToLower(fe.Field())
	if field == "displayname" {
		field = "name"
	}
	one := func(msg string) []domain.FieldError {
		return []domain.FieldError{{Field: field, Message: msg}}
	}

	switch fe.Tag() {
	case "required":
		return one(field + " is required")
	case "email":
		return one("Please enter a valid email address")
	case "strongpassword":
		problems := passwordProblems(fmt.Sprint(fe.Value()))
		out := make([]domain.FieldError, 0, len(problems))
		for _, p := range problems {
			out = append(out, domain.FieldError{Field: field, Message: p})
		}
		return out
	case "phone":
		return one("Please enter a valid phone number")
	case "len", "numeric":
		return one("Please enter a valid 6-digit code")
	case "min":
		if field == "name" {
			return one("Name must be at least 2 characters")
		}
		return one(fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
	default:
		return one(fmt.Sprintf("%s failed validation (%s)", field, fe.Tag()))
	}
}
