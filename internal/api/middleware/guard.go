package middleware

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/farmfresh/connect/internal/core/domain"
)

const (
	SignInPath       = "/sign-in"
	UnauthorizedPath = "/unauthorized"
)

// Outcome is what a guarded route does for the current session.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeRender
	OutcomeRedirectSignIn
	OutcomeRedirectUnauthorized
)

// Decision is the route guard's verdict. Redirect is set for redirect outcomes.
type Decision struct {
	Outcome  Outcome
	Redirect string
}

// Decide chooses between rendering, waiting and redirecting. While loading it
// neither renders nor redirects. An empty requiredRole admits any signed-in
// identity. The sign-in redirect carries location as "from" so the user
// returns there after signing in.
func Decide(identity *domain.Identity, loading bool, requiredRole domain.Role, location string) Decision {
	if loading {
		return Decision{Outcome: OutcomePending}
	}
	if identity == nil {
		q := url.Values{}
		if location != "" {
			q.Set("from", location)
		}
		target := SignInPath
		if len(q) > 0 {
			target += "?" + q.Encode()
		}
		return Decision{Outcome: OutcomeRedirectSignIn, Redirect: target}
	}
	if requiredRole != "" && identity.Role != requiredRole {
		return Decision{Outcome: OutcomeRedirectUnauthorized, Redirect: UnauthorizedPath}
	}
	return Decision{Outcome: OutcomeRender}
}

// Guard protects a route with Decide. It must run after Session.
func Guard(requiredRole domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store := StoreFrom(c)
			if store == nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session middleware not installed")
			}

			d := Decide(store.Current(), store.Loading(), requiredRole, c.Request().URL.RequestURI())
			switch d.Outcome {
			case OutcomeRender:
				return next(c)
			case OutcomePending:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
			default:
				return c.Redirect(http.StatusFound, d.Redirect)
			}
		}
	}
}
