package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/farmfresh/connect/internal/core/ports"
)

const (
	// SessionCookie carries the browser session id.
	SessionCookie = "ff_session"

	ContextSessionID = "session_id"
	ContextStore     = "session_store"
)

// StoreResolver hands out the session store bound to a browser session.
type StoreResolver interface {
	Get(ctx context.Context, sessionID string) ports.SessionStore
}

// SessionOptions controls the session cookie.
type SessionOptions struct {
	Secure bool
	MaxAge time.Duration
}

// Session resolves the browser session from its cookie, issuing a new id when
// the cookie is missing or malformed, and injects the session store into the
// echo context.
func Session(resolver StoreResolver, opts SessionOptions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				if _, perr := uuid.Parse(cookie.Value); perr == nil {
					sid = cookie.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(opts.MaxAge / time.Second),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(ContextSessionID, sid)
			c.Set(ContextStore, resolver.Get(c.Request().Context(), sid))
			return next(c)
		}
	}
}

// StoreFrom returns the session store injected by Session, or nil.
func StoreFrom(c echo.Context) ports.SessionStore {
	store, _ := c.Get(ContextStore).(ports.SessionStore)
	return store
}

// SessionIDFrom returns the browser session id injected by Session.
func SessionIDFrom(c echo.Context) string {
	sid, _ := c.Get(ContextSessionID).(string)
	return sid
}
