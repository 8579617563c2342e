package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmfresh/connect/internal/core/domain"
)

// PageHandler serves the guarded marketplace pages. Each page answers with
// the identity it was rendered for; the markup itself lives in the frontend.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

type pageResponse struct {
	Page string           `json:"page"`
	User *domain.Identity `json:"user"`
}

// Page returns a handler rendering the named page for the current identity.
func (h *PageHandler) Page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		store, _, err := ctxSession(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, pageResponse{Page: name, User: store.Current()})
	}
}

// Unauthorized is where the guard sends identities of the wrong role.
func (h *PageHandler) Unauthorized(c echo.Context) error {
	return c.JSON(http.StatusForbidden, map[string]string{
		"page":  "unauthorized",
		"error": "You don't have permission to access this page.",
	})
}

// SignIn is where the guard sends anonymous sessions; "from" is echoed back
// so the client can return there after signing in.
func (h *PageHandler) SignIn(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"page": "sign-in",
		"from": c.QueryParam("from"),
	})
}
