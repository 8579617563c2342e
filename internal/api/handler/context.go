package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmfresh/connect/internal/api/middleware"
	"github.com/farmfresh/connect/internal/core/ports"
)

// ctxSession extracts the session store and browser session id injected by
// the Session middleware and fails fast when the middleware did not run.
func ctxSession(c echo.Context) (ports.SessionStore, string, error) {
	store := middleware.StoreFrom(c)
	sid := middleware.SessionIDFrom(c)
	if store == nil || sid == "" {
		return nil, "", echo.NewHTTPError(http.StatusInternalServerError, "missing session")
	}
	return store, sid, nil
}
