package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmfresh/connect/internal/core/domain"
	"github.com/farmfresh/connect/internal/core/ports"
)

type NotificationHandler struct {
	inbox ports.NotificationInbox
}

func NewNotificationHandler(inbox ports.NotificationInbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

type notificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// Drain returns and clears this browser session's pending notifications.
//
// @Summary      Pending notifications
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  notificationsResponse
// @Router       /notifications [get]
func (h *NotificationHandler) Drain(c echo.Context) error {
	_, sid, err := ctxSession(c)
	if err != nil {
		return err
	}
	items, err := h.inbox.Drain(c.Request().Context(), sid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notificationsResponse{Notifications: items})
}
