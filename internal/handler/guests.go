package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation-planner/internal/service"
)

// GuestHandler lists every current reservation and messages the guests.
type GuestHandler struct {
	Guests *service.GuestService
}

func (h *GuestHandler) List(c echo.Context) error {
	guests, err := h.Guests.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": guests})
}

type notifyRequest struct {
	Message string `json:"message"`
}

// Notify queues one message per guest and returns {"sent": n}.
func (h *GuestHandler) Notify(c echo.Context) error {
	var req notifyRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid body")
		}
	}
	sent, err := h.Guests.NotifyAll(c.Request().Context(), req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"sent": sent})
}
