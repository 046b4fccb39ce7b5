package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation-planner/internal/repository"
)

// HistoryHandler exposes the archive of expired reservations.
type HistoryHandler struct {
	History repository.HistoryLog
}

func (h *HistoryHandler) List(c echo.Context) error {
	entries, err := h.History.Read(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}

// Clear empties the history.
func (h *HistoryHandler) Clear(c echo.Context) error {
	if err := h.History.Clear(c.Request().Context()); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
