package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation-planner/internal/sweeper"
)

// SweepHandler triggers an expiry sweep on demand.
type SweepHandler struct {
	Sweeper *sweeper.Sweeper
}

// Run performs one sweep and returns its report.
func (h *SweepHandler) Run(c echo.Context) error {
	rep, err := h.Sweeper.Sweep(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
