// Package handler exposes the HTTP handlers of the planner API.  Handlers
// translate JSON requests into calls on the canvas sessions, the floor
// gateway, the guest directory, the history log and the sweeper, and map
// their errors onto status codes in one place (respondError).
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation-planner/internal/canvas"
	"github.com/iliyamo/desk-reservation-planner/internal/repository"
	"github.com/iliyamo/desk-reservation-planner/internal/service"
)

// respondError writes the JSON error response for err.
func respondError(c echo.Context, err error) error {
	var ve *canvas.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, repository.ErrFloorNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "floor not found"})
	case errors.Is(err, canvas.ErrDeskNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "desk not found"})
	case errors.Is(err, service.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	case errors.Is(err, canvas.ErrBoundsUnknown),
		errors.Is(err, canvas.ErrSaveInProgress),
		errors.Is(err, canvas.ErrNoActiveResize),
		errors.Is(err, canvas.ErrNotResizable),
		errors.Is(err, canvas.ErrImageTooSmall):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "storage timeout"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "storage error"})
	}
}

// floorIDParam parses a positive floor id from the named path parameter.
func floorIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
