package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/desk-reservation-planner/internal/repository"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the process is up.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ReadyHandler reports whether the storage backends answer.
type ReadyHandler struct {
	Floors repository.FloorGateway
	Redis  *redis.Client // optional
}

// Ready lists the floors and pings Redis with a short timeout.  Any failure
// yields 503 with the name of the failing dependency.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := echo.Map{"floors": "ok"}
	status := http.StatusOK
	if _, err := h.Floors.ListFloors(ctx); err != nil {
		checks["floors"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	} else {
		checks["redis"] = "disabled"
	}
	return c.JSON(status, checks)
}
