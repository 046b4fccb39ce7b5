package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation-planner/internal/canvas"
	"github.com/iliyamo/desk-reservation-planner/internal/model"
	"github.com/iliyamo/desk-reservation-planner/internal/repository"
)

// FloorHandler serves the floor catalogue and bulk furniture replacement.
type FloorHandler struct {
	Floors   repository.FloorGateway
	Location *time.Location // zone of reservation timestamps without offset
}

// NewFloorHandler panics if floors is nil.  A nil loc means time.Local.
func NewFloorHandler(floors repository.FloorGateway, loc *time.Location) *FloorHandler {
	if floors == nil {
		panic("nil gateway passed to NewFloorHandler")
	}
	if loc == nil {
		loc = time.Local
	}
	return &FloorHandler{Floors: floors, Location: loc}
}

// List returns {"items": [FloorSummary]}.
func (h *FloorHandler) List(c echo.Context) error {
	floors, err := h.Floors.ListFloors(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": floors})
}

// Get returns one floor with its furniture.
func (h *FloorHandler) Get(c echo.Context) error {
	id, ok := floorIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	floor, err := h.Floors.GetFloor(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, floor)
}

type putFurnitureRequest struct {
	Furniture []model.Desk `json:"furniture"`
}

// PutFurniture replaces a floor's desk list with the request body
// {"furniture": [...]}.
func (h *FloorHandler) PutFurniture(c echo.Context) error {
	id, ok := floorIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req putFurnitureRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := canvas.ValidateLayout(req.Furniture, h.Location); err != nil {
		return respondError(c, err)
	}
	if err := h.Floors.SaveFloorDesks(c.Request().Context(), id, req.Furniture); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
