package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
	"github.com/iliyamo/desk-reservation-planner/internal/service"
)

// CanvasHandler drives server-side canvas sessions.
type CanvasHandler struct {
	Sessions *service.CanvasSessions
}

func NewCanvasHandler(sessions *service.CanvasSessions) *CanvasHandler {
	if sessions == nil {
		panic("nil sessions passed to NewCanvasHandler")
	}
	return &CanvasHandler{Sessions: sessions}
}

type createSessionRequest struct {
	FloorID     int64    `json:"floor_id"`
	ImageWidth  *float64 `json:"image_width"`
	ImageHeight *float64 `json:"image_height"`
}

// Create opens a floor: POST /v1/canvas/sessions.
func (h *CanvasHandler) Create(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.FloorID <= 0 {
		return badRequest(c, "floor_id is required")
	}
	var bounds *model.Bounds
	if req.ImageWidth != nil || req.ImageHeight != nil {
		if req.ImageWidth == nil || req.ImageHeight == nil {
			return badRequest(c, "image_width and image_height go together")
		}
		bounds = &model.Bounds{Width: *req.ImageWidth, Height: *req.ImageHeight}
	}
	view, err := h.Sessions.Create(c.Request().Context(), req.FloorID, bounds)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// Get returns the session view.
func (h *CanvasHandler) Get(c echo.Context) error {
	view, err := h.Sessions.Get(c.Param("sid"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Delete closes the session.
func (h *CanvasHandler) Delete(c echo.Context) error {
	if err := h.Sessions.Delete(c.Param("sid")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetBounds records the loaded image size: body {"width", "height"}.
func (h *CanvasHandler) SetBounds(c echo.Context) error {
	var b model.Bounds
	if err := c.Bind(&b); err != nil {
		return badRequest(c, "invalid body")
	}
	view, err := h.Sessions.SetBounds(c.Param("sid"), b)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

type switchFloorRequest struct {
	FloorID int64 `json:"floor_id"`
}

// SwitchFloor loads another floor into the session.
func (h *CanvasHandler) SwitchFloor(c echo.Context) error {
	var req switchFloorRequest
	if err := c.Bind(&req); err != nil || req.FloorID <= 0 {
		return badRequest(c, "floor_id is required")
	}
	view, err := h.Sessions.SwitchFloor(c.Request().Context(), c.Param("sid"), req.FloorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Action applies one interaction: body is a service.Action.
func (h *CanvasHandler) Action(c echo.Context) error {
	var a service.Action
	if err := c.Bind(&a); err != nil {
		return badRequest(c, "invalid body")
	}
	res, err := h.Sessions.Apply(c.Param("sid"), a)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type saveRequest struct {
	ExitEdit bool `json:"exit_edit"`
}

// Save persists the session's desks.  On a gateway failure the session
// keeps its edits and isSaving is reset, so the client may retry.
func (h *CanvasHandler) Save(c echo.Context) error {
	var req saveRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "invalid body")
		}
	}
	view, err := h.Sessions.Save(c.Request().Context(), c.Param("sid"), req.ExitEdit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
