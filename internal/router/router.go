package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/desk-reservation-planner/internal/handler"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Ready   *handler.ReadyHandler
	Floors  *handler.FloorHandler
	Canvas  *handler.CanvasHandler
	Guests  *handler.GuestHandler
	History *handler.HistoryHandler
	Sweeps  *handler.SweepHandler
}

// RegisterRoutes mounts the health checks at the root and the API under
// /v1.  cache wraps the read-only floor routes; limit guards every /v1
// route.  Either may be nil.
func RegisterRoutes(e *echo.Echo, h Handlers, cache, limit echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	if h.Ready != nil {
		e.GET("/readyz", h.Ready.Ready)
	}

	v1 := e.Group("/v1")
	if limit != nil {
		v1.Use(limit)
	}

	var cached []echo.MiddlewareFunc
	if cache != nil {
		cached = append(cached, cache)
	}
	v1.GET("/floors", h.Floors.List, cached...)
	v1.GET("/floors/:id", h.Floors.Get, cached...)
	v1.PUT("/floors/:id/furniture", h.Floors.PutFurniture)

	s := v1.Group("/canvas/sessions")
	s.POST("", h.Canvas.Create)
	s.GET("/:sid", h.Canvas.Get)
	s.DELETE("/:sid", h.Canvas.Delete)
	s.PUT("/:sid/bounds", h.Canvas.SetBounds)
	s.PUT("/:sid/floor", h.Canvas.SwitchFloor)
	s.POST("/:sid/actions", h.Canvas.Action)
	s.POST("/:sid/save", h.Canvas.Save)

	v1.GET("/guests", h.Guests.List)
	v1.POST("/guests/notify", h.Guests.Notify)

	v1.GET("/history", h.History.List)
	v1.DELETE("/history", h.History.Clear)

	v1.POST("/sweeps", h.Sweeps.Run)
}
