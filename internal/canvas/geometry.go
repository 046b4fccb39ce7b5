// Package canvas implements the desk canvas interaction engine: bounding
// desks to the floor image, tracking resize gestures and the state machine
// behind edit and reservation modes.
package canvas

import (
	"math"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

// ClampPosition bounds a proposed top-left corner so that the desk stays
// inside the image.  NaN inputs propagate as NaN; callers must reject them
// before committing.
func ClampPosition(d model.Desk, x, y float64, b model.Bounds) (float64, float64) {
	cx := math.Max(0, math.Min(x, b.Width-d.Width))
	cy := math.Max(0, math.Min(y, b.Height-d.Height))
	return cx, cy
}

// ClampSize bounds a proposed size between the minimum desk size and the
// space left between the desk's position and the image edge.
func ClampSize(d model.Desk, w, h float64, b model.Bounds) (float64, float64) {
	cw := math.Max(model.MinDeskWidth, math.Min(w, b.Width-d.X))
	ch := math.Max(model.MinDeskHeight, math.Min(h, b.Height-d.Y))
	return cw, ch
}
