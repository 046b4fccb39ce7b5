package canvas

import "github.com/iliyamo/desk-reservation-planner/internal/model"

// Point is a pointer position in floor image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LiveSize is the uncommitted size of the desk being resized.
type LiveSize struct {
	ID     int64   `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ResizeController tracks one in-flight resize gesture.  Its feedback lives
// outside the committed desk list; the list only changes when the caller
// commits the value returned by End.  The zero value is ready to use.
type ResizeController struct {
	offset Point
	live   *LiveSize
}

// Start records where on the resize handle the pointer grabbed the desk and
// seeds the live size with the desk's current size.  It does nothing and
// returns false while the image bounds are unknown.  Starting a new gesture
// replaces any previous one.
func (r *ResizeController) Start(d model.Desk, p Point, b model.Bounds) bool {
	if !b.Known() {
		return false
	}
	r.offset = Point{
		X: p.X - (d.X + d.Width),
		Y: p.Y - (d.Y + d.Height),
	}
	r.live = &LiveSize{ID: d.ID, Width: d.Width, Height: d.Height}
	return true
}

// Update recomputes the live size from the pointer position.  Updates for a
// desk other than the active one are ignored.
func (r *ResizeController) Update(d model.Desk, p Point, b model.Bounds) bool {
	if r.live == nil || r.live.ID != d.ID || !b.Known() {
		return false
	}
	w := p.X - d.X - r.offset.X
	h := p.Y - d.Y - r.offset.Y
	w, h = ClampSize(d, w, h, b)
	r.live = &LiveSize{ID: d.ID, Width: w, Height: h}
	return true
}

// End returns the pending size and clears the gesture.  The caller must check
// that the desk still exists before committing it.
func (r *ResizeController) End() (LiveSize, bool) {
	if r.live == nil {
		return LiveSize{}, false
	}
	size := *r.live
	r.live = nil
	r.offset = Point{}
	return size, true
}

// Discard drops the gesture without returning it.
func (r *ResizeController) Discard() {
	r.live = nil
	r.offset = Point{}
}

// Active returns the id of the desk being resized.
func (r *ResizeController) Active() (int64, bool) {
	if r.live == nil {
		return 0, false
	}
	return r.live.ID, true
}

// Live returns a copy of the current live size.
func (r *ResizeController) Live() (LiveSize, bool) {
	if r.live == nil {
		return LiveSize{}, false
	}
	return *r.live, true
}
