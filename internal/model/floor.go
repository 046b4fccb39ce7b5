package model

// Floor is a named collection of desks anchored to a background image.  The
// order of Desks is the display (z) order and is insertion-order stable.
//
// The JSON shape keeps the "furniture" key used by the floor plan client.
type Floor struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Desks    []Desk `json:"furniture"`
}

// Summary strips the desk list from the floor.
func (f Floor) Summary() FloorSummary {
	return FloorSummary{ID: f.ID, Name: f.Name, ImageURL: f.ImageURL}
}

// FloorSummary is the lightweight view returned when listing floors.
type FloorSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// Bounds is the pixel size of a floor image.  It is only known once the
// image has finished loading on the client.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Known reports whether the bounds describe a real image.
func (b Bounds) Known() bool {
	return b.Width > 0 && b.Height > 0 && Finite(b.Width, b.Height)
}
