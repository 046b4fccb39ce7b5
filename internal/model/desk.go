package model

import (
	"math"
	"strings"
)

// Desk dimensions below these values are unusable on the floor plan and are
// never committed.
const (
	MinDeskWidth  = 30.0
	MinDeskHeight = 20.0
)

// DeskTypeDesk is the only furniture type that exposes a resize handle.
const DeskTypeDesk = "desk"

// Desk is a placeable rectangle on a floor image.  Coordinates are in floor
// image pixel space with the origin at the top-left corner.
//
// Fields:
//
//	ID          – unique identity, immutable after creation.
//	Label       – display name, non-empty when committed.
//	X, Y        – top-left position.
//	Width       – at least MinDeskWidth.
//	Height      – at least MinDeskHeight.
//	Type        – furniture discriminator ("desk").
//	Reservation – present iff the desk is currently booked.
type Desk struct {
	ID          int64        `json:"id"`
	Label       string       `json:"label"`
	X           float64      `json:"x"`
	Y           float64      `json:"y"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Type        string       `json:"type"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

// Resizable reports whether the desk exposes a resize affordance.
func (d Desk) Resizable() bool { return strings.EqualFold(d.Type, DeskTypeDesk) }

// Reserved reports whether the desk currently carries a booking.
func (d Desk) Reserved() bool { return d.Reservation != nil }

// Clone returns a deep copy of the desk; the reservation pointer is never
// shared between copies.
func (d Desk) Clone() Desk {
	if d.Reservation != nil {
		r := *d.Reservation
		d.Reservation = &r
	}
	return d
}

// CloneDesks deep-copies a desk list.  A nil input yields an empty, non-nil
// slice so that JSON encodes it as [].
func CloneDesks(in []Desk) []Desk {
	out := make([]Desk, 0, len(in))
	for _, d := range in {
		out = append(out, d.Clone())
	}
	return out
}

// Finite reports whether every numeric value is a real number.
func Finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
