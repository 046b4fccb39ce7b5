// Package repository holds the persistence gateways of the planner: the
// floor store that owns desk lists and the history log that archives expired
// reservations.  Sentinel errors defined here let handlers and the sweeper
// tell a missing floor apart from a transient storage failure.
package repository

import "errors"

// ErrFloorNotFound is returned when a floor id has no stored record.
// Handlers should translate this into an HTTP 404 response.
var ErrFloorNotFound = errors.New("floor not found")

// ErrCorruptFloor is returned when a stored desk list cannot be decoded.
// The sweeper treats it like any other per-floor failure and moves on.
var ErrCorruptFloor = errors.New("stored furniture is not valid JSON")
