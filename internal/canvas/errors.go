package canvas

import (
	"errors"
	"fmt"
)

var (
	// ErrBoundsUnknown is returned by geometry-dependent operations before the
	// floor image size is known.  Clamping against an unknown canvas is
	// deferred, never guessed.
	ErrBoundsUnknown = errors.New("floor image bounds not loaded")
	// ErrDeskNotFound is returned when an operation targets a desk id that is
	// not in the current list.
	ErrDeskNotFound = errors.New("desk not found")
	// ErrNotResizable is returned when a resize starts on furniture without a
	// resize handle.
	ErrNotResizable = errors.New("desk is not resizable")
	// ErrNoActiveResize is returned by resize updates without a started gesture.
	ErrNoActiveResize = errors.New("no resize in progress")
	// ErrImageTooSmall is returned by AddDesk when the image cannot hold a
	// desk of the minimum size.
	ErrImageTooSmall = errors.New("floor image smaller than the minimum desk size")
	// ErrSaveInProgress rejects a second save while one is running.
	ErrSaveInProgress = errors.New("save already in progress")
)

// ValidationError reports user input that cannot be committed.  The store is
// left unchanged and any open dialog stays open.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
