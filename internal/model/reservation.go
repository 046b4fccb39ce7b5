package model

import (
	"errors"
	"strings"
	"time"
)

// Reservation is a named, timed booking attached to a desk.  Timestamps are
// kept as the ISO-8601 strings the client submitted (for example
// "2024-07-01T18:00") so that history entries reproduce exactly what was
// booked.
//
// Fields:
//
//	Name          – guest name.
//	Phone         – contact phone.
//	Persons       – party size, at least 1.
//	ReservedAt    – start of the booking.
//	ReservedUntil – end of the booking; the sweeper expires the booking after it.
type Reservation struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Persons       int    `json:"persons"`
	ReservedAt    string `json:"reservedAt,omitempty"`
	ReservedUntil string `json:"reservedUntil,omitempty"`
}

// ErrInvalidTimestamp is returned by ParseTimestamp for unrecognised input.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// timestampLayouts lists the accepted ISO-8601 shapes, most specific first.
// Layouts without an offset are interpreted in the caller's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a reservation timestamp.  A nil location means
// time.Local, matching how a browser interprets "2024-07-01T18:00".
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}
