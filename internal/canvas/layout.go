package canvas

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

// ValidateLayout checks a desk list that bypasses the store, such as a bulk
// import.  Without the image size only bounds-free rules apply: unique ids,
// non-empty labels, finite non-negative positions and minimum sizes.
// Attached reservations must pass ValidateReservation; timestamps without an
// offset are read in loc.
func ValidateLayout(desks []model.Desk, loc *time.Location) error {
	seen := make(map[int64]struct{}, len(desks))
	for i, d := range desks {
		field := fmt.Sprintf("furniture[%d]", i)
		if _, dup := seen[d.ID]; dup {
			return invalid(field+".id", fmt.Sprintf("duplicate id %d", d.ID))
		}
		seen[d.ID] = struct{}{}
		if strings.TrimSpace(d.Label) == "" {
			return invalid(field+".label", "must not be empty")
		}
		if !model.Finite(d.X, d.Y, d.Width, d.Height) {
			return invalid(field, "geometry must be finite numbers")
		}
		if d.X < 0 || d.Y < 0 {
			return invalid(field, "position must not be negative")
		}
		if d.Width < model.MinDeskWidth || d.Height < model.MinDeskHeight {
			return invalid(field, fmt.Sprintf("size must be at least %gx%g", model.MinDeskWidth, model.MinDeskHeight))
		}
		if d.Reservation != nil {
			if _, err := ValidateReservation(*d.Reservation, loc); err != nil {
				var ve *ValidationError
				if errors.As(err, &ve) {
					return invalid(field+".reservation."+ve.Field, ve.Reason)
				}
				return err
			}
		}
	}
	return nil
}
