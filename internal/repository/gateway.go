package repository

import (
	"context"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

// FloorGateway is the persistence contract for floors.  Desk lists are
// replaced wholesale; there is no partial update.
type FloorGateway interface {
	// ListFloors returns every floor without its desks, ordered by id.
	ListFloors(ctx context.Context) ([]model.FloorSummary, error)
	// GetFloor returns a floor with its full desk list or ErrFloorNotFound.
	GetFloor(ctx context.Context, id int64) (model.Floor, error)
	// SaveFloorDesks replaces the desk list of a floor atomically.
	SaveFloorDesks(ctx context.Context, id int64, desks []model.Desk) error
}

// HistoryLog archives expired reservations.
type HistoryLog interface {
	// Read returns all entries in the order they were appended.
	Read(ctx context.Context) ([]model.HistoryEntry, error)
	// Append stores the entries whose key is not already present and
	// returns how many were added.
	Append(ctx context.Context, entries []model.HistoryEntry) (int, error)
	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// SaveHook runs after a floor's desks were saved successfully.
type SaveHook func(ctx context.Context, floorID int64)

type hookedGateway struct {
	FloorGateway
	hooks []SaveHook
}

// WithSaveHook wraps a gateway so that every successful SaveFloorDesks call
// triggers the given hooks in order.  Failed saves do not run them.
func WithSaveHook(g FloorGateway, hooks ...SaveHook) FloorGateway {
	if len(hooks) == 0 {
		return g
	}
	return &hookedGateway{FloorGateway: g, hooks: hooks}
}

func (h *hookedGateway) SaveFloorDesks(ctx context.Context, id int64, desks []model.Desk) error {
	if err := h.FloorGateway.SaveFloorDesks(ctx, id, desks); err != nil {
		return err
	}
	for _, hook := range h.hooks {
		hook(ctx, id)
	}
	return nil
}
