package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

// FloorRepo stores floors in the MySQL floors table.  The desk list lives in
// the furniture JSON column so a save is a single UPDATE and therefore
// atomic per floor.  The DSN must enable clientFoundRows (see
// database.Open) so that saving an unchanged list still reports a match.
type FloorRepo struct {
	db *sql.DB
}

// NewFloorRepo constructs a FloorRepo with the given DB handle.
func NewFloorRepo(db *sql.DB) *FloorRepo {
	return &FloorRepo{db: db}
}

// ListFloors returns all floors ordered by id, without desks.
func (r *FloorRepo) ListFloors(ctx context.Context) ([]model.FloorSummary, error) {
	const q = `SELECT id, name, image_url FROM floors ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.FloorSummary{}
	for rows.Next() {
		var f model.FloorSummary
		if err := rows.Scan(&f.ID, &f.Name, &f.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetFloor loads one floor with its desks.  A NULL or empty furniture column
// decodes to an empty list.
func (r *FloorRepo) GetFloor(ctx context.Context, id int64) (model.Floor, error) {
	const q = `SELECT id, name, image_url, furniture FROM floors WHERE id = ?`
	var (
		f   model.Floor
		raw []byte
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&f.ID, &f.Name, &f.ImageURL, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Floor{}, ErrFloorNotFound
		}
		return model.Floor{}, err
	}
	desks, err := decodeDesks(raw)
	if err != nil {
		return model.Floor{}, fmt.Errorf("floor %d: %w", id, err)
	}
	f.Desks = desks
	return f, nil
}

// SaveFloorDesks replaces the furniture column of a floor.
func (r *FloorRepo) SaveFloorDesks(ctx context.Context, id int64, desks []model.Desk) error {
	raw, err := json.Marshal(model.CloneDesks(desks))
	if err != nil {
		return err
	}
	const q = `UPDATE floors SET furniture = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, raw, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFloorNotFound
	}
	return nil
}

func decodeDesks(raw []byte) ([]model.Desk, error) {
	if len(raw) == 0 {
		return []model.Desk{}, nil
	}
	var desks []model.Desk
	if err := json.Unmarshal(raw, &desks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFloor, err)
	}
	if desks == nil {
		desks = []model.Desk{}
	}
	return desks, nil
}
