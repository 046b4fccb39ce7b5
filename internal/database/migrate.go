package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

const createFloors = `CREATE TABLE IF NOT EXISTS floors (
	id         BIGINT UNSIGNED NOT NULL PRIMARY KEY,
	name       VARCHAR(120)    NOT NULL,
	image_url  VARCHAR(255)    NOT NULL,
	furniture  JSON            NULL,
	created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const seedFloor = `INSERT IGNORE INTO floors (id, name, image_url, furniture) VALUES (?, ?, ?, ?)`

// Migrate creates the floors table when missing and inserts the seed floors
// that do not exist yet.  Existing rows are never overwritten.
func Migrate(ctx context.Context, db *sql.DB, seed []model.Floor) error {
	if _, err := db.ExecContext(ctx, createFloors); err != nil {
		return fmt.Errorf("create floors: %w", err)
	}
	for _, f := range seed {
		if _, err := db.ExecContext(ctx, seedFloor, f.ID, f.Name, f.ImageURL, "[]"); err != nil {
			return fmt.Errorf("seed floor %d: %w", f.ID, err)
		}
	}
	return nil
}
