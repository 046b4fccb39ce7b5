package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *FloorRepo) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewFloorRepo(db)
}

func TestFloorRepo_ListFloors(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "image_url"}).
		AddRow(1, "Main Floor", "/floor-1.png").
		AddRow(2, "Second Floor", "/floor-2.png")
	mock.ExpectQuery(`SELECT id, name, image_url FROM floors ORDER BY id`).WillReturnRows(rows)

	floors, err := repo.ListFloors(context.Background())
	require.NoError(t, err)
	require.Len(t, floors, 2)
	assert.Equal(t, "Main Floor", floors[0].Name)
	assert.Equal(t, "/floor-2.png", floors[1].ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFloorRepo_GetFloor(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	furniture := `[{"id":7,"label":"Desk 1","x":50,"y":50,"width":60,"height":40,"type":"desk",
		"reservation":{"name":"Ana","phone":"1","persons":2,"reservedAt":"2024-07-01T10:00","reservedUntil":"2024-07-01T18:00"}}]`
	rows := sqlmock.NewRows([]string{"id", "name", "image_url", "furniture"}).
		AddRow(1, "Main Floor", "/floor-1.png", []byte(furniture))
	mock.ExpectQuery(`SELECT id, name, image_url, furniture FROM floors WHERE id = \?`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	f, err := repo.GetFloor(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, f.Desks, 1)
	assert.Equal(t, int64(7), f.Desks[0].ID)
	require.NotNil(t, f.Desks[0].Reservation)
	assert.Equal(t, "2024-07-01T18:00", f.Desks[0].Reservation.ReservedUntil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFloorRepo_GetFloorNullFurniture(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "image_url", "furniture"}).
		AddRow(2, "Second Floor", "/floor-2.png", nil)
	mock.ExpectQuery(`SELECT id, name, image_url, furniture FROM floors`).WithArgs(int64(2)).WillReturnRows(rows)

	f, err := repo.GetFloor(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, f.Desks)
	assert.Empty(t, f.Desks)
}

func TestFloorRepo_GetFloorNotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, image_url, furniture FROM floors`).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetFloor(context.Background(), 9)
	assert.ErrorIs(t, err, ErrFloorNotFound)
}

func TestFloorRepo_GetFloorCorrupt(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "image_url", "furniture"}).
		AddRow(1, "Main Floor", "/floor-1.png", []byte(`{not json`))
	mock.ExpectQuery(`SELECT id, name, image_url, furniture FROM floors`).WithArgs(int64(1)).WillReturnRows(rows)

	_, err := repo.GetFloor(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCorruptFloor)
}

func TestFloorRepo_SaveFloorDesks(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE floors SET furniture = \?`).
		WithArgs(sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveFloorDesks(context.Background(), 1, []model.Desk{{ID: 1, Label: "A", Width: 60, Height: 40, Type: "desk"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFloorRepo_SaveFloorDesksNotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE floors SET furniture = \?`).
		WithArgs(sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveFloorDesks(context.Background(), 5, nil)
	assert.ErrorIs(t, err, ErrFloorNotFound)
}

func TestFloorRepo_SaveFloorDesksDriverError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectExec(`UPDATE floors`).WillReturnError(boom)

	err := repo.SaveFloorDesks(context.Background(), 1, nil)
	assert.ErrorIs(t, err, boom)
}
