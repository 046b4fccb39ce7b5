package canvas

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingSaver struct {
	floorID int64
	desks   []model.Desk
	calls   int
	err     error
}

func (r *recordingSaver) SaveFloorDesks(_ context.Context, floorID int64, desks []model.Desk) error {
	r.calls++
	r.floorID = floorID
	r.desks = desks
	return r.err
}

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)}
	s := NewStore(WithClock(clock.Now), WithLocation(time.UTC))
	require.NoError(t, s.SetBounds(model.Bounds{Width: 900, Height: 600}))
	return s, clock
}

func validReservation() model.Reservation {
	return model.Reservation{
		Name:          "Ana",
		Phone:         "+381 60 123",
		Persons:       2,
		ReservedAt:    "2024-07-01T10:00",
		ReservedUntil: "2024-07-01T18:00",
	}
}

func assertInBounds(t *testing.T, s *Store) {
	t.Helper()
	b := s.Bounds()
	for _, d := range s.Desks() {
		assert.GreaterOrEqual(t, d.X, 0.0, "desk %d x", d.ID)
		assert.GreaterOrEqual(t, d.Y, 0.0, "desk %d y", d.ID)
		assert.LessOrEqual(t, d.X+d.Width, b.Width, "desk %d right edge", d.ID)
		assert.LessOrEqual(t, d.Y+d.Height, b.Height, "desk %d bottom edge", d.ID)
		assert.GreaterOrEqual(t, d.Width, model.MinDeskWidth)
		assert.GreaterOrEqual(t, d.Height, model.MinDeskHeight)
	}
}

func TestStore_InitialState(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()
	assert.Equal(t, ModeReservation, snap.Mode)
	assert.False(t, snap.EditMode)
	assert.Nil(t, snap.SelectedDeskID)
	assert.Nil(t, snap.Bounds)
	assert.NotNil(t, snap.Desks)
	assert.Empty(t, snap.Desks)
}

func TestStore_AddDeskDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	d, err := s.AddDesk()
	require.NoError(t, err)
	assert.Equal(t, "Desk 1", d.Label)
	assert.Equal(t, 50.0, d.X)
	assert.Equal(t, 50.0, d.Y)
	assert.Equal(t, 60.0, d.Width)
	assert.Equal(t, 40.0, d.Height)
	assert.Equal(t, model.DeskTypeDesk, d.Type)
	assert.Nil(t, d.Reservation)

	d2, err := s.AddDesk()
	require.NoError(t, err)
	assert.Equal(t, "Desk 2", d2.Label)
	assert.Greater(t, d2.ID, d.ID, "ids are unique even within the same millisecond")
}

func TestStore_AddDeskOnSmallImage(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetBounds(model.Bounds{Width: 80, Height: 45}))

	d, err := s.AddDesk()
	require.NoError(t, err)
	assert.Equal(t, 20.0, d.X)
	assert.Equal(t, 5.0, d.Y)
	assertInBounds(t, s)
}

func TestStore_AddDeskShrinksOnNarrowImage(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetBounds(model.Bounds{Width: 40, Height: 30}))

	d, err := s.AddDesk()
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.X)
	assert.Equal(t, 0.0, d.Y)
	assert.Equal(t, 40.0, d.Width)
	assert.Equal(t, 30.0, d.Height)
	assertInBounds(t, s)
}

func TestStore_AddDeskRejectsImageBelowMinimum(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetBounds(model.Bounds{Width: 25, Height: 100}))

	_, err := s.AddDesk()
	assert.ErrorIs(t, err, ErrImageTooSmall)
	assert.Empty(t, s.Desks())

	require.NoError(t, s.SetBounds(model.Bounds{Width: 100, Height: 15}))
	_, err = s.AddDesk()
	assert.ErrorIs(t, err, ErrImageTooSmall)
	assert.Empty(t, s.Desks())
}

func TestStore_GeometryRequiresBounds(t *testing.T) {
	s := NewStore()
	s.SetItems([]model.Desk{{ID: 1, Label: "A", Width: 60, Height: 40, Type: "desk"}})

	_, err := s.AddDesk()
	assert.ErrorIs(t, err, ErrBoundsUnknown)
	assert.ErrorIs(t, s.MoveDesk(1, 10, 10), ErrBoundsUnknown)
	assert.ErrorIs(t, s.ResizeDesk(1, 100, 100), ErrBoundsUnknown)
	assert.ErrorIs(t, s.StartResize(1, Point{X: 60, Y: 40}), ErrBoundsUnknown)
	assert.Len(t, s.Desks(), 1)
}

func TestStore_MoveDeskClampsAndSelects(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)

	require.NoError(t, s.MoveDesk(d.ID, 5000, -30))
	moved, ok := s.Desk(d.ID)
	require.True(t, ok)
	assert.Equal(t, 840.0, moved.X)
	assert.Equal(t, 0.0, moved.Y)

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, d.ID, sel)
	assertInBounds(t, s)
}

func TestStore_MoveDeskRejectsNonFinite(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)
	before := s.Version()

	err = s.MoveDesk(d.ID, math.NaN(), 10)
	assert.True(t, IsValidation(err))
	assert.Equal(t, before, s.Version())
}

func TestStore_ResizeDeskKeepsInvariants(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)
	require.NoError(t, s.MoveDesk(d.ID, 880, 590))

	require.NoError(t, s.ResizeDesk(d.ID, 1, 1))
	assertInBounds(t, s)

	require.NoError(t, s.ResizeDesk(d.ID, 9000, 9000))
	assertInBounds(t, s)
}

func TestStore_UnknownDesk(t *testing.T) {
	s, _ := newTestStore(t)
	assert.ErrorIs(t, s.MoveDesk(42, 1, 1), ErrDeskNotFound)
	assert.ErrorIs(t, s.ResizeDesk(42, 100, 100), ErrDeskNotFound)
	assert.ErrorIs(t, s.RenameDesk(42, "x"), ErrDeskNotFound)
	assert.ErrorIs(t, s.ReserveDesk(42, validReservation()), ErrDeskNotFound)
	id := int64(42)
	assert.ErrorIs(t, s.SelectDesk(&id), ErrDeskNotFound)
	_, err := s.ClickDesk(42)
	assert.ErrorIs(t, err, ErrDeskNotFound)
}

func TestStore_ToggleEditModeClearsSelection(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)
	require.NoError(t, s.SelectDesk(&d.ID))

	s.ToggleEditMode()
	assert.Equal(t, ModeEdit, s.Mode())
	_, selected := s.Selected()
	assert.False(t, selected)

	require.NoError(t, s.SelectDesk(&d.ID))
	s.ToggleEditMode()
	assert.Equal(t, ModeReservation, s.Mode(), "two toggles return to the original mode")
	_, selected = s.Selected()
	assert.False(t, selected, "selection is cleared on every toggle")
}

func TestStore_ClickDesk(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)

	prefill, err := s.ClickDesk(d.ID)
	require.NoError(t, err)
	assert.Nil(t, prefill)
	assert.True(t, s.Snapshot().ReserveDialogOpen)

	require.NoError(t, s.ReserveDesk(d.ID, validReservation()))
	prefill, err = s.ClickDesk(d.ID)
	require.NoError(t, err)
	require.NotNil(t, prefill)
	assert.Equal(t, "Ana", prefill.Name)

	s.OpenReserveDialog(false)
	s.ToggleEditMode()
	_, err = s.ClickDesk(d.ID)
	require.NoError(t, err)
	assert.False(t, s.Snapshot().ReserveDialogOpen, "edit mode clicks only select")
	sel, _ := s.Selected()
	assert.Equal(t, d.ID, sel)
}

func TestStore_RenameDesk(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)
	s.OpenRenameDialog(true)

	err = s.RenameDesk(d.ID, "   ")
	assert.True(t, IsValidation(err))
	assert.True(t, s.Snapshot().RenameDialogOpen, "dialog stays open on rejection")
	got, _ := s.Desk(d.ID)
	assert.Equal(t, "Desk 1", got.Label)

	require.NoError(t, s.RenameDesk(d.ID, "  Window seat "))
	got, _ = s.Desk(d.ID)
	assert.Equal(t, "Window seat", got.Label)
	assert.False(t, s.Snapshot().RenameDialogOpen)
}

func TestStore_ReserveDeskValidation(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r *model.Reservation)
		field  string
	}{
		{name: "empty name", mutate: func(r *model.Reservation) { r.Name = " " }, field: "name"},
		{name: "empty phone", mutate: func(r *model.Reservation) { r.Phone = "" }, field: "phone"},
		{name: "zero persons", mutate: func(r *model.Reservation) { r.Persons = 0 }, field: "persons"},
		{name: "bad start", mutate: func(r *model.Reservation) { r.ReservedAt = "tomorrow" }, field: "reservedAt"},
		{name: "missing end", mutate: func(r *model.Reservation) { r.ReservedUntil = "" }, field: "reservedUntil"},
		{name: "end before start", mutate: func(r *model.Reservation) { r.ReservedUntil = "2024-07-01T09:00" }, field: "reservedUntil"},
		{name: "end equals start", mutate: func(r *model.Reservation) { r.ReservedUntil = r.ReservedAt }, field: "reservedUntil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.OpenReserveDialog(true)
			r := validReservation()
			tt.mutate(&r)

			err := s.ReserveDesk(d.ID, r)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)

			got, _ := s.Desk(d.ID)
			assert.Nil(t, got.Reservation)
			assert.True(t, s.Snapshot().ReserveDialogOpen)
		})
	}
}

func TestStore_RebookingReplacesReservation(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)

	require.NoError(t, s.ReserveDesk(d.ID, validReservation()))
	second := model.Reservation{
		Name:          "Marko",
		Phone:         "555",
		Persons:       1,
		ReservedAt:    "2024-07-02",
		ReservedUntil: "2024-07-02T12:00",
	}
	require.NoError(t, s.ReserveDesk(d.ID, second))

	got, _ := s.Desk(d.ID)
	require.NotNil(t, got.Reservation)
	assert.Equal(t, second, *got.Reservation)
}

func TestStore_DeleteDeskTwiceIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	a, err := s.AddDesk()
	require.NoError(t, err)
	b, err := s.AddDesk()
	require.NoError(t, err)
	require.NoError(t, s.SelectDesk(&a.ID))

	s.DeleteDesk(a.ID)
	_, selected := s.Selected()
	assert.False(t, selected)
	after := s.Desks()
	version := s.Version()

	s.DeleteDesk(a.ID)
	assert.Equal(t, after, s.Desks())
	assert.Equal(t, version, s.Version())
	require.Len(t, after, 1)
	assert.Equal(t, b.ID, after[0].ID)
}

func TestStore_DeleteKeepsOtherSelection(t *testing.T) {
	s, _ := newTestStore(t)
	a, _ := s.AddDesk()
	b, _ := s.AddDesk()
	require.NoError(t, s.SelectDesk(&b.ID))

	s.DeleteDesk(a.ID)
	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, b.ID, sel)
}

func TestStore_ResizeGestureDoesNotTouchCommittedList(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)

	require.NoError(t, s.StartResize(d.ID, Point{X: 110, Y: 90}))
	live, err := s.UpdateResize(Point{X: 310, Y: 190})
	require.NoError(t, err)
	assert.Equal(t, 260.0, live.Width)
	assert.Equal(t, 140.0, live.Height)

	committed, _ := s.Desk(d.ID)
	assert.Equal(t, 60.0, committed.Width, "committed list unchanged mid-gesture")
	snap := s.Snapshot()
	require.NotNil(t, snap.ResizingID)
	require.NotNil(t, snap.LiveSize)

	size, err := s.EndResize()
	require.NoError(t, err)
	assert.Equal(t, 260.0, size.Width)
	committed, _ = s.Desk(d.ID)
	assert.Equal(t, 260.0, committed.Width)
	assert.Equal(t, 140.0, committed.Height)
	assert.Nil(t, s.Snapshot().ResizingID)
}

func TestStore_SetItemsDiscardsInFlightResize(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)
	require.NoError(t, s.StartResize(d.ID, Point{X: 110, Y: 90}))

	s.SetItems([]model.Desk{{ID: 99, Label: "Other", X: 0, Y: 0, Width: 60, Height: 40, Type: "desk"}})

	_, err = s.EndResize()
	assert.ErrorIs(t, err, ErrNoActiveResize)
	got, _ := s.Desk(99)
	assert.Equal(t, 60.0, got.Width)
}

func TestStore_EndResizeDropsVanishedDesk(t *testing.T) {
	s, _ := newTestStore(t)
	d, err := s.AddDesk()
	require.NoError(t, err)
	require.NoError(t, s.StartResize(d.ID, Point{X: 110, Y: 90}))

	// bypass DeleteDesk so the gesture survives and End has to re-validate
	s.desks = s.desks[:0]

	_, err = s.EndResize()
	assert.ErrorIs(t, err, ErrDeskNotFound)
}

func TestStore_StartResizeRejectsNonDesk(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetItems([]model.Desk{{ID: 1, Label: "Plant", Width: 40, Height: 40, Type: "plant"}})
	assert.ErrorIs(t, s.StartResize(1, Point{X: 40, Y: 40}), ErrNotResizable)
}

func TestStore_SetItemsKeepsSelectionAndMode(t *testing.T) {
	s, _ := newTestStore(t)
	s.ToggleEditMode()
	d, _ := s.AddDesk()
	require.NoError(t, s.SelectDesk(&d.ID))

	s.SetItems(nil)
	assert.Equal(t, ModeEdit, s.Mode())
	sel, ok := s.Selected()
	assert.True(t, ok)
	assert.Equal(t, d.ID, sel)
	assert.Empty(t, s.Desks())
}

func TestStore_SnapshotIsDeepCopy(t *testing.T) {
	s, _ := newTestStore(t)
	d, _ := s.AddDesk()
	require.NoError(t, s.ReserveDesk(d.ID, validReservation()))

	snap := s.Snapshot()
	snap.Desks[0].Label = "mutated"
	snap.Desks[0].Reservation.Name = "mutated"

	got, _ := s.Desk(d.ID)
	assert.Equal(t, "Desk 1", got.Label)
	assert.Equal(t, "Ana", got.Reservation.Name)
}

func TestStore_CommitSave(t *testing.T) {
	s, clock := newTestStore(t)
	s.ToggleEditMode()
	_, err := s.AddDesk()
	require.NoError(t, err)
	saver := &recordingSaver{}

	require.NoError(t, s.CommitSave(context.Background(), saver, 3, true))
	assert.Equal(t, 1, saver.calls)
	assert.Equal(t, int64(3), saver.floorID)
	assert.Len(t, saver.desks, 1)

	snap := s.Snapshot()
	assert.False(t, snap.IsSaving)
	assert.True(t, snap.ShowSavedToast)
	assert.Equal(t, ModeReservation, snap.Mode, "save & exit leaves edit mode")

	clock.Advance(SavedToastDuration)
	assert.False(t, s.Snapshot().ShowSavedToast, "toast disappears after two seconds")
}

func TestStore_CommitSaveWithoutExitKeepsMode(t *testing.T) {
	s, _ := newTestStore(t)
	s.ToggleEditMode()
	require.NoError(t, s.CommitSave(context.Background(), &recordingSaver{}, 1, false))
	assert.Equal(t, ModeEdit, s.Mode())
}

func TestStore_CommitSaveFailure(t *testing.T) {
	s, _ := newTestStore(t)
	s.ToggleEditMode()
	boom := errors.New("gateway down")

	err := s.CommitSave(context.Background(), &recordingSaver{err: boom}, 1, true)
	assert.ErrorIs(t, err, boom)
	snap := s.Snapshot()
	assert.False(t, snap.IsSaving)
	assert.False(t, snap.ShowSavedToast)
	assert.Equal(t, ModeEdit, snap.Mode)
}

func TestStore_BeginSaveRejectsConcurrentSave(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.BeginSave()
	require.NoError(t, err)
	assert.True(t, s.Snapshot().IsSaving)

	_, err = s.BeginSave()
	assert.ErrorIs(t, err, ErrSaveInProgress)

	s.FinishSave(nil, false)
	assert.False(t, s.Snapshot().IsSaving)
}

// Floor image is 900x600; add, resize past the edge, reject an inverted
// booking, then accept a valid one.
func TestStore_PlannerScenario(t *testing.T) {
	s, _ := newTestStore(t)
	s.ToggleEditMode()

	d, err := s.AddDesk()
	require.NoError(t, err)
	require.Equal(t, 50.0, d.X)

	require.NoError(t, s.StartResize(d.ID, Point{X: 110, Y: 90}))
	_, err = s.UpdateResize(Point{X: 2050, Y: 90})
	require.NoError(t, err)
	_, err = s.EndResize()
	require.NoError(t, err)
	got, _ := s.Desk(d.ID)
	assert.Equal(t, 850.0, got.Width)
	assertInBounds(t, s)

	s.ToggleEditMode()
	bad := validReservation()
	bad.ReservedUntil = "2024-07-01T09:00"
	assert.True(t, IsValidation(s.ReserveDesk(d.ID, bad)))
	got, _ = s.Desk(d.ID)
	assert.Nil(t, got.Reservation)

	require.NoError(t, s.ReserveDesk(d.ID, validReservation()))
	got, _ = s.Desk(d.ID)
	require.NotNil(t, got.Reservation)
	assert.Equal(t, "2024-07-01T18:00", got.Reservation.ReservedUntil)
}
