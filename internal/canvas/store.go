package canvas

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

// SavedToastDuration is how long the "saved" confirmation stays visible.
const SavedToastDuration = 2 * time.Second

// Default geometry of a freshly added desk.
const (
	defaultDeskWidth  = 60.0
	defaultDeskHeight = 40.0
	defaultDeskOffset = 50.0
)

// Mode selects what a click on a desk means.  The two modes are mutually
// exclusive and only change through ToggleEditMode.
type Mode int

const (
	// ModeReservation is the initial mode: clicking a desk books it.
	ModeReservation Mode = iota
	// ModeEdit allows placing, moving, resizing, renaming and deleting desks.
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "reservation"
}

// MarshalText encodes the mode as "edit" or "reservation".
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "edit":
		*m = ModeEdit
	case "reservation":
		*m = ModeReservation
	default:
		return fmt.Errorf("unknown mode %q", b)
	}
	return nil
}

// DeskSaver is the slice of the persistence gateway CommitSave needs.
type DeskSaver interface {
	SaveFloorDesks(ctx context.Context, floorID int64, desks []model.Desk) error
}

// Snapshot is a versioned, deep-copied view of the store handed to the
// presentation layer.  Mutating it never affects the store.
type Snapshot struct {
	Version           uint64        `json:"version"`
	Mode              Mode          `json:"mode"`
	EditMode          bool          `json:"isEditMode"`
	SelectedDeskID    *int64        `json:"selectedDeskId"`
	ResizingID        *int64        `json:"resizingId"`
	LiveSize          *LiveSize     `json:"liveSize,omitempty"`
	ReserveDialogOpen bool          `json:"reserveOpen"`
	RenameDialogOpen  bool          `json:"changeNameOpen"`
	IsSaving          bool          `json:"isSaving"`
	ShowSavedToast    bool          `json:"showSaved"`
	Bounds            *model.Bounds `json:"bounds,omitempty"`
	Desks             []model.Desk  `json:"items"`
}

// Store is the canvas state machine.  It owns the in-memory desk list of the
// floor on display and is not safe for concurrent use; callers serialise
// access (one event at a time).  Failed operations return an error and leave
// the state untouched.
type Store struct {
	desks       []model.Desk
	bounds      model.Bounds
	mode        Mode
	selected    *int64
	resizingID  *int64
	reserveOpen bool
	renameOpen  bool
	saving      bool
	savedUntil  time.Time
	version     uint64

	resize ResizeController
	ids    *IDGenerator
	now    func() time.Time
	loc    *time.Location
}

// Option customises a Store.
type Option func(*Store)

// WithIDGenerator shares a desk id generator between stores.
func WithIDGenerator(g *IDGenerator) Option {
	return func(s *Store) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithClock replaces the wall clock used for the saved toast.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone used to interpret reservation timestamps
// that carry no offset.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewStore returns an empty store in reservation mode with unknown bounds.
func NewStore(opts ...Option) *Store {
	s := &Store{
		desks: []model.Desk{},
		mode:  ModeReservation,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = NewIDGenerator(s.now)
	}
	return s
}

// SetItems replaces the desk list wholesale, e.g. after switching floors.
// Selection and mode are kept.  An in-flight resize is discarded because its
// desk may no longer exist.
func (s *Store) SetItems(desks []model.Desk) {
	s.desks = model.CloneDesks(desks)
	s.resize.Discard()
	s.resizingID = nil
	s.touch()
}

// SetBounds records the floor image size once the image has loaded.
func (s *Store) SetBounds(b model.Bounds) error {
	if !b.Known() {
		return invalid("bounds", "width and height must be positive numbers")
	}
	s.bounds = b
	s.touch()
	return nil
}

// SelectDesk selects a desk; a nil id clears the selection.
func (s *Store) SelectDesk(id *int64) error {
	if id == nil {
		s.selected = nil
		s.touch()
		return nil
	}
	if s.index(*id) < 0 {
		return ErrDeskNotFound
	}
	s.selected = ptr(*id)
	s.touch()
	return nil
}

// ToggleEditMode flips between edit and reservation mode and clears the
// selection so an armed desk never crosses the mode boundary.
func (s *Store) ToggleEditMode() {
	if s.mode == ModeEdit {
		s.mode = ModeReservation
	} else {
		s.mode = ModeEdit
	}
	s.selected = nil
	s.resize.Discard()
	s.resizingID = nil
	s.touch()
}

// ClickDesk handles a click on a desk.  In edit mode it selects the desk.  In
// reservation mode it also opens the reserve dialog and returns the desk's
// current reservation, if any, to prefill the form.
func (s *Store) ClickDesk(id int64) (*model.Reservation, error) {
	i := s.index(id)
	if i < 0 {
		return nil, ErrDeskNotFound
	}
	s.selected = ptr(id)
	var prefill *model.Reservation
	if s.mode == ModeReservation {
		s.reserveOpen = true
		if r := s.desks[i].Reservation; r != nil {
			cp := *r
			prefill = &cp
		}
	}
	s.touch()
	return prefill, nil
}

// OpenReserveDialog shows or hides the booking dialog.
func (s *Store) OpenReserveDialog(open bool) {
	s.reserveOpen = open
	s.touch()
}

// OpenRenameDialog shows or hides the rename dialog.
func (s *Store) OpenRenameDialog(open bool) {
	s.renameOpen = open
	s.touch()
}

// MoveDesk commits a clamped position and selects the desk in the same
// transition.
func (s *Store) MoveDesk(id int64, x, y float64) error {
	if !s.bounds.Known() {
		return ErrBoundsUnknown
	}
	if !model.Finite(x, y) {
		return invalid("position", "must be a finite number")
	}
	i := s.index(id)
	if i < 0 {
		return ErrDeskNotFound
	}
	d := &s.desks[i]
	d.X, d.Y = ClampPosition(*d, x, y, s.bounds)
	s.selected = ptr(id)
	s.touch()
	return nil
}

// ResizeDesk commits a clamped size.  Values coming from EndResize are
// already clamped; clamping again is idempotent.  When the minimum size
// pushes the desk past the image edge the position is pulled back in.
func (s *Store) ResizeDesk(id int64, width, height float64) error {
	if !s.bounds.Known() {
		return ErrBoundsUnknown
	}
	if !model.Finite(width, height) {
		return invalid("size", "must be a finite number")
	}
	i := s.index(id)
	if i < 0 {
		return ErrDeskNotFound
	}
	d := &s.desks[i]
	d.Width, d.Height = ClampSize(*d, width, height, s.bounds)
	d.X, d.Y = ClampPosition(*d, d.X, d.Y, s.bounds)
	s.touch()
	return nil
}

// StartResize begins a resize gesture on a desk and selects it.
func (s *Store) StartResize(id int64, p Point) error {
	if !s.bounds.Known() {
		return ErrBoundsUnknown
	}
	if !model.Finite(p.X, p.Y) {
		return invalid("pointer", "must be a finite number")
	}
	i := s.index(id)
	if i < 0 {
		return ErrDeskNotFound
	}
	if !s.desks[i].Resizable() {
		return ErrNotResizable
	}
	if !s.resize.Start(s.desks[i], p, s.bounds) {
		return ErrBoundsUnknown
	}
	s.resizingID = ptr(id)
	s.selected = ptr(id)
	s.touch()
	return nil
}

// UpdateResize feeds a pointer move into the active gesture.  The committed
// desk list is not modified.
func (s *Store) UpdateResize(p Point) (LiveSize, error) {
	id, ok := s.resize.Active()
	if !ok {
		return LiveSize{}, ErrNoActiveResize
	}
	if !model.Finite(p.X, p.Y) {
		return LiveSize{}, invalid("pointer", "must be a finite number")
	}
	i := s.index(id)
	if i < 0 {
		s.resize.Discard()
		s.resizingID = nil
		s.touch()
		return LiveSize{}, ErrDeskNotFound
	}
	s.resize.Update(s.desks[i], p, s.bounds)
	live, _ := s.resize.Live()
	s.touch()
	return live, nil
}

// EndResize finishes the gesture and commits the live size if the desk still
// exists.  A gesture whose desk vanished (for example after SetItems) is
// dropped with ErrDeskNotFound.
func (s *Store) EndResize() (LiveSize, error) {
	size, ok := s.resize.End()
	s.resizingID = nil
	if !ok {
		return LiveSize{}, ErrNoActiveResize
	}
	if s.index(size.ID) < 0 {
		s.touch()
		return LiveSize{}, ErrDeskNotFound
	}
	if err := s.ResizeDesk(size.ID, size.Width, size.Height); err != nil {
		s.touch()
		return LiveSize{}, err
	}
	return size, nil
}

// RenameDesk commits a trimmed, non-empty label and closes the rename
// dialog.  An empty label is rejected and the dialog stays open.
func (s *Store) RenameDesk(id int64, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return invalid("label", "must not be empty")
	}
	i := s.index(id)
	if i < 0 {
		return ErrDeskNotFound
	}
	s.desks[i].Label = label
	s.renameOpen = false
	s.touch()
	return nil
}

// ReserveDesk validates a booking and replaces the desk's reservation with
// it (no merge with a previous booking), then closes the reserve dialog.
func (s *Store) ReserveDesk(id int64, r model.Reservation) error {
	r, err := ValidateReservation(r, s.loc)
	if err != nil {
		return err
	}
	i := s.index(id)
	if i < 0 {
		return ErrDeskNotFound
	}
	s.desks[i].Reservation = &r
	s.reserveOpen = false
	s.touch()
	return nil
}

// AddDesk appends a default desk near the top-left corner of the image.
// The desk always fits the image; an image below the minimum desk size
// yields ErrImageTooSmall and leaves the list unchanged.
func (s *Store) AddDesk() (model.Desk, error) {
	if !s.bounds.Known() {
		return model.Desk{}, ErrBoundsUnknown
	}
	if s.bounds.Width < model.MinDeskWidth || s.bounds.Height < model.MinDeskHeight {
		return model.Desk{}, ErrImageTooSmall
	}
	var maxID int64
	for _, d := range s.desks {
		if d.ID > maxID {
			maxID = d.ID
		}
	}
	d := model.Desk{
		ID:    s.ids.Next(maxID),
		Label: fmt.Sprintf("Desk %d", len(s.desks)+1),
		X:     math.Max(0, math.Min(defaultDeskOffset, s.bounds.Width-defaultDeskWidth)),
		Y:     math.Max(0, math.Min(defaultDeskOffset, s.bounds.Height-defaultDeskHeight)),
		Type:  model.DeskTypeDesk,
	}
	// images narrower than the default desk shrink it to fit
	d.Width, d.Height = ClampSize(d, defaultDeskWidth, defaultDeskHeight, s.bounds)
	s.desks = append(s.desks, d)
	s.touch()
	return d.Clone(), nil
}

// DeleteDesk removes a desk and clears the selection if it pointed at it.
// Deleting an unknown id is a no-op.
func (s *Store) DeleteDesk(id int64) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.desks = append(s.desks[:i], s.desks[i+1:]...)
	if s.selected != nil && *s.selected == id {
		s.selected = nil
	}
	if active, ok := s.resize.Active(); ok && active == id {
		s.resize.Discard()
		s.resizingID = nil
	}
	s.touch()
}

// BeginSave marks the store as saving and returns the list to persist.
func (s *Store) BeginSave() ([]model.Desk, error) {
	if s.saving {
		return nil, ErrSaveInProgress
	}
	s.saving = true
	s.touch()
	return model.CloneDesks(s.desks), nil
}

// FinishSave ends a save started with BeginSave.  On success the saved toast
// is shown for SavedToastDuration and, when exitEdit is set, edit mode is
// left.  On failure neither happens.
func (s *Store) FinishSave(err error, exitEdit bool) {
	s.saving = false
	if err == nil {
		s.savedUntil = s.now().Add(SavedToastDuration)
		if exitEdit && s.mode == ModeEdit {
			s.ToggleEditMode()
		}
	}
	s.touch()
}

// CommitSave hands the full desk list to the gateway.  It is the only
// operation that performs I/O.
func (s *Store) CommitSave(ctx context.Context, saver DeskSaver, floorID int64, exitEdit bool) error {
	desks, err := s.BeginSave()
	if err != nil {
		return err
	}
	err = saver.SaveFloorDesks(ctx, floorID, desks)
	s.FinishSave(err, exitEdit)
	if err != nil {
		return fmt.Errorf("save floor %d: %w", floorID, err)
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Version:           s.version,
		Mode:              s.mode,
		EditMode:          s.mode == ModeEdit,
		ReserveDialogOpen: s.reserveOpen,
		RenameDialogOpen:  s.renameOpen,
		IsSaving:          s.saving,
		ShowSavedToast:    s.now().Before(s.savedUntil),
		Desks:             model.CloneDesks(s.desks),
	}
	if s.selected != nil {
		snap.SelectedDeskID = ptr(*s.selected)
	}
	if s.resizingID != nil {
		snap.ResizingID = ptr(*s.resizingID)
	}
	if live, ok := s.resize.Live(); ok {
		snap.LiveSize = &live
	}
	if s.bounds.Known() {
		b := s.bounds
		snap.Bounds = &b
	}
	return snap
}

// Desks returns a copy of the committed desk list.
func (s *Store) Desks() []model.Desk { return model.CloneDesks(s.desks) }

// Desk looks up a desk by id.
func (s *Store) Desk(id int64) (model.Desk, bool) {
	i := s.index(id)
	if i < 0 {
		return model.Desk{}, false
	}
	return s.desks[i].Clone(), true
}

// Mode returns the current interaction mode.
func (s *Store) Mode() Mode { return s.mode }

// Selected returns the selected desk id.
func (s *Store) Selected() (int64, bool) {
	if s.selected == nil {
		return 0, false
	}
	return *s.selected, true
}

// Bounds returns the floor image size (zero while unknown).
func (s *Store) Bounds() model.Bounds { return s.bounds }

// Version increases with every state transition.
func (s *Store) Version() uint64 { return s.version }

// ValidateReservation checks a booking before commit and returns it with
// name and phone trimmed.
func ValidateReservation(r model.Reservation, loc *time.Location) (model.Reservation, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.ReservedAt = strings.TrimSpace(r.ReservedAt)
	r.ReservedUntil = strings.TrimSpace(r.ReservedUntil)
	if r.Name == "" {
		return r, invalid("name", "is required")
	}
	if r.Phone == "" {
		return r, invalid("phone", "is required")
	}
	if r.Persons < 1 {
		return r, invalid("persons", "must be at least 1")
	}
	at, err := model.ParseTimestamp(r.ReservedAt, loc)
	if err != nil {
		return r, invalid("reservedAt", "is not a valid timestamp")
	}
	until, err := model.ParseTimestamp(r.ReservedUntil, loc)
	if err != nil {
		return r, invalid("reservedUntil", "is not a valid timestamp")
	}
	if !at.Before(until) {
		return r, invalid("reservedUntil", "must be after reservedAt")
	}
	return r, nil
}

func (s *Store) index(id int64) int {
	for i := range s.desks {
		if s.desks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) touch() { s.version++ }

func ptr(id int64) *int64 { return &id }
