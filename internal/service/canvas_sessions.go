package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/desk-reservation-planner/internal/canvas"
	"github.com/iliyamo/desk-reservation-planner/internal/model"
	"github.com/iliyamo/desk-reservation-planner/internal/repository"
)

// ErrSessionNotFound is returned for unknown or evicted session ids.
var ErrSessionNotFound = errors.New("canvas session not found")

// DefaultSessionIdleTTL is how long an untouched session survives.
const DefaultSessionIdleTTL = 30 * time.Minute

// Action types accepted by CanvasSessions.Apply.
const (
	ActionSelect         = "select"
	ActionToggleEditMode = "toggle_edit_mode"
	ActionClick          = "click"
	ActionMove           = "move"
	ActionResize         = "resize"
	ActionResizeStart    = "resize_start"
	ActionResizeUpdate   = "resize_update"
	ActionResizeEnd      = "resize_end"
	ActionRename         = "rename"
	ActionOpenRename     = "open_rename"
	ActionOpenReserve    = "open_reserve"
	ActionReserve        = "reserve"
	ActionAdd            = "add"
	ActionDelete         = "delete"
)

// Action is one user interaction on a canvas.  Which fields are required
// depends on Type.
type Action struct {
	Type        string             `json:"type"`
	ID          *int64             `json:"id,omitempty"`
	X           *float64           `json:"x,omitempty"`
	Y           *float64           `json:"y,omitempty"`
	Width       *float64           `json:"width,omitempty"`
	Height      *float64           `json:"height,omitempty"`
	Label       string             `json:"label,omitempty"`
	Reservation *model.Reservation `json:"reservation,omitempty"`
	Open        *bool              `json:"open,omitempty"`
}

// SessionView is what clients see of a session.
type SessionView struct {
	ID       string          `json:"id"`
	FloorID  int64           `json:"floorId"`
	Floor    string          `json:"floorName"`
	ImageURL string          `json:"imageUrl"`
	State    canvas.Snapshot `json:"state"`
}

// ActionResult carries the new state plus whatever the action produced.
type ActionResult struct {
	Session  SessionView        `json:"session"`
	Desk     *model.Desk        `json:"desk,omitempty"`
	Prefill  *model.Reservation `json:"prefill,omitempty"`
	LiveSize *canvas.LiveSize   `json:"liveSize,omitempty"`
}

type session struct {
	id string

	mu       sync.Mutex
	floor    model.FloorSummary
	store    *canvas.Store
	lastSeen time.Time
}

func (s *session) viewLocked() SessionView {
	return SessionView{
		ID:       s.id,
		FloorID:  s.floor.ID,
		Floor:    s.floor.Name,
		ImageURL: s.floor.ImageURL,
		State:    s.store.Snapshot(),
	}
}

// CanvasSessions keeps one canvas store per open floor plan.  Every session
// serialises its own transitions; different sessions run independently.
type CanvasSessions struct {
	floors  repository.FloorGateway
	ids     *canvas.IDGenerator
	now     func() time.Time
	loc     *time.Location
	idleTTL time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// SessionOption customises CanvasSessions.
type SessionOption func(*CanvasSessions)

// WithSessionClock replaces time.Now, mainly for tests.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(c *CanvasSessions) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSessionLocation sets the zone of reservation timestamps without offset.
func WithSessionLocation(loc *time.Location) SessionOption {
	return func(c *CanvasSessions) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithSessionIdleTTL sets how long an untouched session survives.
func WithSessionIdleTTL(ttl time.Duration) SessionOption {
	return func(c *CanvasSessions) {
		if ttl > 0 {
			c.idleTTL = ttl
		}
	}
}

// WithSessionLogger sets the logger; nil keeps the no-op default.
func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(c *CanvasSessions) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCanvasSessions returns an empty registry saving through floors.
func NewCanvasSessions(floors repository.FloorGateway, opts ...SessionOption) *CanvasSessions {
	c := &CanvasSessions{
		floors:   floors,
		now:      time.Now,
		loc:      time.Local,
		idleTTL:  DefaultSessionIdleTTL,
		logger:   zap.NewNop(),
		sessions: map[string]*session{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ids = canvas.NewIDGenerator(c.now)
	c.logger = c.logger.Named("canvas")
	return c
}

// Create opens a floor in a new session.  Bounds may be nil when the client
// has not loaded the floor image yet.
func (c *CanvasSessions) Create(ctx context.Context, floorID int64, bounds *model.Bounds) (SessionView, error) {
	floor, err := c.floors.GetFloor(ctx, floorID)
	if err != nil {
		return SessionView{}, err
	}
	store := canvas.NewStore(
		canvas.WithIDGenerator(c.ids),
		canvas.WithClock(c.now),
		canvas.WithLocation(c.loc),
	)
	store.SetItems(floor.Desks)
	if bounds != nil {
		if err := store.SetBounds(*bounds); err != nil {
			return SessionView{}, err
		}
	}

	s := &session{id: uuid.NewString(), floor: floor.Summary(), store: store, lastSeen: c.now()}
	view := s.viewLocked()
	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()
	c.logger.Debug("session opened", zap.String("session_id", s.id), zap.Int64("floor_id", floorID))
	return view, nil
}

// Get returns the current view of a session.
func (c *CanvasSessions) Get(id string) (SessionView, error) {
	var view SessionView
	err := c.with(id, func(s *session) error {
		view = s.viewLocked()
		return nil
	})
	return view, err
}

// Delete closes a session.
func (c *CanvasSessions) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(c.sessions, id)
	return nil
}

// Len returns the number of open sessions.
func (c *CanvasSessions) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// SetBounds records the floor image size reported by the client.
func (c *CanvasSessions) SetBounds(id string, b model.Bounds) (SessionView, error) {
	var view SessionView
	err := c.with(id, func(s *session) error {
		if err := s.store.SetBounds(b); err != nil {
			return err
		}
		view = s.viewLocked()
		return nil
	})
	return view, err
}

// SwitchFloor loads another floor into the session.  Mode and selection are
// kept; unsaved edits of the previous floor are dropped.  The bounds stay
// until the client reports the size of the new image.
func (c *CanvasSessions) SwitchFloor(ctx context.Context, id string, floorID int64) (SessionView, error) {
	if _, err := c.lookup(id); err != nil {
		return SessionView{}, err
	}
	floor, err := c.floors.GetFloor(ctx, floorID)
	if err != nil {
		return SessionView{}, err
	}
	var view SessionView
	err = c.with(id, func(s *session) error {
		s.floor = floor.Summary()
		s.store.SetItems(floor.Desks)
		view = s.viewLocked()
		return nil
	})
	return view, err
}

// Apply runs one action against the session's store.
func (c *CanvasSessions) Apply(id string, a Action) (ActionResult, error) {
	var res ActionResult
	err := c.with(id, func(s *session) error {
		if err := apply(s.store, a, &res); err != nil {
			return err
		}
		res.Session = s.viewLocked()
		return nil
	})
	return res, err
}

// Save persists the session's desk list.  The session lock is released
// while the gateway call runs so the view reports isSaving meanwhile.  A
// session deleted or evicted during the call still reports the outcome of
// the save.
func (c *CanvasSessions) Save(ctx context.Context, id string, exitEdit bool) (SessionView, error) {
	s, err := c.lookup(id)
	if err != nil {
		return SessionView{}, err
	}

	s.mu.Lock()
	s.lastSeen = c.now()
	desks, err := s.store.BeginSave()
	floorID := s.floor.ID
	s.mu.Unlock()
	if err != nil {
		return SessionView{}, err
	}

	saveErr := c.floors.SaveFloorDesks(ctx, floorID, desks)
	if saveErr != nil {
		c.logger.Warn("save floor failed", zap.String("session_id", id), zap.Int64("floor_id", floorID), zap.Error(saveErr))
		saveErr = fmt.Errorf("save floor %d: %w", floorID, saveErr)
	}

	s.mu.Lock()
	s.lastSeen = c.now()
	s.store.FinishSave(saveErr, exitEdit)
	view := s.viewLocked()
	s.mu.Unlock()

	if _, err := c.lookup(id); err != nil {
		c.logger.Info("session closed during save", zap.String("session_id", id), zap.Int64("floor_id", floorID), zap.Bool("saved", saveErr == nil))
	}
	return view, saveErr
}

// Evict drops sessions idle for longer than the TTL and returns how many.
func (c *CanvasSessions) Evict() int {
	cutoff := c.now().Add(-c.idleTTL)
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, s := range c.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(c.sessions, id)
			n++
		}
	}
	return n
}

// RunJanitor evicts idle sessions every half TTL until ctx is done.
func (c *CanvasSessions) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(c.idleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Evict(); n > 0 {
				c.logger.Info("evicted idle canvas sessions", zap.Int("count", n))
			}
		}
	}
}

func (c *CanvasSessions) lookup(id string) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (c *CanvasSessions) with(id string, fn func(*session) error) error {
	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = c.now()
	return fn(s)
}

func apply(st *canvas.Store, a Action, res *ActionResult) error {
	switch a.Type {
	case ActionSelect:
		return st.SelectDesk(a.ID)
	case ActionToggleEditMode:
		st.ToggleEditMode()
		return nil
	case ActionClick:
		id, err := requireID(a)
		if err != nil {
			return err
		}
		res.Prefill, err = st.ClickDesk(id)
		return err
	case ActionMove:
		id, err := requireID(a)
		if err != nil {
			return err
		}
		x, y, err := requirePair(a.X, a.Y, "x", "y")
		if err != nil {
			return err
		}
		return st.MoveDesk(id, x, y)
	case ActionResize:
		id, err := requireID(a)
		if err != nil {
			return err
		}
		w, h, err := requirePair(a.Width, a.Height, "width", "height")
		if err != nil {
			return err
		}
		return st.ResizeDesk(id, w, h)
	case ActionResizeStart:
		id, err := requireID(a)
		if err != nil {
			return err
		}
		x, y, err := requirePair(a.X, a.Y, "x", "y")
		if err != nil {
			return err
		}
		return st.StartResize(id, canvas.Point{X: x, Y: y})
	case ActionResizeUpdate:
		x, y, err := requirePair(a.X, a.Y, "x", "y")
		if err != nil {
			return err
		}
		live, err := st.UpdateResize(canvas.Point{X: x, Y: y})
		if err != nil {
			return err
		}
		res.LiveSize = &live
		return nil
	case ActionResizeEnd:
		size, err := st.EndResize()
		if err != nil {
			return err
		}
		res.LiveSize = &size
		return nil
	case ActionRename:
		id, err := requireID(a)
		if err != nil {
			return err
		}
		return st.RenameDesk(id, a.Label)
	case ActionOpenRename:
		st.OpenRenameDialog(a.Open == nil || *a.Open)
		return nil
	case ActionOpenReserve:
		st.OpenReserveDialog(a.Open == nil || *a.Open)
		return nil
	case ActionReserve:
		id, err := requireID(a)
		if err != nil {
			return err
		}
		if a.Reservation == nil {
			return &canvas.ValidationError{Field: "reservation", Reason: "is required"}
		}
		return st.ReserveDesk(id, *a.Reservation)
	case ActionAdd:
		d, err := st.AddDesk()
		if err != nil {
			return err
		}
		res.Desk = &d
		return nil
	case ActionDelete:
		id, err := requireID(a)
		if err != nil {
			return err
		}
		st.DeleteDesk(id)
		return nil
	default:
		return &canvas.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown action %q", a.Type)}
	}
}

func requireID(a Action) (int64, error) {
	if a.ID == nil {
		return 0, &canvas.ValidationError{Field: "id", Reason: "is required"}
	}
	return *a.ID, nil
}

func requirePair(a, b *float64, nameA, nameB string) (float64, float64, error) {
	if a == nil {
		return 0, 0, &canvas.ValidationError{Field: nameA, Reason: "is required"}
	}
	if b == nil {
		return 0, 0, &canvas.ValidationError{Field: nameB, Reason: "is required"}
	}
	return *a, *b, nil
}
