// Package sweeper periodically clears expired desk reservations and archives
// them in the history log.
//
// One sweep reads the history, lists the floors and, floor by floor, removes
// every reservation whose end time has passed.  Each removed booking is
// archived once per (desk label, reserved until) pair; a floor is written back
// only when something changed.  New history entries are appended once at the
// end of the sweep.  A floor that cannot be read or saved is logged and
// skipped; its reservations are picked up again on the next tick.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
	"github.com/iliyamo/desk-reservation-planner/internal/queue"
	"github.com/iliyamo/desk-reservation-planner/internal/repository"
)

// DefaultInterval is the time between two sweeps.
const DefaultInterval = 60 * time.Second

// ErrAlreadyRunning is returned by Start when the loop is already active.
var ErrAlreadyRunning = errors.New("sweeper already running")

// ExpiredPublisher receives one event per newly archived reservation.
type ExpiredPublisher interface {
	PublishReservationExpired(ctx context.Context, ev queue.ReservationExpiredEvent) error
}

// Report summarises one sweep.
type Report struct {
	StartedAt     time.Time `json:"startedAt"`
	FloorsScanned int       `json:"floorsScanned"`
	FloorsSaved   int       `json:"floorsSaved"`
	FloorsFailed  int       `json:"floorsFailed"`
	Expired       int       `json:"expired"`
	Archived      int       `json:"archived"`
}

// Sweeper owns the periodic expiry loop.
type Sweeper struct {
	floors    repository.FloorGateway
	history   repository.HistoryLog
	interval  time.Duration
	now       func() time.Time
	loc       *time.Location
	logger    *zap.Logger
	publisher ExpiredPublisher

	sweepMu sync.Mutex // one sweep at a time, ticker or manual

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option customises a Sweeper.
type Option func(*Sweeper)

// WithInterval overrides DefaultInterval.  Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone for reservation timestamps without an offset.
func WithLocation(loc *time.Location) Option {
	return func(s *Sweeper) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger; nil keeps the no-op default.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPublisher emits a reservation.expired event for every archived entry.
func WithPublisher(p ExpiredPublisher) Option {
	return func(s *Sweeper) { s.publisher = p }
}

// New returns a stopped sweeper.
func New(floors repository.FloorGateway, history repository.HistoryLog, opts ...Option) *Sweeper {
	s := &Sweeper{
		floors:   floors,
		history:  history,
		interval: DefaultInterval,
		now:      time.Now,
		loc:      time.Local,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("sweeper")
	return s
}

// Interval returns the configured tick interval.
func (s *Sweeper) Interval() time.Duration { return s.interval }

// Sweep runs one expiry pass.  It fails as a whole only when the history or
// the floor list cannot be read, or when the final history append fails.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	now := s.now()
	rep := Report{StartedAt: now}

	existing, err := s.history.Read(ctx)
	if err != nil {
		return rep, fmt.Errorf("read history: %w", err)
	}
	seen := make(map[model.HistoryKey]struct{}, len(existing))
	for _, e := range existing {
		seen[e.Key()] = struct{}{}
	}

	floors, err := s.floors.ListFloors(ctx)
	if err != nil {
		return rep, fmt.Errorf("list floors: %w", err)
	}

	var fresh []model.HistoryEntry
	for _, summary := range floors {
		if ctx.Err() != nil {
			break
		}
		rep.FloorsScanned++
		entries, expired, err := s.sweepFloor(ctx, summary.ID, now, seen)
		if err != nil {
			rep.FloorsFailed++
			s.logger.Error("sweep floor failed", zap.Int64("floor_id", summary.ID), zap.Error(err))
			continue
		}
		if expired == 0 {
			continue
		}
		rep.FloorsSaved++
		rep.Expired += expired
		for _, e := range entries {
			seen[e.Key()] = struct{}{}
		}
		fresh = append(fresh, entries...)
	}

	if len(fresh) > 0 {
		// floors are already saved; the archive write outlives cancellation
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		added, err := s.history.Append(actx, fresh)
		cancel()
		if err != nil {
			return rep, fmt.Errorf("append history: %w", err)
		}
		rep.Archived = added
		s.publish(ctx, fresh, now)
	}
	return rep, ctx.Err()
}

// sweepFloor clears the expired reservations of one floor and saves it when
// anything changed.  It returns the history entries not yet in seen and the
// number of cleared reservations.
func (s *Sweeper) sweepFloor(ctx context.Context, floorID int64, now time.Time, seen map[model.HistoryKey]struct{}) ([]model.HistoryEntry, int, error) {
	floor, err := s.floors.GetFloor(ctx, floorID)
	if err != nil {
		return nil, 0, err
	}

	var (
		entries []model.HistoryEntry
		expired int
		local   = map[model.HistoryKey]struct{}{}
	)
	desks := model.CloneDesks(floor.Desks)
	for i := range desks {
		r := desks[i].Reservation
		if r == nil || !s.isExpired(floor, desks[i], now) {
			continue
		}
		entry := model.HistoryEntry{FloorName: floor.Name, DeskLabel: desks[i].Label, Reservation: *r}
		k := entry.Key()
		_, archived := seen[k]
		_, pending := local[k]
		if !archived && !pending {
			local[k] = struct{}{}
			entries = append(entries, entry)
		}
		desks[i].Reservation = nil
		expired++
	}
	if expired == 0 {
		return nil, 0, nil
	}
	if err := s.floors.SaveFloorDesks(ctx, floorID, desks); err != nil {
		return nil, 0, fmt.Errorf("save floor: %w", err)
	}
	s.logger.Info("cleared expired reservations",
		zap.Int64("floor_id", floorID),
		zap.String("floor", floor.Name),
		zap.Int("expired", expired),
	)
	return entries, expired, nil
}

// isExpired reports whether the desk's booking ended strictly before now.
// A missing or unparseable end time is never expired.
func (s *Sweeper) isExpired(floor model.Floor, d model.Desk, now time.Time) bool {
	if d.Reservation.ReservedUntil == "" {
		return false
	}
	until, err := model.ParseTimestamp(d.Reservation.ReservedUntil, s.loc)
	if err != nil {
		s.logger.Warn("skipping reservation with unparseable end time",
			zap.String("floor", floor.Name),
			zap.Int64("desk_id", d.ID),
			zap.String("reserved_until", d.Reservation.ReservedUntil),
		)
		return false
	}
	return until.Before(now)
}

func (s *Sweeper) publish(ctx context.Context, entries []model.HistoryEntry, now time.Time) {
	if s.publisher == nil {
		return
	}
	expiredAt := now.UTC().Format(time.RFC3339)
	for _, e := range entries {
		ev := queue.ReservationExpiredEvent{
			FloorName:     e.FloorName,
			DeskLabel:     e.DeskLabel,
			GuestName:     e.Reservation.Name,
			Phone:         e.Reservation.Phone,
			Persons:       e.Reservation.Persons,
			ReservedAt:    e.Reservation.ReservedAt,
			ReservedUntil: e.Reservation.ReservedUntil,
			ExpiredAt:     expiredAt,
		}
		if err := s.publisher.PublishReservationExpired(ctx, ev); err != nil {
			s.logger.Warn("publish reservation.expired failed", zap.String("desk", e.DeskLabel), zap.Error(err))
		}
	}
}

// Start launches the ticker loop.  The first sweep runs one interval after
// Start.  The loop ends when ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	s.logger.Info("sweeper started", zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep to return.  It is
// safe to call on a stopped sweeper.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("sweeper stopped")
}

// Running reports whether the ticker loop is active.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep panicked", zap.Any("panic", r))
		}
	}()
	rep, err := s.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("sweep failed", zap.Error(err))
		}
		return
	}
	if rep.Expired > 0 || rep.FloorsFailed > 0 {
		s.logger.Info("sweep finished",
			zap.Int("floors", rep.FloorsScanned),
			zap.Int("expired", rep.Expired),
			zap.Int("archived", rep.Archived),
			zap.Int("failed", rep.FloorsFailed),
		)
	}
}
