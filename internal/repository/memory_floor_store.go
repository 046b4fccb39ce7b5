package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

// DefaultFloors returns the two floors a fresh installation starts with.
func DefaultFloors() []model.Floor {
	return []model.Floor{
		{ID: 1, Name: "Main Floor", ImageURL: "/floor-1.png", Desks: []model.Desk{}},
		{ID: 2, Name: "Second Floor", ImageURL: "/floor-2.png", Desks: []model.Desk{}},
	}
}

// MemoryFloorStore is an in-process FloorGateway used when no database is
// configured and in tests.  Every read and write copies the desk list so
// callers never share memory with the store.
type MemoryFloorStore struct {
	mu     sync.RWMutex
	floors map[int64]model.Floor
}

// NewMemoryFloorStore returns a store holding the given floors, or
// DefaultFloors when none are passed.
func NewMemoryFloorStore(floors ...model.Floor) *MemoryFloorStore {
	if len(floors) == 0 {
		floors = DefaultFloors()
	}
	s := &MemoryFloorStore{floors: make(map[int64]model.Floor, len(floors))}
	for _, f := range floors {
		f.Desks = model.CloneDesks(f.Desks)
		s.floors[f.ID] = f
	}
	return s
}

func (s *MemoryFloorStore) ListFloors(ctx context.Context) ([]model.FloorSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FloorSummary, 0, len(s.floors))
	for _, f := range s.floors {
		out = append(out, f.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryFloorStore) GetFloor(ctx context.Context, id int64) (model.Floor, error) {
	if err := ctx.Err(); err != nil {
		return model.Floor{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.floors[id]
	if !ok {
		return model.Floor{}, ErrFloorNotFound
	}
	f.Desks = model.CloneDesks(f.Desks)
	return f, nil
}

func (s *MemoryFloorStore) SaveFloorDesks(ctx context.Context, id int64, desks []model.Desk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.floors[id]
	if !ok {
		return ErrFloorNotFound
	}
	f.Desks = model.CloneDesks(desks)
	s.floors[id] = f
	return nil
}
