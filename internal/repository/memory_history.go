package repository

import (
	"context"
	"sync"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
)

// MemoryHistory is the in-process HistoryLog used when Redis is unavailable.
// Its contents are lost on restart.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []model.HistoryEntry
	seen    map[model.HistoryKey]struct{}
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{seen: map[model.HistoryKey]struct{}{}}
}

func (h *MemoryHistory) Read(ctx context.Context) ([]model.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out, nil
}

func (h *MemoryHistory) Append(ctx context.Context, entries []model.HistoryEntry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	added := 0
	for _, e := range entries {
		k := e.Key()
		if _, dup := h.seen[k]; dup {
			continue
		}
		h.seen[k] = struct{}{}
		h.entries = append(h.entries, e)
		added++
	}
	return added, nil
}

func (h *MemoryHistory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	h.entries = nil
	h.seen = map[model.HistoryKey]struct{}{}
	h.mu.Unlock()
	return nil
}
