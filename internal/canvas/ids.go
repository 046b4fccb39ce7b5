package canvas

import (
	"sync"
	"time"
)

// IDGenerator hands out desk ids derived from the wall clock in milliseconds
// but strictly increasing, so rapid successive adds never collide.  One
// generator is shared by every canvas in the process.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator reading the given clock.  A nil clock
// means time.Now.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a fresh id greater than every id handed out before and
// greater than floor (the largest id already present in a desk list).
func (g *IDGenerator) Next(floor int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	if id <= floor {
		id = floor + 1
	}
	g.last = id
	return id
}
