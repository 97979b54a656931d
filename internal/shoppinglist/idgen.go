package shoppinglist

import (
	"sync"
	"time"
)

// IDGenerator hands out item ids based on the wall clock in milliseconds.
// Ids are strictly increasing even when several items are added within the
// same millisecond or the clock moves backwards.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator creates a generator whose first id is greater than floor
func NewIDGenerator(floor int64) *IDGenerator {
	return &IDGenerator{last: floor, now: time.Now}
}

// Next returns a fresh id
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe raises the floor so later ids stay above id
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id > g.last {
		g.last = id
	}
}
