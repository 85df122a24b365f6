package mvcc

import (
	"sync"

	"github.com/hupe1980/vecrow/model"
)

// Clock is a lock-protected monotonic logical counter.
//
// Each engine owns its own Clock so that independent instances never share
// timestamp state.
type Clock struct {
	mu  sync.RWMutex
	now model.Timestamp
}

// NewClock returns a clock whose current value is start.
func NewClock(start model.Timestamp) *Clock {
	return &Clock{now: start}
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() model.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now++
	return c.now
}

// Now returns the current value without advancing it.
func (c *Clock) Now() model.Timestamp {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// AdvanceTo moves the clock forward to ts if it is behind.
// It never moves the clock backwards.
func (c *Clock) AdvanceTo(ts model.Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts > c.now {
		c.now = ts
	}
}
