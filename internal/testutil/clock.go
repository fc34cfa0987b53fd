package testutil

import (
	"strconv"
	"sync"
	"time"
)

// FixedClock is a wall clock that only moves when told to.
//
// Runs stamp their merged output with the start time, so a FixedClock
// makes output names and golden files reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock reading t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the current reading without advancing.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new reading.
func (c *FixedClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// RunIDs hands out predetermined run IDs in order.
//
// Thread-safety: safe for concurrent use via internal mutex.
type RunIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewRunIDs creates a generator returning ids in order. Once they are
// used up it returns "run-<n>".
func NewRunIDs(ids ...string) *RunIDs {
	return &RunIDs{ids: ids}
}

// Generate returns the next ID.
func (g *RunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idx++
	if g.idx <= len(g.ids) {
		return g.ids[g.idx-1]
	}
	return "run-" + strconv.Itoa(g.idx)
}
