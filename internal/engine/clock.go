package engine

import "sync/atomic"

// Clock is a monotonic logical counter. The engine owns two: one stamps
// event sequence numbers, the other numbers tasks. Neither is ever
// derived from wall-clock time, so a replayed input schedules identically.
//
// Clock is safe for concurrent use, although the engine only ever calls
// it from the goroutine running Initialize or ProcessEvents.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
