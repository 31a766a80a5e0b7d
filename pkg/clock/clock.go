// Package clock supplies the current time to time-dependent memory operations.
//
// Production code uses System. Tests and time-travel scenarios use a Mock,
// which only moves when told to.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by the wall clock.
func System() Clock {
	return systemClock{}
}

// Mock is a manually driven Clock. It is safe for concurrent use.
//
// Example:
//
//	c := clock.NewMock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
//	c.Advance(time.Hour)
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMock creates a Mock frozen at t.
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

// Now returns the mocked time.
func (m *Mock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set moves the clock to t. Moving backwards is allowed.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (m *Mock) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}

// Resolve returns *override when set, otherwise c.Now().
// A nil Clock falls back to the wall clock.
func Resolve(c Clock, override *time.Time) time.Time {
	if override != nil {
		return *override
	}
	if c == nil {
		return time.Now()
	}
	return c.Now()
}
