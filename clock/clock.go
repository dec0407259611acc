// Package clock provides the ledger time source that drives vesting.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock returns the current ledger time in seconds.
type Clock interface {
	Now() int64
}

// System reads wall-clock Unix seconds.
type System struct{}

// Now implements Clock.
func (System) Now() int64 { return time.Now().Unix() }

// Manual is a settable clock for tests and scenario replay.
type Manual struct {
	now atomic.Int64
}

// NewManual returns a Manual clock set to start.
func NewManual(start int64) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

// Now implements Clock.
func (m *Manual) Now() int64 { return m.now.Load() }

// Set moves the clock to t. Ledger time may be set backwards; vesting
// clamps negative segments to zero.
func (m *Manual) Set(t int64) { m.now.Store(t) }

// Advance moves the clock forward by d seconds and returns the new time.
func (m *Manual) Advance(d int64) int64 { return m.now.Add(d) }
