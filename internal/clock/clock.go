package clock

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so history ordering can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns the wall clock.
func Real() Clock { return realClock{} }

// Monotonic wraps a Clock so that consecutive calls never return the same
// or an earlier instant. Readings are truncated to microseconds, the
// precision PostgreSQL keeps for timestamps, and bumped by one microsecond
// when they would collide with the previous one.
type Monotonic struct {
	mu   sync.Mutex
	base Clock
	last time.Time
}

func NewMonotonic(base Clock) *Monotonic {
	if base == nil {
		base = Real()
	}
	return &Monotonic{base: base}
}

func (m *Monotonic) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.base.Now().UTC().Truncate(time.Microsecond)
	if !now.After(m.last) {
		now = m.last.Add(time.Microsecond)
	}
	m.last = now
	return now
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
