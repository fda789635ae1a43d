// Package ratelimit provides the fixed-window counter that gates expense
// submissions.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultWindow = 60 * time.Second
	DefaultLimit  = 5
)

// FixedWindow counts attempts in fixed windows that start at the first
// attempt after the previous window elapsed. It is approximate: a burst of
// up to 2*Limit can pass around a window boundary.
type FixedWindow struct {
	Window time.Duration
	Limit  int

	mu          sync.Mutex
	count       int
	windowStart time.Time
}

func NewFixedWindow(window time.Duration, limit int) *FixedWindow {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &FixedWindow{Window: window, Limit: limit}
}

// Attempt reports whether a submission at now may proceed. It rolls the
// window over but does not consume a slot; call Commit once the submission
// succeeded.
func (l *FixedWindow) Attempt(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(now)
	return l.count < l.Limit
}

// Commit consumes one slot in the current window.
func (l *FixedWindow) Commit() {
	l.mu.Lock()
	l.count++
	l.mu.Unlock()
}

// Allow checks and consumes a slot in one step.
func (l *FixedWindow) Allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(now)
	if l.count >= l.Limit {
		return false
	}
	l.count++
	return true
}

// Remaining is the number of slots left in the current window.
func (l *FixedWindow) Remaining(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(now)
	return l.Limit - l.count
}

func (l *FixedWindow) roll(now time.Time) {
	if now.Sub(l.windowStart) > l.Window {
		l.count = 0
		l.windowStart = now
	}
}
