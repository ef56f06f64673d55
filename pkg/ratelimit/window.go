package ratelimit

import (
	"sync"
	"time"
)

// Window is a sliding log of request timestamps over a fixed duration.
// It never sleeps; callers ask it how long to wait.
type Window struct {
	size     time.Duration
	budget   int
	requests []time.Time
	mu       sync.Mutex
}

// NewWindow creates a window admitting budget requests per size
func NewWindow(budget int, size time.Duration) *Window {
	return &Window{
		size:     size,
		budget:   budget,
		requests: make([]time.Time, 0, budget),
	}
}

// Record logs a request issued at now
func (w *Window) Record(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cleanOldRequests(now)
	w.requests = append(w.requests, now)
}

// Count returns the number of requests inside the trailing window
func (w *Window) Count(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cleanOldRequests(now)
	return len(w.requests)
}

// Delay is how long a new request must wait for the window to drop
// below its budget. Zero means the request may go now.
func (w *Window) Delay(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cleanOldRequests(now)
	if w.budget <= 0 || len(w.requests) < w.budget {
		return 0
	}

	// Enough entries must expire to leave budget-1 in the window.
	expires := w.requests[len(w.requests)-w.budget].Add(w.size)
	if d := expires.Sub(now); d > 0 {
		return d
	}
	return 0
}

// BlockWait computes the wait after a block signal. It grows with the
// number of requests crowding the window and never goes below margin
// or above size+margin.
func (w *Window) BlockWait(now time.Time, margin time.Duration) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cleanOldRequests(now)
	if len(w.requests) == 0 || w.budget <= 0 {
		return margin
	}

	fill := float64(len(w.requests)) / float64(w.budget)
	if fill > 1 {
		fill = 1
	}

	untilOldestExpires := w.requests[0].Add(w.size).Sub(now)
	wait := margin + time.Duration(float64(untilOldestExpires)*fill)

	if wait < 0 {
		return 0
	}
	if ceiling := w.size + margin; wait > ceiling {
		return ceiling
	}
	return wait
}

// Reset clears all recorded requests
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.requests = w.requests[:0]
}

// cleanOldRequests drops timestamps at or before now-size
func (w *Window) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-w.size)

	i := 0
	for i < len(w.requests) && !w.requests[i].After(cutoff) {
		i++
	}

	if i > 0 {
		copy(w.requests, w.requests[i:])
		w.requests = w.requests[:len(w.requests)-i]
	}
}
