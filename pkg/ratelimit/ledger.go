package ratelimit

import (
	"sync"
	"time"
)

// BlockLedger accumulates time spent waiting on blocks.
//
// A controller owns its ledger in session scope; in global scope one
// ledger is handed to every controller of the run, so a fresh session
// inherits the wait its predecessors accumulated.
type BlockLedger struct {
	mu    sync.Mutex
	total time.Duration
}

// NewBlockLedger returns an empty ledger
func NewBlockLedger() *BlockLedger {
	return &BlockLedger{}
}

// Charge adds d and reports whether the total reached budget.
// When it did, the ledger is reset to zero before returning.
func (l *BlockLedger) Charge(d, budget time.Duration) (total time.Duration, exceeded bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total += d
	total = l.total
	if budget > 0 && l.total >= budget {
		l.total = 0
		return total, true
	}
	return total, false
}

// Total returns the accumulated wait
func (l *BlockLedger) Total() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Reset zeroes the ledger
func (l *BlockLedger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total = 0
}
