// Package ratelimit gates external explorer calls to a per-chain budget per
// scheduler cycle.
package ratelimit

import (
	"sync"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

// Limiter tracks explorer API usage per chain. Counters are reset at the
// start of every cycle for the chains in that cycle's cadence group, so the
// threshold is a per-cycle budget, never a lifetime cap.
type Limiter struct {
	mu        sync.Mutex
	threshold int
	usage     map[domain.ChainID]int
	exempt    map[domain.ChainID]bool
}

// NewLimiter creates a limiter with the given per-cycle threshold.
func NewLimiter(threshold int) *Limiter {
	return &Limiter{
		threshold: threshold,
		usage:     make(map[domain.ChainID]int),
		exempt:    make(map[domain.ChainID]bool),
	}
}

// Exempt marks a chain as having no external explorer dependency; Allow
// always passes for it and never counts.
func (l *Limiter) Exempt(chain domain.ChainID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exempt[chain] = true
}

// Allow reports whether another explorer call fits the chain's budget this
// cycle, and counts the call when it does.
func (l *Limiter) Allow(chain domain.ChainID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.exempt[chain] {
		return true
	}
	if l.usage[chain] >= l.threshold {
		return false
	}
	l.usage[chain]++
	return true
}

// Usage returns the number of calls counted for chain this cycle.
func (l *Limiter) Usage(chain domain.ChainID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usage[chain]
}

// ResetChains clears the counters for one cadence group at the start of its
// cycle. Chains in the other group keep their in-cycle counts.
func (l *Limiter) ResetChains(chains []domain.ChainID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, chain := range chains {
		delete(l.usage, chain)
	}
}

// Reset clears all counters.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.usage = make(map[domain.ChainID]int)
}
