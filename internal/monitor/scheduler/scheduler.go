// Package scheduler drives the sweep cadences. Chains carrying smart-contract
// tokens poll on the fast cadence, everything else on the slow cadence. Each
// cadence group runs on its own ticker and sweeps its chains sequentially, so
// rate-limit accounting stays simple and no two sweeps of the same chain
// overlap.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/monitor/ratelimit"
	"github.com/custodia-labs/depositwatch/internal/monitor/registry"
	"github.com/custodia-labs/depositwatch/internal/monitor/sweep"
)

// Scheduler owns the two cadence loops.
type Scheduler struct {
	fastCadence time.Duration
	slowCadence time.Duration
	registry    *registry.Registry
	sweeper     *sweep.Sweeper
	limiter     *ratelimit.Limiter
	log         *slog.Logger

	stopFast chan struct{}
	stopSlow chan struct{}
	wg       sync.WaitGroup
	started  bool
}

// New creates a scheduler over an already-built registry.
func New(
	fastCadence, slowCadence time.Duration,
	reg *registry.Registry,
	sweeper *sweep.Sweeper,
	limiter *ratelimit.Limiter,
) *Scheduler {
	return &Scheduler{
		fastCadence: fastCadence,
		slowCadence: slowCadence,
		registry:    reg,
		sweeper:     sweeper,
		limiter:     limiter,
		log:         slog.Default(),
		stopFast:    make(chan struct{}),
		stopSlow:    make(chan struct{}),
	}
}

// Start launches both cadence loops. Each loop runs an immediate first cycle
// so deposits are picked up without waiting out a full cadence.
func (s *Scheduler) Start(ctx context.Context) {
	if s.started {
		return
	}
	s.started = true

	s.log.Info("Scheduler starting",
		"fast_cadence", s.fastCadence, "slow_cadence", s.slowCadence)

	s.wg.Add(2)
	go s.runGroup(ctx, "fast", s.fastCadence, s.stopFast, func(c domain.ChainID) bool {
		return s.registry.HasContractTokens(c)
	})
	go s.runGroup(ctx, "slow", s.slowCadence, s.stopSlow, func(c domain.ChainID) bool {
		return !s.registry.HasContractTokens(c)
	})
}

// Stop halts both loops. Returns after any in-flight sweep has finished.
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}
	close(s.stopFast)
	close(s.stopSlow)
	s.wg.Wait()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) runGroup(
	ctx context.Context,
	name string,
	cadence time.Duration,
	stop <-chan struct{},
	inGroup func(domain.ChainID) bool,
) {
	defer s.wg.Done()

	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	s.runCycle(ctx, name, inGroup)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx, name, inGroup)
		}
	}
}

// runCycle sweeps every chain of a cadence group once. The group's API call
// budget resets at the top of the cycle; the other group's counters are left
// alone so a fast tick cannot refill a slow chain's budget mid-cycle.
func (s *Scheduler) runCycle(ctx context.Context, name string, inGroup func(domain.ChainID) bool) {
	var group []domain.ChainID
	for _, chainID := range s.registry.Chains() {
		if inGroup(chainID) {
			group = append(group, chainID)
		}
	}
	if len(group) == 0 {
		return
	}
	s.limiter.ResetChains(group)

	for _, chainID := range group {
		if ctx.Err() != nil {
			return
		}
		if !s.sweeper.HasAdapter(chainID) {
			s.log.Warn("No adapter for watched chain, skipping",
				"cadence", name, "chain", chainID)
			continue
		}
		watched := s.registry.Watched(chainID)
		if len(watched) == 0 {
			continue
		}
		s.sweeper.Sweep(ctx, chainID, watched)
	}
}
