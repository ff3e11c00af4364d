package health

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/infra/pending"
	"github.com/custodia-labs/depositwatch/internal/infra/rpc"
	"github.com/custodia-labs/depositwatch/internal/monitor/ratelimit"
	"github.com/custodia-labs/depositwatch/internal/monitor/registry"
)

// ExplorerStatus exposes an explorer client's call accounting.
type ExplorerStatus interface {
	Health() rpc.HealthStatus
}

// Monitor aggregates health status from the sweep pipeline's components.
// Sweep recency is fed in through RecordSweep, explorer accounting through
// TrackExplorer.
type Monitor struct {
	cadences  map[domain.ChainID]time.Duration
	registry  *registry.Registry
	pending   pending.Store
	limiter   *ratelimit.Limiter
	explorers map[domain.ChainID]ExplorerStatus

	mu         sync.RWMutex
	lastSweep  map[domain.ChainID]time.Time
	lastCheck  time.Time
	lastReport HealthReport
}

// NewMonitor creates a health monitor. cadences maps each chain to its
// expected sweep cadence, used to judge staleness.
func NewMonitor(
	cadences map[domain.ChainID]time.Duration,
	reg *registry.Registry,
	pendingStore pending.Store,
	limiter *ratelimit.Limiter,
) *Monitor {
	return &Monitor{
		cadences:  cadences,
		registry:  reg,
		pending:   pendingStore,
		limiter:   limiter,
		explorers: make(map[domain.ChainID]ExplorerStatus),
		lastSweep: make(map[domain.ChainID]time.Time),
	}
}

// RecordSweep marks a chain as swept now. Wired as the sweeper's post-sweep hook.
func (m *Monitor) RecordSweep(chain domain.ChainID) {
	m.mu.Lock()
	m.lastSweep[chain] = time.Now()
	m.mu.Unlock()
}

// TrackExplorer registers a chain's explorer client for error-rate reporting.
func (m *Monitor) TrackExplorer(chain domain.ChainID, status ExplorerStatus) {
	m.mu.Lock()
	m.explorers[chain] = status
	m.mu.Unlock()
}

// CheckHealth builds the full pipeline report. The worst chain status wins
// the system status.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks (max once per 10s) to avoid hammering the pending store
	if time.Since(m.lastCheck) < 10*time.Second && len(m.lastReport.Chains) > 0 {
		return m.lastReport
	}

	pendingDepth := 0
	if keys, err := m.pending.Keys(ctx, "*"); err == nil {
		pendingDepth = len(keys)
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Chains:       make(map[string]ChainHealth),
	}
	for chain, cadence := range m.cadences {
		health := ChainHealth{
			ChainID:           string(chain),
			Status:            StatusHealthy,
			WatchedAddresses:  len(m.registry.Watched(chain)),
			PendingDeposits:   pendingDepth,
			BudgetUsed:        m.limiter.Usage(chain),
			ExplorerAvailable: true,
		}

		last, swept := m.lastSweep[chain]
		if !swept {
			// Not swept since startup; degraded until the first cycle lands.
			health.Status = StatusDegraded
		} else {
			age := time.Since(last)
			health.SweepAgeSeconds = age.Seconds()
			if age > 5*cadence {
				health.Status = StatusCritical
			} else if age > 2*cadence {
				health.Status = StatusDegraded
			}
		}

		if source, ok := m.explorers[chain]; ok {
			explorer := source.Health()
			health.ExplorerErrorRate = explorer.ErrorRate
			health.ExplorerAvailable = explorer.Available
			if !explorer.Available && health.Status == StatusHealthy {
				health.Status = StatusDegraded
			}
		}

		if health.Status == StatusHealthy && pendingDepth > 100 {
			health.Status = StatusDegraded
		}

		report.Chains[string(chain)] = health
		report.SystemStatus = worse(report.SystemStatus, health.Status)
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

func worse(a, b SystemStatus) SystemStatus {
	if a == StatusCritical || b == StatusCritical {
		return StatusCritical
	}
	if a == StatusDegraded || b == StatusDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
