package health

import (
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/core/token"
	"github.com/custodia-labs/depositwatch/internal/infra/pending"
	"github.com/custodia-labs/depositwatch/internal/infra/rpc"
	"github.com/custodia-labs/depositwatch/internal/infra/storage/memory"
	"github.com/custodia-labs/depositwatch/internal/monitor/ratelimit"
	"github.com/custodia-labs/depositwatch/internal/monitor/registry"
)

type stubExplorer struct {
	status rpc.HealthStatus
}

func (p *stubExplorer) Health() rpc.HealthStatus { return p.status }

func testMonitor(t *testing.T, cadence time.Duration) *Monitor {
	t.Helper()

	store := memory.NewMemoryStorage()
	wallets := memory.NewWalletRepo(store)
	_ = wallets.Save(context.Background(), &domain.Wallet{
		ID: 1, UserID: 10, Currency: "ETH", Custodial: true,
		Addresses: map[domain.ChainID]string{domain.ChainEthereum: "0xaa"},
	})
	tokens := token.NewStaticRegistry()
	tokens.Register(domain.ChainEthereum, token.Info{
		Symbol: "ETH", Class: domain.ClassNative, NeedsExplorer: true,
	})
	reg := registry.New(wallets, tokens)
	if err := reg.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	return NewMonitor(
		map[domain.ChainID]time.Duration{domain.ChainEthereum: cadence},
		reg,
		pending.NewMemoryStore(),
		ratelimit.NewLimiter(100),
	)
}

func TestMonitor_DegradedBeforeFirstSweep(t *testing.T) {
	m := testMonitor(t, 10*time.Second)

	report := m.CheckHealth(context.Background())
	chain := report.Chains["ethereum"]

	if chain.Status != StatusDegraded {
		t.Errorf("expected degraded before first sweep, got %s", chain.Status)
	}
	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded system status, got %s", report.SystemStatus)
	}
	if chain.WatchedAddresses != 1 {
		t.Errorf("watched addresses = %d, want 1", chain.WatchedAddresses)
	}
}

func TestMonitor_HealthyAfterSweep(t *testing.T) {
	m := testMonitor(t, 10*time.Second)
	m.RecordSweep(domain.ChainEthereum)

	report := m.CheckHealth(context.Background())

	if report.Chains["ethereum"].Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.Chains["ethereum"].Status)
	}
	if report.SystemStatus != StatusHealthy {
		t.Errorf("expected healthy system status, got %s", report.SystemStatus)
	}
}

func TestMonitor_CriticalOnStaleSweep(t *testing.T) {
	m := testMonitor(t, time.Millisecond)
	m.RecordSweep(domain.ChainEthereum)
	time.Sleep(10 * time.Millisecond)

	report := m.CheckHealth(context.Background())

	if report.Chains["ethereum"].Status != StatusCritical {
		t.Errorf("expected critical for stale sweep, got %s", report.Chains["ethereum"].Status)
	}
	if report.SystemStatus != StatusCritical {
		t.Errorf("expected critical system status, got %s", report.SystemStatus)
	}
}

func TestMonitor_ExplorerFailuresDegrade(t *testing.T) {
	m := testMonitor(t, 10*time.Second)
	m.RecordSweep(domain.ChainEthereum)
	m.TrackExplorer(domain.ChainEthereum, &stubExplorer{
		status: rpc.HealthStatus{Available: false, ErrorRate: 0.8},
	})

	report := m.CheckHealth(context.Background())
	chain := report.Chains["ethereum"]

	if chain.Status != StatusDegraded {
		t.Errorf("expected degraded with unavailable explorer, got %s", chain.Status)
	}
	if chain.ExplorerErrorRate != 0.8 {
		t.Errorf("explorer error rate = %v, want 0.8", chain.ExplorerErrorRate)
	}
	if chain.ExplorerAvailable {
		t.Error("explorer reported available despite reported failures")
	}
}

func TestMonitor_HealthyExplorerReported(t *testing.T) {
	m := testMonitor(t, 10*time.Second)
	m.RecordSweep(domain.ChainEthereum)
	m.TrackExplorer(domain.ChainEthereum, &stubExplorer{
		status: rpc.HealthStatus{Available: true, ErrorRate: 0.1},
	})

	report := m.CheckHealth(context.Background())
	chain := report.Chains["ethereum"]

	if chain.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", chain.Status)
	}
	if chain.ExplorerErrorRate != 0.1 {
		t.Errorf("explorer error rate = %v, want 0.1", chain.ExplorerErrorRate)
	}
}
