package control

import (
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/depositwatch/internal/core/config"
	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

func TestMonitor_Wiring(t *testing.T) {
	cfg := config.AppConfig{
		Server: config.ServerConfig{Port: 0},
		Monitor: config.MonitorConfig{
			Enabled:          true,
			FastCadence:      100 * time.Millisecond,
			SlowCadence:      100 * time.Millisecond,
			APICallThreshold: 50,
			FetchTimeout:     time.Second,
		},
		Chains: []config.ChainConfig{
			{
				ID:                    domain.ChainEthereum,
				Model:                 domain.ModelAccount,
				RequiredConfirmations: 12,
				Explorer:              config.ExplorerConfig{Name: "etherscan", URL: "http://localhost:1"},
				Currencies: []config.CurrencyConfig{
					{Symbol: "USDT", Class: domain.ClassMultiSpender, Contract: "0xdac1"},
				},
			},
			{
				ID:                    domain.ChainBitcoin,
				Model:                 domain.ModelUTXO,
				RequiredConfirmations: 6,
				Explorer:              config.ExplorerConfig{Name: "esplora", URL: "http://localhost:1"},
				Currencies: []config.CurrencyConfig{
					{Symbol: "BTC", Class: domain.ClassNative},
				},
			},
		},
	}

	m, err := NewMonitor(cfg)
	if err != nil {
		t.Fatalf("NewMonitor failed: %v", err)
	}

	if !m.sweeper.HasAdapter(domain.ChainEthereum) {
		t.Error("no adapter wired for ethereum")
	}
	if !m.sweeper.HasAdapter(domain.ChainBitcoin) {
		t.Error("no adapter wired for bitcoin")
	}

	// Dry-run the lifecycle. No wallets are registered so sweeps are no-ops.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

type countingAdapter struct {
	chainID domain.ChainID
	fetches int
}

func (a *countingAdapter) ChainID() domain.ChainID { return a.chainID }

func (a *countingAdapter) FetchTransfers(ctx context.Context, address string) ([]domain.ObservedTransfer, error) {
	a.fetches++
	return nil, nil
}

// A chain without an explorer endpoint gets no built-in adapter but is
// exempt from the call budget, so a node-backed adapter registered on the
// sweeper sweeps without throttling.
func TestMonitor_ExplorerFreeChainExemptFromBudget(t *testing.T) {
	cfg := config.AppConfig{
		Monitor: config.MonitorConfig{
			APICallThreshold: 1,
			FetchTimeout:     time.Second,
		},
		Chains: []config.ChainConfig{
			{
				ID:                    domain.ChainLitecoin,
				Model:                 domain.ModelUTXO,
				RequiredConfirmations: 6,
				Currencies: []config.CurrencyConfig{
					{Symbol: "LTC", Class: domain.ClassNative},
				},
			},
		},
	}

	m, err := NewMonitor(cfg)
	if err != nil {
		t.Fatalf("NewMonitor failed: %v", err)
	}
	if m.sweeper.HasAdapter(domain.ChainLitecoin) {
		t.Fatal("adapter registered for chain without explorer endpoint")
	}

	adapter := &countingAdapter{chainID: domain.ChainLitecoin}
	m.sweeper.RegisterAdapter(adapter)

	watched := []domain.WatchedAddress{
		{WalletID: 1, UserID: 1, Chain: domain.ChainLitecoin, Address: "ltc1qa", Currency: "LTC", Class: domain.ClassNative},
		{WalletID: 2, UserID: 2, Chain: domain.ChainLitecoin, Address: "ltc1qb", Currency: "LTC", Class: domain.ClassNative},
		{WalletID: 3, UserID: 3, Chain: domain.ChainLitecoin, Address: "ltc1qc", Currency: "LTC", Class: domain.ClassNative},
	}
	m.sweeper.Sweep(context.Background(), domain.ChainLitecoin, watched)

	// Threshold is 1; all three addresses fetched proves the exemption.
	if adapter.fetches != 3 {
		t.Fatalf("fetches = %d, want 3 for budget-exempt chain", adapter.fetches)
	}
}

func TestMonitor_UnknownChainModelRejected(t *testing.T) {
	cfg := config.AppConfig{
		Monitor: config.MonitorConfig{APICallThreshold: 50, FetchTimeout: time.Second},
		Chains: []config.ChainConfig{
			{
				ID:       domain.ChainID("solana"),
				Model:    domain.ChainModel("parallel"),
				Explorer: config.ExplorerConfig{Name: "x", URL: "http://localhost:1"},
			},
		},
	}

	if _, err := NewMonitor(cfg); err == nil {
		t.Fatal("expected error for chain without an adapter")
	}
}
