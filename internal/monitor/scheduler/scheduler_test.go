package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/core/token"
	"github.com/custodia-labs/depositwatch/internal/infra/pending"
	"github.com/custodia-labs/depositwatch/internal/infra/storage/memory"
	"github.com/custodia-labs/depositwatch/internal/monitor/locks"
	"github.com/custodia-labs/depositwatch/internal/monitor/ratelimit"
	"github.com/custodia-labs/depositwatch/internal/monitor/registry"
	"github.com/custodia-labs/depositwatch/internal/monitor/sweep"
)

type recordingAdapter struct {
	chainID domain.ChainID

	mu      sync.Mutex
	fetches int
}

func (a *recordingAdapter) ChainID() domain.ChainID { return a.chainID }

func (a *recordingAdapter) FetchTransfers(ctx context.Context, address string) ([]domain.ObservedTransfer, error) {
	a.mu.Lock()
	a.fetches++
	a.mu.Unlock()
	return nil, nil
}

func (a *recordingAdapter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches
}

type nopGateway struct{}

func (nopGateway) Broadcast(ctx context.Context, event *domain.DepositEvent) error {
	return nil
}

func (nopGateway) NotifyUser(ctx context.Context, userID uint64, title, message, link string) error {
	return nil
}

func (nopGateway) Close() error { return nil }

// buildRegistry produces a registry with a contract-token chain (ethereum)
// and a native-only chain (bitcoin).
func buildRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	store := memory.NewMemoryStorage()
	wallets := memory.NewWalletRepo(store)
	_ = wallets.Save(context.Background(), &domain.Wallet{
		ID: 1, UserID: 10, Currency: "USDT", Custodial: true,
		Addresses: map[domain.ChainID]string{domain.ChainEthereum: "0xaa"},
	})
	_ = wallets.Save(context.Background(), &domain.Wallet{
		ID: 2, UserID: 20, Currency: "BTC", Custodial: true,
		Addresses: map[domain.ChainID]string{domain.ChainBitcoin: "bc1qaa"},
	})

	tokens := token.NewStaticRegistry()
	tokens.Register(domain.ChainEthereum, token.Info{
		Symbol: "USDT", Class: domain.ClassMultiSpender, Contract: "0xdac1", NeedsExplorer: true,
	})
	tokens.Register(domain.ChainBitcoin, token.Info{
		Symbol: "BTC", Class: domain.ClassNative, NeedsExplorer: true,
	})

	reg := registry.New(wallets, tokens)
	if err := reg.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	return reg
}

func newSweeper(limiter *ratelimit.Limiter, adapters ...*recordingAdapter) *sweep.Sweeper {
	store := memory.NewMemoryStorage()
	s := sweep.New(
		sweep.Config{FetchTimeout: time.Second, OpTimeout: time.Second},
		memory.NewLedgerRepo(store),
		pending.NewMemoryStore(),
		nopGateway{},
		locks.NewManager(),
		limiter,
	)
	for _, a := range adapters {
		s.RegisterAdapter(a)
	}
	return s
}

func TestRunCycle_PartitionsByContractClass(t *testing.T) {
	reg := buildRegistry(t)
	limiter := ratelimit.NewLimiter(100)
	eth := &recordingAdapter{chainID: domain.ChainEthereum}
	btc := &recordingAdapter{chainID: domain.ChainBitcoin}
	s := New(time.Hour, time.Hour, reg, newSweeper(limiter, eth, btc), limiter)

	s.runCycle(context.Background(), "fast", reg.HasContractTokens)

	if eth.count() != 1 {
		t.Fatalf("ethereum fetches = %d, want 1 in fast cycle", eth.count())
	}
	if btc.count() != 0 {
		t.Fatalf("bitcoin fetches = %d, want 0 in fast cycle", btc.count())
	}

	s.runCycle(context.Background(), "slow", func(c domain.ChainID) bool {
		return !reg.HasContractTokens(c)
	})

	if btc.count() != 1 {
		t.Fatalf("bitcoin fetches = %d, want 1 after slow cycle", btc.count())
	}
	if eth.count() != 1 {
		t.Fatalf("ethereum fetches = %d, want still 1 after slow cycle", eth.count())
	}
}

func TestRunCycle_ResetsBudgetPerCycle(t *testing.T) {
	reg := buildRegistry(t)
	limiter := ratelimit.NewLimiter(1)
	eth := &recordingAdapter{chainID: domain.ChainEthereum}
	s := New(time.Hour, time.Hour, reg, newSweeper(limiter, eth), limiter)

	// Each cycle gets a fresh budget of one call; three cycles, three calls.
	for i := 0; i < 3; i++ {
		s.runCycle(context.Background(), "fast", reg.HasContractTokens)
	}

	if eth.count() != 3 {
		t.Fatalf("fetches = %d, want 3 (budget resets each cycle)", eth.count())
	}
}

func TestRunCycle_MissingAdapterSkipped(t *testing.T) {
	reg := buildRegistry(t)
	limiter := ratelimit.NewLimiter(100)
	eth := &recordingAdapter{chainID: domain.ChainEthereum}
	// bitcoin is watched but has no adapter registered
	s := New(time.Hour, time.Hour, reg, newSweeper(limiter, eth), limiter)

	s.runCycle(context.Background(), "slow", func(c domain.ChainID) bool {
		return !reg.HasContractTokens(c)
	})
	s.runCycle(context.Background(), "fast", reg.HasContractTokens)

	if eth.count() != 1 {
		t.Fatalf("ethereum fetches = %d, want 1", eth.count())
	}
}

func TestScheduler_StartStop(t *testing.T) {
	reg := buildRegistry(t)
	limiter := ratelimit.NewLimiter(100)
	eth := &recordingAdapter{chainID: domain.ChainEthereum}
	btc := &recordingAdapter{chainID: domain.ChainBitcoin}
	s := New(10*time.Millisecond, 10*time.Millisecond, reg, newSweeper(limiter, eth, btc), limiter)

	s.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	ethAfter, btcAfter := eth.count(), btc.count()
	if ethAfter < 2 || btcAfter < 2 {
		t.Fatalf("fetches after run: eth=%d btc=%d, want several on both cadences", ethAfter, btcAfter)
	}

	// No further sweeps after Stop returns.
	time.Sleep(30 * time.Millisecond)
	if eth.count() != ethAfter || btc.count() != btcAfter {
		t.Fatal("sweeps continued after Stop")
	}
}

func TestScheduler_ContextCancelStopsLoops(t *testing.T) {
	reg := buildRegistry(t)
	limiter := ratelimit.NewLimiter(100)
	eth := &recordingAdapter{chainID: domain.ChainEthereum}
	s := New(5*time.Millisecond, time.Hour, reg, newSweeper(limiter, eth), limiter)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loops did not exit on context cancel")
	}
}
