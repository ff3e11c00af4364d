// Package sweep fetches, matches and credits inbound transfers for one
// chain's watched addresses. A sweep never aborts on a per-address failure
// and never retries within itself: transfers that cannot be credited
// immediately fall back to the pending store for the verification worker.
package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/infra/chain"
	"github.com/custodia-labs/depositwatch/internal/infra/notify"
	"github.com/custodia-labs/depositwatch/internal/infra/pending"
	"github.com/custodia-labs/depositwatch/internal/infra/storage"
	"github.com/custodia-labs/depositwatch/internal/monitor/locks"
	"github.com/custodia-labs/depositwatch/internal/monitor/metrics"
	"github.com/custodia-labs/depositwatch/internal/monitor/ratelimit"
)

// Config holds sweeper timeouts. Each external call is bounded individually
// so a hung collaborator degrades one address, not the whole sweep.
type Config struct {
	FetchTimeout time.Duration
	OpTimeout    time.Duration
}

// Sweeper runs per-chain sweeps against the registered fetch adapters.
type Sweeper struct {
	cfg      Config
	adapters map[domain.ChainID]chain.FetchAdapter
	ledger   storage.LedgerRepository
	pending  pending.Store
	gateway  notify.Gateway
	locks    *locks.Manager
	limiter  *ratelimit.Limiter
	log      *slog.Logger

	// onSweep is invoked after every completed sweep, used by the health
	// monitor to track sweep recency.
	onSweep func(domain.ChainID)
}

// New creates a sweeper. Adapters are registered separately so chains can be
// added without touching scheduling logic.
func New(
	cfg Config,
	ledger storage.LedgerRepository,
	pendingStore pending.Store,
	gateway notify.Gateway,
	lockMgr *locks.Manager,
	limiter *ratelimit.Limiter,
) *Sweeper {
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.OpTimeout == 0 {
		cfg.OpTimeout = 10 * time.Second
	}
	return &Sweeper{
		cfg:      cfg,
		adapters: make(map[domain.ChainID]chain.FetchAdapter),
		ledger:   ledger,
		pending:  pendingStore,
		gateway:  gateway,
		locks:    lockMgr,
		limiter:  limiter,
		log:      slog.Default(),
	}
}

// RegisterAdapter registers the fetch adapter for its chain.
func (s *Sweeper) RegisterAdapter(a chain.FetchAdapter) {
	s.adapters[a.ChainID()] = a
}

// HasAdapter reports whether a chain has a registered adapter.
func (s *Sweeper) HasAdapter(chainID domain.ChainID) bool {
	_, ok := s.adapters[chainID]
	return ok
}

// SetSweepHook sets the post-sweep callback.
func (s *Sweeper) SetSweepHook(hook func(domain.ChainID)) {
	s.onSweep = hook
}

// Sweep runs one pass over a chain's watched addresses, in registry order.
func (s *Sweeper) Sweep(ctx context.Context, chainID domain.ChainID, watched []domain.WatchedAddress) {
	adapter, ok := s.adapters[chainID]
	if !ok {
		s.log.Warn("No fetch adapter registered, skipping chain", "chain", chainID)
		return
	}

	for _, addr := range watched {
		if ctx.Err() != nil {
			return
		}

		if !s.limiter.Allow(chainID) {
			s.log.Warn("API call budget exhausted, skipping rest of chain",
				"chain", chainID, "used", s.limiter.Usage(chainID))
			metrics.RateLimitSkips.WithLabelValues(string(chainID)).Inc()
			break
		}
		metrics.APICallsTotal.WithLabelValues(string(chainID)).Inc()

		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		transfers, err := adapter.FetchTransfers(fetchCtx, addr.Address)
		cancel()
		if err != nil {
			s.log.Error("Fetch failed, skipping address this cycle",
				"chain", chainID, "address", addr.Address, "error", err)
			metrics.FetchErrorsTotal.WithLabelValues(string(chainID)).Inc()
			continue
		}

		for _, transfer := range transfers {
			if transfer.Status == domain.TransferPending && transfer.PaysTo(addr.Address) {
				s.announcePending(ctx, addr, transfer)
			}
		}

		matched := Match(addr, transfers)
		if len(matched) == 0 {
			continue
		}
		metrics.TransfersMatched.WithLabelValues(string(chainID)).Add(float64(len(matched)))

		s.processAddress(ctx, addr, matched)
	}

	metrics.SweepsTotal.WithLabelValues(string(chainID)).Inc()
	if s.onSweep != nil {
		s.onSweep(chainID)
	}
}

// Match filters transfers destined for the watched address in a confirmed
// state. Address comparison is case-insensitive, and a batched transfer with
// several recipients matches through any of them.
func Match(addr domain.WatchedAddress, transfers []domain.ObservedTransfer) []domain.ObservedTransfer {
	var matched []domain.ObservedTransfer
	for _, t := range transfers {
		if t.Status != domain.TransferConfirmed {
			continue
		}
		if !t.PaysTo(addr.Address) {
			continue
		}
		matched = append(matched, t)
	}
	return matched
}

// processAddress credits the matched transfers for one address. Single
// spender addresses take the address lock for the duration of the credit
// attempts; a held lock skips the address until next cycle.
func (s *Sweeper) processAddress(
	ctx context.Context,
	addr domain.WatchedAddress,
	matched []domain.ObservedTransfer,
) {
	if addr.Class == domain.ClassSingleSpender {
		if err := s.locks.Lock(addr.Address); err != nil {
			if errors.Is(err, locks.ErrAlreadyLocked) {
				s.log.Debug("Address locked, retrying next cycle",
					"chain", addr.Chain, "address", addr.Address)
				metrics.LockSkips.WithLabelValues(string(addr.Chain)).Inc()
				return
			}
			s.log.Error("Lock acquisition failed", "address", addr.Address, "error", err)
			return
		}
		defer s.locks.Unlock(addr.Address)
	}

	for _, transfer := range matched {
		s.processTransfer(ctx, addr, transfer)
	}
}

// processTransfer attempts one immediate, idempotent credit. Failure
// enqueues the raw transfer for the verification worker; it is a fallback,
// not a retry loop.
func (s *Sweeper) processTransfer(
	ctx context.Context,
	addr domain.WatchedAddress,
	transfer domain.ObservedTransfer,
) {
	credit := &domain.DepositCredit{
		Chain:    addr.Chain,
		TxHash:   transfer.Hash,
		WalletID: addr.WalletID,
		Currency: addr.Currency,
		Amount:   numericOrZero(transfer.Amount),
		Fee:      numericOrZero(transfer.Fee),
	}

	creditCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	result, err := s.ledger.Credit(creditCtx, credit)
	cancel()

	if err != nil {
		s.log.Warn("Credit failed, enqueueing for verification",
			"chain", addr.Chain, "tx", transfer.Hash, "error", err)
		s.enqueuePending(ctx, addr.Chain, transfer)
		return
	}

	if !result.Credited {
		// Already credited by an earlier sweep or the verification
		// worker. At-least-once observation makes this path routine.
		s.log.Debug("Duplicate observation, ledger already credited",
			"chain", addr.Chain, "tx", transfer.Hash)
		metrics.DuplicateCredits.WithLabelValues(string(addr.Chain)).Inc()
		return
	}

	metrics.CreditsTotal.WithLabelValues(string(addr.Chain), addr.Currency).Inc()
	s.log.Info("Deposit credited",
		"chain", addr.Chain, "tx", transfer.Hash,
		"wallet", addr.WalletID, "amount", transfer.Amount, "currency", addr.Currency)

	s.announce(ctx, addr, transfer)
}

// numericOrZero keeps ledger numerics valid when an explorer omits a field.
// Some explorers report token transfers without gas data; the ledger columns
// reject an empty string.
func numericOrZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}

func (s *Sweeper) enqueuePending(
	ctx context.Context,
	chainID domain.ChainID,
	transfer domain.ObservedTransfer,
) {
	putCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()
	if err := s.pending.Put(putCtx, transfer.Hash, &transfer); err != nil {
		// The transfer will be observed again next sweep; losing the
		// enqueue costs latency, not correctness.
		s.log.Error("Pending store put failed", "tx", transfer.Hash, "error", err)
		return
	}
	metrics.PendingEnqueued.WithLabelValues(string(chainID)).Inc()
}

// announcePending broadcasts a heads-up for an inbound transfer that has not
// reached its confirmation threshold yet. Re-sent on every observation until
// the transfer confirms; the channel is a transient progress feed, nothing is
// persisted.
func (s *Sweeper) announcePending(
	ctx context.Context,
	addr domain.WatchedAddress,
	transfer domain.ObservedTransfer,
) {
	event := &domain.DepositEvent{
		Kind:      domain.EventPendingConfirmation,
		Chain:     addr.Chain,
		Currency:  addr.Currency,
		Address:   addr.Address,
		TxHash:    transfer.Hash,
		Amount:    transfer.Amount,
		EmittedAt: time.Now(),
	}

	broadcastCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()
	if err := s.gateway.Broadcast(broadcastCtx, event); err != nil {
		s.log.Warn("Broadcast failed", "tx", transfer.Hash, "error", err)
		metrics.BroadcastFailures.Inc()
	}
}

// announce runs the best-effort post-credit notifications.
func (s *Sweeper) announce(
	ctx context.Context,
	addr domain.WatchedAddress,
	transfer domain.ObservedTransfer,
) {
	event := &domain.DepositEvent{
		Kind:      domain.EventDepositConfirmed,
		Chain:     addr.Chain,
		Currency:  addr.Currency,
		Address:   addr.Address,
		TxHash:    transfer.Hash,
		Amount:    transfer.Amount,
		EmittedAt: time.Now(),
	}

	broadcastCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	if err := s.gateway.Broadcast(broadcastCtx, event); err != nil {
		s.log.Warn("Broadcast failed", "tx", transfer.Hash, "error", err)
		metrics.BroadcastFailures.Inc()
	}
	cancel()

	notifyCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	err := s.gateway.NotifyUser(notifyCtx, addr.UserID,
		"Deposit confirmed",
		transfer.Amount+" "+addr.Currency+" received on "+string(addr.Chain),
		"/wallet/deposits/"+transfer.Hash,
	)
	cancel()
	if err != nil {
		s.log.Warn("User notification failed", "user", addr.UserID, "error", err)
		metrics.NotifyFailures.Inc()
	}
}
