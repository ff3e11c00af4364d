// Package registry builds the per-chain watch list from custodial wallets
// and the token registry.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/core/token"
	"github.com/custodia-labs/depositwatch/internal/infra/storage"
	"github.com/custodia-labs/depositwatch/internal/monitor/metrics"
)

// Registry holds the current watch list. Built at startup and re-invokable
// via Rebuild; never persisted.
type Registry struct {
	wallets storage.WalletRepository
	tokens  token.Resolver
	log     *slog.Logger

	mu      sync.RWMutex
	byChain map[domain.ChainID][]domain.WatchedAddress
}

// New creates an empty registry.
func New(wallets storage.WalletRepository, tokens token.Resolver) *Registry {
	return &Registry{
		wallets: wallets,
		tokens:  tokens,
		log:     slog.Default(),
		byChain: make(map[domain.ChainID][]domain.WatchedAddress),
	}
}

// Rebuild enumerates custodial wallets and rebuilds the watch list. A wallet
// currency with no token mapping on a chain is skipped silently: wallets may
// nominally list chains their currency was never issued on.
func (r *Registry) Rebuild(ctx context.Context) error {
	wallets, err := r.wallets.GetCustodial(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate custodial wallets: %w", err)
	}

	byChain := make(map[domain.ChainID][]domain.WatchedAddress)
	for _, wallet := range wallets {
		if len(wallet.Addresses) == 0 {
			continue
		}

		// Deterministic registry order within a chain: wallets are
		// processed by ascending ID (GetCustodial order), chains per
		// wallet sorted by name.
		chains := make([]domain.ChainID, 0, len(wallet.Addresses))
		for chain := range wallet.Addresses {
			chains = append(chains, chain)
		}
		sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })

		for _, chain := range chains {
			address := wallet.Addresses[chain]
			if address == "" {
				continue
			}

			info, err := r.tokens.Resolve(chain, wallet.Currency)
			if err != nil {
				if errors.Is(err, token.ErrTokenNotFound) {
					r.log.Debug("No token mapping, skipping",
						"wallet", wallet.ID, "chain", chain, "currency", wallet.Currency)
					continue
				}
				return fmt.Errorf("token resolution for %s/%s: %w", chain, wallet.Currency, err)
			}

			byChain[chain] = append(byChain[chain], domain.WatchedAddress{
				WalletID: wallet.ID,
				UserID:   wallet.UserID,
				Chain:    chain,
				Address:  address,
				Currency: wallet.Currency,
				Class:    info.Class,
			})
		}
	}

	r.mu.Lock()
	r.byChain = byChain
	r.mu.Unlock()

	for chain, watched := range byChain {
		metrics.WatchedAddresses.WithLabelValues(string(chain)).Set(float64(len(watched)))
		r.log.Info("Registered watch list", "chain", chain, "addresses", len(watched))
	}
	return nil
}

// Watched returns the watch list for a chain in registry order.
func (r *Registry) Watched(chain domain.ChainID) []domain.WatchedAddress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byChain[chain]
}

// Chains returns all chains with at least one watched address.
func (r *Registry) Chains() []domain.ChainID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chains := make([]domain.ChainID, 0, len(r.byChain))
	for chain := range r.byChain {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	return chains
}

// HasContractTokens reports whether any watched address on chain is a
// smart-contract token. These chains go on the fast cadence.
func (r *Registry) HasContractTokens(chain domain.ChainID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.byChain[chain] {
		if w.Class.Contract() {
			return true
		}
	}
	return false
}
