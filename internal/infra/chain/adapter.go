package chain

import (
	"context"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

// FetchAdapter is the per-chain strategy for observing inbound transfers.
// New chains register an adapter; scheduling logic never branches on chain
// identity.
type FetchAdapter interface {
	// ChainID returns the chain this adapter serves.
	ChainID() domain.ChainID

	// FetchTransfers returns recent transfers involving address, newest
	// first. At-least-once observation is expected: callers must tolerate
	// duplicate and out-of-order transfer hashes across calls.
	FetchTransfers(ctx context.Context, address string) ([]domain.ObservedTransfer, error)
}
