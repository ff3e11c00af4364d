// Package pending is the durable fallback queue for transfers that could not
// be credited immediately. Entries are flat txHash -> transfer payload pairs,
// consumed by a separate verification worker. The sweep never treats an
// entry's presence as a dedup key; only the ledger uniqueness constraint
// dedups.
package pending

import (
	"context"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

// Store is the durable key-value backend for pending deposits. The backing
// technology is an implementation choice; values must round-trip exactly.
type Store interface {
	// Put stores a transfer under its hash. Overwrites an existing entry.
	Put(ctx context.Context, hash string, transfer *domain.ObservedTransfer) error

	// Get retrieves a stored transfer; found is false when absent.
	Get(ctx context.Context, hash string) (transfer *domain.ObservedTransfer, found bool, err error)

	// Delete removes an entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, hash string) error

	// Keys returns all stored hashes matching a glob pattern ("*" for all).
	Keys(ctx context.Context, pattern string) ([]string, error)
}
