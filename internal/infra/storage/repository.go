package storage

import (
	"context"
	"errors"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

// ErrNotFound is returned when a requested record doesn't exist.
var ErrNotFound = errors.New("not found")

// WalletRepository handles custodial wallet lookups.
type WalletRepository interface {
	// GetCustodial retrieves all custodial wallets with their per-chain
	// address maps.
	GetCustodial(ctx context.Context) ([]*domain.Wallet, error)

	// Save saves a wallet.
	Save(ctx context.Context, wallet *domain.Wallet) error
}

// CreditResult reports the outcome of a ledger credit attempt.
type CreditResult struct {
	// Credited is false when a record for (chain, tx_hash, wallet_id)
	// already existed. That is a success-no-op, not an error.
	Credited bool
	RecordID uint64
}

// LedgerRepository handles deposit crediting against the internal ledger.
type LedgerRepository interface {
	// Credit creates at most one credit record per (chain, tx_hash,
	// wallet_id). Safe to call twice with the same credit: the uniqueness
	// constraint is the cross-process guarantee against double crediting.
	Credit(ctx context.Context, credit *domain.DepositCredit) (CreditResult, error)

	// GetByKey retrieves a credit record, ErrNotFound when absent.
	GetByKey(ctx context.Context, chain domain.ChainID, txHash string, walletID uint64) (*domain.DepositCredit, error)
}

// NotificationRepository persists user-facing notifications.
type NotificationRepository interface {
	Save(ctx context.Context, n *domain.Notification) error
}
