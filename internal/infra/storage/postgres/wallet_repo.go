package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

// WalletRepo implements storage.WalletRepository using PostgreSQL.
type WalletRepo struct {
	db *DB
}

// NewWalletRepo creates a new PostgreSQL wallet repository.
func NewWalletRepo(db *DB) *WalletRepo {
	return &WalletRepo{db: db}
}

type walletRow struct {
	ID        uint64    `db:"id"`
	UserID    uint64    `db:"user_id"`
	Currency  string    `db:"currency"`
	Addresses []byte    `db:"addresses"`
	Custodial bool      `db:"custodial"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (w *walletRow) toDomain() (*domain.Wallet, error) {
	wallet := &domain.Wallet{
		ID:        w.ID,
		UserID:    w.UserID,
		Currency:  w.Currency,
		Custodial: w.Custodial,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	// Addresses is a jsonb chain -> address map; absent means the wallet
	// has no deposit addresses yet.
	if len(w.Addresses) > 0 {
		if err := json.Unmarshal(w.Addresses, &wallet.Addresses); err != nil {
			return nil, fmt.Errorf("invalid addresses payload: %w", err)
		}
	}
	return wallet, nil
}

// GetCustodial retrieves all custodial wallets.
func (r *WalletRepo) GetCustodial(ctx context.Context) ([]*domain.Wallet, error) {
	query := `
		SELECT id, user_id, currency, addresses, custodial, created_at, updated_at
		FROM wallets
		WHERE custodial = TRUE
		ORDER BY id
	`

	var rows []walletRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list custodial wallets: %w", err)
	}

	wallets := make([]*domain.Wallet, 0, len(rows))
	for _, row := range rows {
		wallet, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	return wallets, nil
}

// Save saves a wallet.
func (r *WalletRepo) Save(ctx context.Context, wallet *domain.Wallet) error {
	addresses, err := json.Marshal(wallet.Addresses)
	if err != nil {
		return fmt.Errorf("failed to marshal addresses: %w", err)
	}

	query := `
		INSERT INTO wallets (id, user_id, currency, addresses, custodial, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			addresses = EXCLUDED.addresses,
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query,
		wallet.ID, wallet.UserID, wallet.Currency, addresses, wallet.Custodial,
	); err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}
