package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/infra/storage"
)

// LedgerRepo implements storage.LedgerRepository using PostgreSQL.
//
// The deposit_credits table carries a UNIQUE (chain, tx_hash, wallet_id)
// constraint. That constraint, not any in-process state, is what guarantees
// at most one credit per observed transfer even when the immediate path and
// the fallback verification worker race across processes.
type LedgerRepo struct {
	db *DB
}

// NewLedgerRepo creates a new PostgreSQL ledger repository.
func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// Credit inserts a credit record. A duplicate key is reported as
// Credited=false with a nil error.
func (r *LedgerRepo) Credit(
	ctx context.Context,
	credit *domain.DepositCredit,
) (storage.CreditResult, error) {
	query := `
		INSERT INTO deposit_credits (chain, tx_hash, wallet_id, currency, amount, fee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (chain, tx_hash, wallet_id) DO NOTHING
		RETURNING id
	`

	var id uint64
	err := r.db.QueryRowContext(ctx, query,
		string(credit.Chain), credit.TxHash, credit.WalletID,
		credit.Currency, orZero(credit.Amount), orZero(credit.Fee),
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		// Conflict path: the record already exists.
		return storage.CreditResult{Credited: false}, nil
	}
	if err != nil {
		// Serialization conflicts under concurrent inserts can still
		// surface as unique violations; treat them as the no-op path.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return storage.CreditResult{Credited: false}, nil
		}
		return storage.CreditResult{}, fmt.Errorf("failed to credit deposit: %w", err)
	}

	return storage.CreditResult{Credited: true, RecordID: id}, nil
}

// orZero guards the NOT NULL numeric columns against callers that pass an
// absent amount or fee as an empty string.
func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}

type creditRow struct {
	Chain    string `db:"chain"`
	TxHash   string `db:"tx_hash"`
	WalletID uint64 `db:"wallet_id"`
	Currency string `db:"currency"`
	Amount   string `db:"amount"`
	Fee      string `db:"fee"`
}

// GetByKey retrieves a credit record by its uniqueness key.
func (r *LedgerRepo) GetByKey(
	ctx context.Context,
	chain domain.ChainID,
	txHash string,
	walletID uint64,
) (*domain.DepositCredit, error) {
	query := `
		SELECT chain, tx_hash, wallet_id, currency, amount, fee
		FROM deposit_credits
		WHERE chain = $1 AND tx_hash = $2 AND wallet_id = $3
	`

	var row creditRow
	err := r.db.GetContext(ctx, &row, query, string(chain), txHash, walletID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit record: %w", err)
	}

	return &domain.DepositCredit{
		Chain:    domain.ChainID(row.Chain),
		TxHash:   row.TxHash,
		WalletID: row.WalletID,
		Currency: row.Currency,
		Amount:   row.Amount,
		Fee:      row.Fee,
	}, nil
}
