package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/infra/storage"
)

// MemoryStorage backs the repositories when no database is configured.
// Used for local runs and tests.
type MemoryStorage struct {
	wallets       map[uint64]*domain.Wallet
	credits       map[string]*domain.DepositCredit
	notifications map[string]*domain.Notification
	nextCreditID  uint64
	mu            sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		wallets:       make(map[uint64]*domain.Wallet),
		credits:       make(map[string]*domain.DepositCredit),
		notifications: make(map[string]*domain.Notification),
	}
}

func creditKey(chain domain.ChainID, txHash string, walletID uint64) string {
	return fmt.Sprintf("%s:%s:%d", chain, txHash, walletID)
}

// -----------------------------------------------------------------------------
// Wallet Repository
// -----------------------------------------------------------------------------

type WalletRepo struct {
	store *MemoryStorage
}

func NewWalletRepo(store *MemoryStorage) *WalletRepo {
	return &WalletRepo{store: store}
}

func (r *WalletRepo) GetCustodial(ctx context.Context) ([]*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	wallets := make([]*domain.Wallet, 0, len(r.store.wallets))
	for _, w := range r.store.wallets {
		if w.Custodial {
			wallets = append(wallets, w)
		}
	}
	return wallets, nil
}

func (r *WalletRepo) Save(ctx context.Context, wallet *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.wallets[wallet.ID] = wallet
	return nil
}

// -----------------------------------------------------------------------------
// Ledger Repository
// -----------------------------------------------------------------------------

type LedgerRepo struct {
	store *MemoryStorage
}

func NewLedgerRepo(store *MemoryStorage) *LedgerRepo {
	return &LedgerRepo{store: store}
}

func (r *LedgerRepo) Credit(
	ctx context.Context,
	credit *domain.DepositCredit,
) (storage.CreditResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := creditKey(credit.Chain, credit.TxHash, credit.WalletID)
	if _, exists := r.store.credits[key]; exists {
		return storage.CreditResult{Credited: false}, nil
	}

	stored := *credit
	r.store.credits[key] = &stored
	r.store.nextCreditID++
	return storage.CreditResult{Credited: true, RecordID: r.store.nextCreditID}, nil
}

func (r *LedgerRepo) GetByKey(
	ctx context.Context,
	chain domain.ChainID,
	txHash string,
	walletID uint64,
) (*domain.DepositCredit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	credit, ok := r.store.credits[creditKey(chain, txHash, walletID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return credit, nil
}

// Count returns the number of credit records.
func (r *LedgerRepo) Count() int {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.credits)
}

// -----------------------------------------------------------------------------
// Notification Repository
// -----------------------------------------------------------------------------

type NotificationRepo struct {
	store *MemoryStorage
}

func NewNotificationRepo(store *MemoryStorage) *NotificationRepo {
	return &NotificationRepo{store: store}
}

func (r *NotificationRepo) Save(ctx context.Context, n *domain.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.notifications[n.ID] = n
	return nil
}

// Count returns the number of stored notifications.
func (r *NotificationRepo) Count() int {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.notifications)
}
