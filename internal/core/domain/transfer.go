package domain

import "strings"

// TransferStatus is the adapter-reported state of an observed transfer.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferConfirmed TransferStatus = "confirmed"
	TransferFailed    TransferStatus = "failed"
)

// ObservedTransfer is an inbound transfer reported by a chain fetch adapter.
// Ephemeral and never mutated; transfers are compared by Hash. To may carry
// several recipients for batched transfers, the matcher fans out per
// recipient.
type ObservedTransfer struct {
	Hash                  string         `json:"hash"`
	Chain                 ChainID        `json:"chain"`
	From                  string         `json:"from"`
	To                    []string       `json:"to"`
	Currency              string         `json:"currency"`
	Amount                string         `json:"amount"`
	Fee                   string         `json:"fee"`
	Confirmations         uint64         `json:"confirmations"`
	RequiredConfirmations uint64         `json:"required_confirmations"`
	Status                TransferStatus `json:"status"`
}

// PaysTo reports whether any recipient equals address, case-insensitively.
func (t *ObservedTransfer) PaysTo(address string) bool {
	for _, to := range t.To {
		if strings.EqualFold(to, address) {
			return true
		}
	}
	return false
}

// DepositCredit is the ledger-credit request derived from a matched transfer.
// The ledger enforces at most one credit record per (Chain, TxHash, WalletID).
type DepositCredit struct {
	Chain    ChainID
	TxHash   string
	WalletID uint64
	Currency string
	Amount   string
	Fee      string
}
