package domain

import "time"

// DepositEventKind distinguishes the broadcast event types.
type DepositEventKind string

const (
	EventPendingConfirmation DepositEventKind = "pending_confirmation"
	EventDepositConfirmed    DepositEventKind = "deposit_confirmed"
)

// DepositEvent is the transient envelope broadcast to subscribers of the
// (currency, chain, address) channel. Delivery is best-effort, the envelope
// is never persisted by the pipeline.
type DepositEvent struct {
	Kind      DepositEventKind `json:"kind"`
	Chain     ChainID          `json:"chain"`
	Currency  string           `json:"currency"`
	Address   string           `json:"address"`
	TxHash    string           `json:"tx_hash"`
	Amount    string           `json:"amount"`
	EmittedAt time.Time        `json:"emitted_at"`
}

// Notification is a persisted, user-facing notification record.
type Notification struct {
	ID        string
	UserID    uint64
	Title     string
	Message   string
	Link      string
	CreatedAt time.Time
}
