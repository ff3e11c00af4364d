package domain

import (
	"time"
)

// Wallet is a custodial ledger wallet holding one currency, with a deposit
// address per chain the currency is issued on.
type Wallet struct {
	ID        uint64
	UserID    uint64
	Currency  string
	Addresses map[ChainID]string
	Custodial bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContractClass classifies the token contract behind a deposit address.
type ContractClass string

const (
	// ClassSingleSpender tokens require exclusive, serialized access per
	// address: concurrent credit attempts could double-spend an allowance.
	ClassSingleSpender ContractClass = "single_spender"

	ClassMultiSpender ContractClass = "multi_spender"

	// ClassNative is the chain's base asset, no token contract involved.
	ClassNative ContractClass = "native"
)

// Contract reports whether the class involves a smart contract. Chains with
// any contract-class address are polled on the fast cadence.
func (c ContractClass) Contract() bool {
	return c == ClassSingleSpender || c == ClassMultiSpender
}

// WatchedAddress is one (wallet, chain) deposit address under observation.
// Built fresh on every registry rebuild, never persisted.
type WatchedAddress struct {
	WalletID uint64
	UserID   uint64
	Chain    ChainID
	Address  string
	Currency string
	Class    ContractClass
}
