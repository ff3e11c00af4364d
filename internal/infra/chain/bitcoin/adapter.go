// Package bitcoin watches UTXO chains through an esplora-compatible explorer
// API (Blockstream-style). One adapter serves one chain; Litecoin and other
// Bitcoin-family networks reuse it with a different endpoint.
package bitcoin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/infra/rpc"
)

// Adapter implements chain.FetchAdapter for Bitcoin-family networks.
type Adapter struct {
	chainID               domain.ChainID
	currency              string
	client                *rpc.Client
	requiredConfirmations uint64
}

// NewAdapter creates a new esplora-backed adapter.
func NewAdapter(
	chainID domain.ChainID,
	currency string,
	client *rpc.Client,
	requiredConfirmations uint64,
) *Adapter {
	return &Adapter{
		chainID:               chainID,
		currency:              currency,
		client:                client,
		requiredConfirmations: requiredConfirmations,
	}
}

// ChainID returns the chain this adapter serves.
func (a *Adapter) ChainID() domain.ChainID {
	return a.chainID
}

// esploraTx mirrors the esplora address transaction listing.
type esploraTx struct {
	TxID   string `json:"txid"`
	Fee    int64  `json:"fee"`
	Status struct {
		Confirmed   bool   `json:"confirmed"`
		BlockHeight uint64 `json:"block_height"`
	} `json:"status"`
	Vin []struct {
		Prevout struct {
			ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		} `json:"prevout"`
	} `json:"vin"`
	Vout []struct {
		ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		Value               int64  `json:"value"`
	} `json:"vout"`
}

// FetchTransfers returns recent transfers paying address. A UTXO transaction
// pays many outputs; every output address is reported as a recipient so the
// matcher can fan out, and Amount is the total paid to the queried address.
func (a *Adapter) FetchTransfers(
	ctx context.Context,
	address string,
) ([]domain.ObservedTransfer, error) {
	tipHeight, err := a.tipHeight(ctx)
	if err != nil {
		return nil, err
	}

	var txs []esploraTx
	path := fmt.Sprintf("/address/%s/txs", address)
	if err := a.client.GetJSON(ctx, path, nil, &txs); err != nil {
		return nil, fmt.Errorf("fetch address txs: %w", err)
	}

	transfers := make([]domain.ObservedTransfer, 0, len(txs))
	for _, tx := range txs {
		var (
			recipients []string
			amount     int64
			paysUs     bool
		)
		for _, vout := range tx.Vout {
			if vout.ScriptPubKeyAddress == "" {
				continue
			}
			recipients = append(recipients, vout.ScriptPubKeyAddress)
			if strings.EqualFold(vout.ScriptPubKeyAddress, address) {
				amount += vout.Value
				paysUs = true
			}
		}
		if !paysUs {
			// Spend from this address, not a deposit.
			continue
		}

		var from string
		if len(tx.Vin) > 0 {
			from = tx.Vin[0].Prevout.ScriptPubKeyAddress
		}

		var confirmations uint64
		status := domain.TransferPending
		if tx.Status.Confirmed && tipHeight >= tx.Status.BlockHeight {
			confirmations = tipHeight - tx.Status.BlockHeight + 1
			if confirmations >= a.requiredConfirmations {
				status = domain.TransferConfirmed
			}
		}

		transfers = append(transfers, domain.ObservedTransfer{
			Hash:                  tx.TxID,
			Chain:                 a.chainID,
			From:                  from,
			To:                    recipients,
			Currency:              a.currency,
			Amount:                strconv.FormatInt(amount, 10),
			Fee:                   strconv.FormatInt(tx.Fee, 10),
			Confirmations:         confirmations,
			RequiredConfirmations: a.requiredConfirmations,
			Status:                status,
		})
	}
	return transfers, nil
}

func (a *Adapter) tipHeight(ctx context.Context) (uint64, error) {
	var height uint64
	if err := a.client.GetJSON(ctx, "/blocks/tip/height", nil, &height); err != nil {
		return 0, fmt.Errorf("fetch tip height: %w", err)
	}
	return height, nil
}
