// Package evm watches EVM chains through an etherscan-compatible explorer
// API. One adapter instance serves one chain (Ethereum, Polygon, ...).
package evm

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strconv"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/infra/rpc"
)

// Adapter implements chain.FetchAdapter for EVM networks.
type Adapter struct {
	chainID               domain.ChainID
	client                *rpc.Client
	requiredConfirmations uint64
	pageSize              int
}

// NewAdapter creates a new EVM adapter.
func NewAdapter(chainID domain.ChainID, client *rpc.Client, requiredConfirmations uint64) *Adapter {
	return &Adapter{
		chainID:               chainID,
		client:                client,
		requiredConfirmations: requiredConfirmations,
		pageSize:              50,
	}
}

// ChainID returns the chain this adapter serves.
func (a *Adapter) ChainID() domain.ChainID {
	return a.chainID
}

// txListResponse mirrors the etherscan account txlist / tokentx payload.
type txListResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  []struct {
		Hash          string `json:"hash"`
		From          string `json:"from"`
		To            string `json:"to"`
		Value         string `json:"value"`
		GasUsed       string `json:"gasUsed"`
		GasPrice      string `json:"gasPrice"`
		TokenSymbol   string `json:"tokenSymbol"`
		IsError       string `json:"isError"`
		Confirmations string `json:"confirmations"`
	} `json:"result"`
}

// FetchTransfers returns recent transfers involving address. Both native
// transfers (action=txlist) and token transfers (action=tokentx) are fetched;
// explorers report them on separate endpoints.
func (a *Adapter) FetchTransfers(
	ctx context.Context,
	address string,
) ([]domain.ObservedTransfer, error) {
	native, err := a.fetchAction(ctx, "txlist", address)
	if err != nil {
		return nil, fmt.Errorf("fetch native transfers: %w", err)
	}

	tokens, err := a.fetchAction(ctx, "tokentx", address)
	if err != nil {
		return nil, fmt.Errorf("fetch token transfers: %w", err)
	}

	return append(native, tokens...), nil
}

func (a *Adapter) fetchAction(
	ctx context.Context,
	action, address string,
) ([]domain.ObservedTransfer, error) {
	query := url.Values{}
	query.Set("module", "account")
	query.Set("action", action)
	query.Set("address", address)
	query.Set("sort", "desc")
	query.Set("page", "1")
	query.Set("offset", strconv.Itoa(a.pageSize))

	var resp txListResponse
	if err := a.client.GetJSON(ctx, "/api", query, &resp); err != nil {
		return nil, err
	}

	// Explorers answer status "0" with message "No transactions found" for
	// fresh addresses; that is an empty result, not an error.
	if resp.Status != "1" && len(resp.Result) > 0 {
		return nil, fmt.Errorf("explorer error: %s", resp.Message)
	}

	transfers := make([]domain.ObservedTransfer, 0, len(resp.Result))
	for _, tx := range resp.Result {
		if tx.IsError == "1" {
			continue
		}

		confirmations, _ := strconv.ParseUint(tx.Confirmations, 10, 64)
		status := domain.TransferPending
		if confirmations >= a.requiredConfirmations {
			status = domain.TransferConfirmed
		}

		transfers = append(transfers, domain.ObservedTransfer{
			Hash:                  tx.Hash,
			Chain:                 a.chainID,
			From:                  tx.From,
			To:                    []string{tx.To},
			Currency:              tx.TokenSymbol,
			Amount:                tx.Value,
			Fee:                   gasFee(tx.GasUsed, tx.GasPrice),
			Confirmations:         confirmations,
			RequiredConfirmations: a.requiredConfirmations,
			Status:                status,
		})
	}
	return transfers, nil
}

// gasFee returns gasUsed * gasPrice in wei, empty when either field is
// missing (tokentx rows omit gas for some explorers).
func gasFee(gasUsed, gasPrice string) string {
	used, ok := new(big.Int).SetString(gasUsed, 10)
	if !ok {
		return ""
	}
	price, ok := new(big.Int).SetString(gasPrice, 10)
	if !ok {
		return ""
	}
	return new(big.Int).Mul(used, price).String()
}
