// Package tron watches the Tron network through a TronGrid-compatible HTTP
// API. API docs: https://developers.tron.network/reference
package tron

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/infra/rpc"
)

// Adapter implements chain.FetchAdapter for Tron.
type Adapter struct {
	client *rpc.Client
	limit  int
}

// NewAdapter creates a new Tron adapter.
func NewAdapter(client *rpc.Client) *Adapter {
	return &Adapter{client: client, limit: 50}
}

// ChainID returns the chain this adapter serves.
func (a *Adapter) ChainID() domain.ChainID {
	return domain.ChainTron
}

// trc20Response mirrors the TronGrid TRC20 transaction listing.
type trc20Response struct {
	Success bool `json:"success"`
	Data    []struct {
		TransactionID string `json:"transaction_id"`
		From          string `json:"from"`
		To            string `json:"to"`
		Value         string `json:"value"`
		TokenInfo     struct {
			Symbol string `json:"symbol"`
		} `json:"token_info"`
	} `json:"data"`
}

// nativeResponse mirrors the TronGrid account transaction listing.
type nativeResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		TxID string `json:"txID"`
		Ret  []struct {
			ContractRet string `json:"contractRet"`
			Fee         int64  `json:"fee"`
		} `json:"ret"`
		RawData struct {
			Contract []struct {
				Type      string `json:"type"`
				Parameter struct {
					Value struct {
						Amount       int64  `json:"amount"`
						OwnerAddress string `json:"owner_address"`
						ToAddress    string `json:"to_address"`
					} `json:"value"`
				} `json:"parameter"`
			} `json:"contract"`
		} `json:"raw_data"`
	} `json:"data"`
}

// FetchTransfers returns recent confirmed transfers to address. TronGrid only
// lists a transaction under only_confirmed once it has passed the solidified
// block, so confirmation counting is delegated to the API.
func (a *Adapter) FetchTransfers(
	ctx context.Context,
	address string,
) ([]domain.ObservedTransfer, error) {
	query := url.Values{}
	query.Set("only_confirmed", "true")
	query.Set("only_to", "true")
	query.Set("limit", strconv.Itoa(a.limit))

	var transfers []domain.ObservedTransfer

	var trc20 trc20Response
	path := fmt.Sprintf("/v1/accounts/%s/transactions/trc20", address)
	if err := a.client.GetJSON(ctx, path, query, &trc20); err != nil {
		return nil, fmt.Errorf("fetch trc20 transfers: %w", err)
	}
	if !trc20.Success {
		return nil, fmt.Errorf("trongrid rejected trc20 request for %s", address)
	}
	for _, tx := range trc20.Data {
		transfers = append(transfers, domain.ObservedTransfer{
			Hash:                  tx.TransactionID,
			Chain:                 domain.ChainTron,
			From:                  tx.From,
			To:                    []string{tx.To},
			Currency:              tx.TokenInfo.Symbol,
			Amount:                tx.Value,
			Confirmations:         1,
			RequiredConfirmations: 1,
			Status:                domain.TransferConfirmed,
		})
	}

	var native nativeResponse
	path = fmt.Sprintf("/v1/accounts/%s/transactions", address)
	if err := a.client.GetJSON(ctx, path, query, &native); err != nil {
		return nil, fmt.Errorf("fetch native transfers: %w", err)
	}
	if !native.Success {
		return nil, fmt.Errorf("trongrid rejected request for %s", address)
	}
	for _, tx := range native.Data {
		if len(tx.RawData.Contract) == 0 {
			continue
		}
		contract := tx.RawData.Contract[0]
		if contract.Type != "TransferContract" {
			continue
		}
		if len(tx.Ret) > 0 && tx.Ret[0].ContractRet != "SUCCESS" {
			continue
		}

		var fee int64
		if len(tx.Ret) > 0 {
			fee = tx.Ret[0].Fee
		}

		transfers = append(transfers, domain.ObservedTransfer{
			Hash:                  tx.TxID,
			Chain:                 domain.ChainTron,
			From:                  contract.Parameter.Value.OwnerAddress,
			To:                    []string{contract.Parameter.Value.ToAddress},
			Currency:              "TRX",
			Amount:                strconv.FormatInt(contract.Parameter.Value.Amount, 10),
			Fee:                   strconv.FormatInt(fee, 10),
			Confirmations:         1,
			RequiredConfirmations: 1,
			Status:                domain.TransferConfirmed,
		})
	}

	return transfers, nil
}
