// Package token resolves (chain, currency) pairs to their contract
// classification. The registry is an external collaborator from the
// pipeline's point of view; StaticRegistry is the config-backed default.
package token

import (
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

// ErrTokenNotFound is returned when a currency is not issued on a chain.
// Callers are expected to skip silently: a wallet may nominally list chains
// its currency was never deployed on.
var ErrTokenNotFound = errors.New("token not found")

// Info describes a resolved token.
type Info struct {
	Symbol   string
	Class    domain.ContractClass
	Contract string
	// NeedsExplorer is false for chains watched through a node we operate
	// ourselves; such chains are exempt from the external API call budget.
	NeedsExplorer bool
}

// Resolver looks up token metadata for a chain + currency pair.
type Resolver interface {
	Resolve(chain domain.ChainID, currency string) (Info, error)
}

// StaticRegistry is an in-memory Resolver populated from configuration.
type StaticRegistry struct {
	mu     sync.RWMutex
	tokens map[domain.ChainID]map[string]Info
}

func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{tokens: make(map[domain.ChainID]map[string]Info)}
}

// Register adds or replaces a token entry.
func (r *StaticRegistry) Register(chain domain.ChainID, info Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byCurrency, ok := r.tokens[chain]
	if !ok {
		byCurrency = make(map[string]Info)
		r.tokens[chain] = byCurrency
	}
	byCurrency[strings.ToUpper(info.Symbol)] = info
}

// Resolve implements Resolver.
func (r *StaticRegistry) Resolve(chain domain.ChainID, currency string) (Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byCurrency, ok := r.tokens[chain]
	if !ok {
		return Info{}, ErrTokenNotFound
	}
	info, ok := byCurrency[strings.ToUpper(currency)]
	if !ok {
		return Info{}, ErrTokenNotFound
	}
	return info, nil
}
