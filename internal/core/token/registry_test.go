package token

import (
	"errors"
	"testing"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

func TestStaticRegistry_Resolve(t *testing.T) {
	r := NewStaticRegistry()
	r.Register(domain.ChainEthereum, Info{
		Symbol:        "USDT",
		Class:         domain.ClassSingleSpender,
		Contract:      "0xdac17f958d2ee523a2206206994597c13d831ec7",
		NeedsExplorer: true,
	})

	info, err := r.Resolve(domain.ChainEthereum, "usdt")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.Class != domain.ClassSingleSpender {
		t.Errorf("Expected single_spender, got %s", info.Class)
	}

	_, err = r.Resolve(domain.ChainEthereum, "DOGE")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound, got %v", err)
	}

	_, err = r.Resolve(domain.ChainBitcoin, "USDT")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("Expected ErrTokenNotFound for unknown chain, got %v", err)
	}
}

func TestContractClass_Contract(t *testing.T) {
	if !domain.ClassSingleSpender.Contract() {
		t.Error("single_spender should be a contract class")
	}
	if !domain.ClassMultiSpender.Contract() {
		t.Error("multi_spender should be a contract class")
	}
	if domain.ClassNative.Contract() {
		t.Error("native should not be a contract class")
	}
}
