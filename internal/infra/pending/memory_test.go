package pending

import (
	"context"
	"reflect"
	"testing"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	transfer := &domain.ObservedTransfer{
		Hash:                  "0xabc",
		Chain:                 domain.ChainEthereum,
		From:                  "0x1111111111111111111111111111111111111111",
		To:                    []string{"0x2222222222222222222222222222222222222222"},
		Currency:              "USDT",
		Amount:                "100.5",
		Fee:                   "0.002",
		Confirmations:         14,
		RequiredConfirmations: 12,
		Status:                domain.TransferConfirmed,
	}

	if err := store.Put(ctx, transfer.Hash, transfer); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found, err := store.Get(ctx, transfer.Hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("Expected entry to be found")
	}
	if !reflect.DeepEqual(got, transfer) {
		t.Errorf("Round-trip mismatch:\n got  %+v\n want %+v", got, transfer)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, found, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("Expected missing entry not to be found")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	transfer := &domain.ObservedTransfer{Hash: "h1", Chain: domain.ChainBitcoin}
	store.Put(ctx, transfer.Hash, transfer)

	if err := store.Delete(ctx, "h1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := store.Get(ctx, "h1"); found {
		t.Error("Expected entry to be gone after delete")
	}

	// Deleting a missing key is not an error.
	if err := store.Delete(ctx, "h1"); err != nil {
		t.Errorf("Delete of missing key errored: %v", err)
	}
}

func TestMemoryStore_Keys(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Put(ctx, "0xaaa", &domain.ObservedTransfer{Hash: "0xaaa"})
	store.Put(ctx, "0xbbb", &domain.ObservedTransfer{Hash: "0xbbb"})
	store.Put(ctx, "ccc", &domain.ObservedTransfer{Hash: "ccc"})

	all, err := store.Keys(ctx, "*")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 keys, got %d", len(all))
	}

	hex, err := store.Keys(ctx, "0x*")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(hex) != 2 {
		t.Errorf("Expected 2 keys matching 0x*, got %d", len(hex))
	}
}
