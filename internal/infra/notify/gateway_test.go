package notify

import (
	"context"
	"testing"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/infra/storage/memory"
)

func TestSubject(t *testing.T) {
	event := &domain.DepositEvent{
		Chain:    domain.ChainEthereum,
		Currency: "USDT",
		Address:  "0xAbC123",
	}
	got := Subject(event)
	want := "deposits.ethereum.usdt.0xabc123"
	if got != want {
		t.Errorf("Subject = %s, want %s", got, want)
	}
}

func TestLogGateway_NotifyUserPersists(t *testing.T) {
	store := memory.NewMemoryStorage()
	repo := memory.NewNotificationRepo(store)
	g := NewLogGateway(repo)

	err := g.NotifyUser(context.Background(), 42, "Deposit confirmed", "You received 100 USDT", "/wallet/42")
	if err != nil {
		t.Fatalf("NotifyUser failed: %v", err)
	}
	if repo.Count() != 1 {
		t.Errorf("Expected 1 persisted notification, got %d", repo.Count())
	}
}
