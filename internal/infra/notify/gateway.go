// Package notify fans out deposit events and records user-facing
// notifications. Everything here is best-effort: the ledger credit has
// already happened by the time any of these run, so failures are logged and
// never propagated.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/infra/storage"
)

// Gateway delivers deposit events to subscribers and users.
type Gateway interface {
	// Broadcast publishes an event to the (currency, chain, address)
	// channel. Best-effort, no delivery guarantee.
	Broadcast(ctx context.Context, event *domain.DepositEvent) error

	// NotifyUser creates a persisted user-facing notification.
	NotifyUser(ctx context.Context, userID uint64, title, message, link string) error

	// Close releases the underlying connection.
	Close() error
}

// Subject derives the broadcast channel for an event.
func Subject(event *domain.DepositEvent) string {
	return fmt.Sprintf("deposits.%s.%s.%s",
		event.Chain,
		strings.ToLower(event.Currency),
		strings.ToLower(event.Address),
	)
}

// newNotification builds the persisted record for NotifyUser.
func newNotification(userID uint64, title, message, link string) *domain.Notification {
	return &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now(),
	}
}

// LogGateway implements Gateway without a broker: events go to the log,
// notifications to the repository. Used when no NATS URL is configured.
type LogGateway struct {
	notifications storage.NotificationRepository
	log           *slog.Logger
}

func NewLogGateway(notifications storage.NotificationRepository) *LogGateway {
	return &LogGateway{notifications: notifications, log: slog.Default()}
}

func (g *LogGateway) Broadcast(ctx context.Context, event *domain.DepositEvent) error {
	g.log.Info("Deposit event",
		"subject", Subject(event), "kind", event.Kind, "tx", event.TxHash, "amount", event.Amount)
	return nil
}

func (g *LogGateway) NotifyUser(
	ctx context.Context,
	userID uint64,
	title, message, link string,
) error {
	return g.notifications.Save(ctx, newNotification(userID, title, message, link))
}

func (g *LogGateway) Close() error { return nil }
