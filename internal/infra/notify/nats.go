package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/custodia-labs/depositwatch/internal/core/config"
	"github.com/custodia-labs/depositwatch/internal/core/domain"
	"github.com/custodia-labs/depositwatch/internal/infra/storage"
)

// NATSGateway implements Gateway over core NATS. Core (non-JetStream)
// publish matches the channel semantics: subscribers currently online get
// the event, nobody replays misses, and the ledger credit never depends on
// delivery.
type NATSGateway struct {
	nc            *nats.Conn
	notifications storage.NotificationRepository
}

// NewNATSGateway connects to NATS and returns a gateway.
func NewNATSGateway(
	cfg config.NATSConfig,
	notifications storage.NotificationRepository,
) (*NATSGateway, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("depositwatch"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATSGateway{nc: nc, notifications: notifications}, nil
}

// Broadcast publishes the event to its derived subject.
func (g *NATSGateway) Broadcast(ctx context.Context, event *domain.DepositEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := g.nc.Publish(Subject(event), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// NotifyUser persists a user notification record.
func (g *NATSGateway) NotifyUser(
	ctx context.Context,
	userID uint64,
	title, message, link string,
) error {
	return g.notifications.Save(ctx, newNotification(userID, title, message, link))
}

// Close drains and closes the connection.
func (g *NATSGateway) Close() error {
	return g.nc.Drain()
}
