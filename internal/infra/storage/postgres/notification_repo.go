package postgres

import (
	"context"
	"fmt"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
)

// NotificationRepo implements storage.NotificationRepository using PostgreSQL.
type NotificationRepo struct {
	db *DB
}

// NewNotificationRepo creates a new PostgreSQL notification repository.
func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Save persists a user notification.
func (r *NotificationRepo) Save(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, message, link, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Title, n.Message, n.Link,
	); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}
