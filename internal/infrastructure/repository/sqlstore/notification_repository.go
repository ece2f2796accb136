package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/document-router/internal/core/domain"
)

const defaultNotificationLimit = 50

type NotificationRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewNotificationRepository(db *sql.DB, dialect Dialect) *NotificationRepository {
	return &NotificationRepository{db: db, dialect: dialect}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, rebind(r.dialect, `
INSERT INTO notifications (
	id, kind, doc_id, batch_id, recipient, reply_to, subject, body, provider, provider_message_id, status, error_message, is_read, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`), n.ID, string(n.Kind), n.DocumentID, n.BatchID, n.Recipient, n.ReplyTo, n.Subject, n.Body, n.Provider,
		n.ProviderMessageID, string(n.Status), n.Error, n.Read, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, recipient string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > domain.MaxListLimit {
		limit = defaultNotificationLimit
	}
	rows, err := r.db.QueryContext(ctx, rebind(r.dialect, `
SELECT id, kind, doc_id, batch_id, recipient, reply_to, subject, body, provider, provider_message_id, status, error_message, is_read, created_at
FROM notifications
WHERE recipient = $1
ORDER BY created_at DESC
LIMIT $2
`), recipient, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		var (
			n            domain.Notification
			kind, status string
		)
		if err := rows.Scan(&n.ID, &kind, &n.DocumentID, &n.BatchID, &n.Recipient, &n.ReplyTo, &n.Subject, &n.Body,
			&n.Provider, &n.ProviderMessageID, &status, &n.Error, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = domain.NotificationKind(kind)
		n.Status = domain.NotificationStatus(status)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	return execOne(ctx, r.db, r.dialect, domain.ErrNotFound, "mark notification read", `
UPDATE notifications SET is_read = $2 WHERE id = $1
`, id, true)
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipient string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, rebind(r.dialect, `
SELECT COUNT(*) FROM notifications WHERE recipient = $1 AND is_read = $2
`), recipient, false).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}
