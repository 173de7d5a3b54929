package database

import (
	"context"
	"fmt"
	"time"

	"studiodesk/internal/domain"
	"studiodesk/internal/models"

	"github.com/google/uuid"
)

func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.IsRead = false

	query := `INSERT INTO notifications (id, title, message, type, is_read, created_at) VALUES (?, ?, ?, ?, 0, ?)`
	if _, err := db.ExecContext(ctx, query, n.ID, n.Title, n.Message, n.Type, n.CreatedAt); err != nil {
		return unavailable("create notification", err)
	}
	return nil
}

// ListNotifications returns the newest notifications first.
func (db *DB) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = models.DefaultNotificationsLimit
	}

	query := `SELECT id, title, message, type, is_read, created_at
              FROM notifications ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, unavailable("list notifications", err)
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, unavailable("scan notification", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list notifications", err)
	}
	return out, nil
}

func (db *DB) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return unavailable("mark notification read", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return unavailable("mark notification read", err)
	}
	if affected == 0 {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (db *DB) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE is_read = 0`); err != nil {
		return unavailable("mark all notifications read", err)
	}
	return nil
}
