package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/ifrit/internal/model"
)

// CreateNotification stores n. A nil UserID addresses every admin.
// ID and CreatedAt are filled in when empty.
func CreateNotification(ctx context.Context, db *sql.DB, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	var data sql.NullString
	if len(n.Data) > 0 {
		data = sql.NullString{String: string(n.Data), Valid: true}
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, data, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// ListNotifications returns the notifications visible to a user, newest
// first. Admins also see the notifications addressed to all admins.
func ListNotifications(ctx context.Context, db *sql.DB, userID int64, isAdmin, unreadOnly bool, limit int) ([]model.Notification, error) {
	query := `SELECT id, user_id, type, title, message, data, read, created_at
	          FROM notifications WHERE (user_id = ?`
	args := []any{userID}
	if isAdmin {
		query += ` OR user_id IS NULL`
	}
	query += `)`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		var data sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		if data.Valid {
			n.Data = []byte(data.String)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead marks one notification read if it is visible to the user.
func MarkNotificationRead(ctx context.Context, db *sql.DB, id string, userID int64, isAdmin bool) error {
	query := `UPDATE notifications SET read = 1 WHERE id = ? AND (user_id = ?`
	if isAdmin {
		query += ` OR user_id IS NULL`
	}
	query += `)`
	if _, err := db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification visible to the user read.
func MarkAllNotificationsRead(ctx context.Context, db *sql.DB, userID int64, isAdmin bool) error {
	query := `UPDATE notifications SET read = 1 WHERE user_id = ?`
	if isAdmin {
		query += ` OR user_id IS NULL`
	}
	if _, err := db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}
