package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/ifrit/internal/model"
)

// LogActivity records an action. userID may be nil for system actions.
func LogActivity(ctx context.Context, db *sql.DB, userID *int64, action, details string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO activities (user_id, action, details) VALUES (?, ?, ?)`,
		userID, action, details,
	)
	if err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// ListActivity returns activity entries newest first, optionally filtered by user.
func ListActivity(ctx context.Context, db *sql.DB, userID int64, limit int) ([]model.Activity, error) {
	query := `SELECT a.id, a.user_id, a.action, a.details, a.created_at, COALESCE(u.username, '')
	          FROM activities a
	          LEFT JOIN users u ON u.id = a.user_id
	          WHERE 1=1`
	var args []any

	if userID > 0 {
		query += ` AND a.user_id = ?`
		args = append(args, userID)
	}

	query += ` ORDER BY a.created_at DESC, a.id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var a model.Activity
		var details sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &details, &a.CreatedAt, &a.Username); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		a.Details = details.String
		out = append(out, a)
	}
	return out, rows.Err()
}
