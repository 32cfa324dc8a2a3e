package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: activity lookups are always newest-first per user.
	`CREATE INDEX IF NOT EXISTS idx_activities_user_created
	     ON activities(user_id, created_at)`,
	// Migration 2: unread notification counts.
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_read
	     ON notifications(user_id, read)`,
}

// Migrate creates all tables and indexes if they don't already exist,
// then applies the idempotent migrations.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
