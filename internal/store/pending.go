package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/ifrit/internal/model"
)

const pendingSelect = `SELECT p.id, p.submitted_by, p.payload, p.submitted_at, u.username
	FROM pending_items p
	JOIN users u ON u.id = p.submitted_by`

// CreatePending queues item for review on behalf of submittedBy.
func CreatePending(ctx context.Context, db *sql.DB, submittedBy int64, item model.Item) (*model.PendingItem, error) {
	payload, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encoding pending item: %w", err)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO pending_items (id, submitted_by, payload, submitted_at) VALUES (?, ?, ?, ?)`,
		id, submittedBy, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pending item: %w", err)
	}

	return GetPending(ctx, db, id)
}

// RestorePending puts a removed pending item back in the queue with its
// original id and submission time.
func RestorePending(ctx context.Context, db *sql.DB, p *model.PendingItem) error {
	payload, err := json.Marshal(p.Item)
	if err != nil {
		return fmt.Errorf("encoding pending item: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO pending_items (id, submitted_by, payload, submitted_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.SubmittedBy, string(payload), p.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("restoring pending item: %w", err)
	}
	return nil
}

// GetPending returns a pending item by ID.
func GetPending(ctx context.Context, db *sql.DB, id string) (*model.PendingItem, error) {
	p, err := scanPending(db.QueryRowContext(ctx, pendingSelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pending item: %w", err)
	}
	return p, nil
}

// ListPending returns all pending items, oldest first.
func ListPending(ctx context.Context, db *sql.DB) ([]model.PendingItem, error) {
	rows, err := db.QueryContext(ctx, pendingSelect+` ORDER BY p.submitted_at, p.id`)
	if err != nil {
		return nil, fmt.Errorf("listing pending items: %w", err)
	}
	defer rows.Close()

	var items []model.PendingItem
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pending item: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// CountPending returns the length of the review queue.
func CountPending(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pending items: %w", err)
	}
	return n, nil
}

// DeletePending removes a pending item. It reports whether a row was
// removed, so two reviewers racing on the same item cannot both act on it.
func DeletePending(ctx context.Context, db *sql.DB, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM pending_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting pending item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting pending item: %w", err)
	}
	return n > 0, nil
}

func scanPending(row rowScanner) (*model.PendingItem, error) {
	p := &model.PendingItem{}
	var payload string
	if err := row.Scan(&p.ID, &p.SubmittedBy, &payload, &p.SubmittedAt, &p.SubmitterName); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &p.Item); err != nil {
		return nil, fmt.Errorf("decoding pending item %s: %w", p.ID, err)
	}
	return p, nil
}
