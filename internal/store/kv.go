package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// KV is a string key/value store scoped to one namespace. Each user's
// collection lives in its own namespace.
type KV struct {
	DB        *sql.DB
	Namespace string
}

// UserNamespace returns the KV namespace holding the data of user id.
func UserNamespace(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}

// Get returns the value stored under key. ok is false if the key is absent.
func (kv KV) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = kv.DB.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`, kv.Namespace, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s/%s: %w", kv.Namespace, key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (kv KV) Set(ctx context.Context, key, value string) error {
	_, err := kv.DB.ExecContext(ctx,
		`INSERT INTO kv (namespace, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		kv.Namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", kv.Namespace, key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (kv KV) Delete(ctx context.Context, key string) error {
	_, err := kv.DB.ExecContext(ctx,
		`DELETE FROM kv WHERE namespace = ? AND key = ?`, kv.Namespace, key,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", kv.Namespace, key, err)
	}
	return nil
}

// Keys lists the keys of the namespace in lexical order.
func (kv KV) Keys(ctx context.Context) ([]string, error) {
	rows, err := kv.DB.QueryContext(ctx,
		`SELECT key FROM kv WHERE namespace = ? ORDER BY key`, kv.Namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kv.Namespace, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
