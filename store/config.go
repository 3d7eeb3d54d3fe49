package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SetConfig stores value under key, replacing any previous value.
func (q *Queries) SetConfig(ctx context.Context, key, value string) error {
	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		q.log.Error(ctx, "set config failed", "op", "set_config", "key", key, "error", err)
		return fmt.Errorf("%w: set config %s: %w", ErrStoreWrite, key, err)
	}
	return nil
}

// GetConfig returns the value stored under key. ok is false when the key
// was never set.
func (q *Queries) GetConfig(ctx context.Context, key string) (value string, ok bool, err error) {
	err = sqlx.GetContext(ctx, q.ext, &value, `SELECT value FROM config WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		q.log.Error(ctx, "get config failed", "op", "get_config", "key", key, "error", err)
		return "", false, fmt.Errorf("%w: get config %s: %w", ErrStoreRead, key, err)
	}
	return value, true, nil
}
