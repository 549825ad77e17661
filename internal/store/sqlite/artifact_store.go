package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"helpdesk/internal/store"
)

func (s *StoreImpl) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM model_artifacts WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check artifact %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *StoreImpl) Read(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM model_artifacts WHERE name = ?`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("artifact %s: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return data, nil
}

func (s *StoreImpl) Write(ctx context.Context, name string, data []byte) error {
	return s.WriteAll(ctx, map[string][]byte{name: data})
}

// WriteAll replaces every blob in a single transaction.
func (s *StoreImpl) WriteAll(ctx context.Context, blobs map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin artifact transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, name := range names {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO model_artifacts (name, data, updated_at) VALUES (?, ?, ?)`,
			name, blobs[name], now)
		if err != nil {
			return fmt.Errorf("failed to write artifact %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit artifacts: %w", err)
	}
	return nil
}
