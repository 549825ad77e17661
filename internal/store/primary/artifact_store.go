package primary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"helpdesk/internal/store"
)

// --- Model Artifacts ---

func (s *StoreImpl) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM model_artifacts WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check artifact %s: %w", name, err)
	}
	return exists, nil
}

func (s *StoreImpl) Read(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM model_artifacts WHERE name = $1`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("artifact %s: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return data, nil
}

func (s *StoreImpl) Write(ctx context.Context, name string, data []byte) error {
	return s.WriteAll(ctx, map[string][]byte{name: data})
}

// WriteAll upserts every blob in a single transaction.
func (s *StoreImpl) WriteAll(ctx context.Context, blobs map[string][]byte) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin artifact transaction: %w", err)
	}

	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()
	for _, name := range names {
		_, err := tx.Exec(ctx, `
			INSERT INTO model_artifacts (name, data, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
			name, blobs[name], now)
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.WithError(rbErr).Warn("failed to roll back artifact transaction")
			}
			return fmt.Errorf("failed to write artifact %s: %w", name, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit artifacts: %w", err)
	}
	return nil
}
