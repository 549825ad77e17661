package primary

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"helpdesk/internal/models"
	"helpdesk/internal/store"
)

// pgxPool is the part of *pgxpool.Pool the store uses.
type pgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// StoreImpl implements store.TicketStore and store.ArtifactStore on PostgreSQL.
type StoreImpl struct {
	db pgxPool
}

var (
	_ store.TicketStore   = (*StoreImpl)(nil)
	_ store.ArtifactStore = (*StoreImpl)(nil)
)

// NewPrimaryStore creates a new PostgreSQL primary store implementation.
func NewPrimaryStore(ctx context.Context, dsn string) (*StoreImpl, error) {
	if dsn == "" {
		return nil, errors.New("database DSN cannot be empty")
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database DSN: %w", err)
	}

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &StoreImpl{db: dbpool}, nil
}

// Ping checks the database connection.
func (s *StoreImpl) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection pool.
func (s *StoreImpl) Close() error {
	s.db.Close()
	return nil
}

// EnsureArtifactTable creates the model_artifacts table when missing.
func (s *StoreImpl) EnsureArtifactTable(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS model_artifacts (
			name       TEXT PRIMARY KEY,
			data       BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create model_artifacts table: %w", err)
	}
	return nil
}

// --- Helper Functions ---

// scanTicket scans one row selected with ticketColumns.
func scanTicket(rows pgx.Rows, dest *models.Ticket) error {
	var description *string
	if err := rows.Scan(
		&dest.ID,
		&dest.Title,
		&description,
		&dest.Status,
		&dest.Priority,
		&dest.Category,
		&dest.CreatedAt,
		&dest.UpdatedAt,
		&dest.ResolvedAt,
	); err != nil {
		return err
	}
	if description != nil {
		dest.Description = *description
	}
	return nil
}
