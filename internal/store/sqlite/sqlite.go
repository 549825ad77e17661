// Package sqlite implements the ticket and artifact stores on SQLite, reading
// the helpdesk database schema (tickets, categories) in place.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"helpdesk/internal/store"
)

// StoreImpl implements store.TicketStore and store.ArtifactStore using SQLite.
type StoreImpl struct {
	db *sql.DB
}

var (
	_ store.TicketStore   = (*StoreImpl)(nil)
	_ store.ArtifactStore = (*StoreImpl)(nil)
)

// NewSQLiteStore opens the database at dsn and verifies the connection.
func NewSQLiteStore(ctx context.Context, dsn string) (*StoreImpl, error) {
	if dsn == "" {
		return nil, errors.New("sqlite DSN cannot be empty")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// every new connection to :memory: is a fresh, empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping sqlite database: %w", err)
	}
	return &StoreImpl{db: db}, nil
}

// NewFromDB wraps an already opened handle.
func NewFromDB(db *sql.DB) *StoreImpl {
	return &StoreImpl{db: db}
}

func (s *StoreImpl) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *StoreImpl) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the helpdesk tables when they do not exist yet.
func (s *StoreImpl) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        VARCHAR(100) NOT NULL UNIQUE,
			description TEXT,
			color       VARCHAR(7) DEFAULT '#007bff',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       VARCHAR(200) NOT NULL,
			description TEXT,
			status      VARCHAR(20) DEFAULT 'open',
			priority    VARCHAR(20) DEFAULT 'medium',
			category_id INTEGER REFERENCES categories(id),
			created_by  INTEGER,
			assigned_to INTEGER,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			resolved_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS model_artifacts (
			name       TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure sqlite schema: %w", err)
		}
	}
	return nil
}

// --- Helper Functions ---

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp accepts the textual forms SQLite and its drivers store
// timestamps in. Values without a zone are taken as UTC.
func parseTimestamp(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(raw.String)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			if t.IsZero() {
				// go-sqlite3 yields the zero time for DATETIME text it cannot parse
				return nil, nil
			}
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", value)
}
