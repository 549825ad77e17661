package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"helpdesk/internal/models"
)

// ListResolvedTickets returns every ticket whose status is resolved, in id order.
func (s *StoreImpl) ListResolvedTickets(ctx context.Context) ([]*models.ResolvedTicket, error) {
	query := `
		SELECT t.title, COALESCE(t.description, ''), COALESCE(c.name, ''), COALESCE(t.priority, ''),
		       t.created_at, t.resolved_at
		FROM tickets t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE LOWER(t.status) = 'resolved'
		ORDER BY t.id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolved tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.ResolvedTicket
	for rows.Next() {
		var (
			t                 models.ResolvedTicket
			created, resolved sql.NullString
		)
		if err := rows.Scan(&t.Title, &t.Description, &t.Category, &t.Priority, &created, &resolved); err != nil {
			return nil, fmt.Errorf("failed to scan resolved ticket: %w", err)
		}
		// unreadable timestamps stay unset; the loader drops such rows
		if createdAt, err := parseTimestamp(created); err != nil {
			log.WithError(err).WithField("title", t.Title).Warn("ignoring unreadable created_at")
		} else if createdAt != nil {
			t.CreatedAt = *createdAt
		}
		resolvedAt, err := parseTimestamp(resolved)
		if err != nil {
			log.WithError(err).WithField("title", t.Title).Warn("ignoring unreadable resolved_at")
		}
		t.ResolvedAt = resolvedAt
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resolved tickets: %w", err)
	}
	return tickets, nil
}

// CountTickets returns the total number of tickets and how many are resolved.
func (s *StoreImpl) CountTickets(ctx context.Context) (int, int, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN LOWER(status) = 'resolved' THEN 1 ELSE 0 END), 0)
		FROM tickets`

	var total, resolved int
	if err := s.db.QueryRowContext(ctx, query).Scan(&total, &resolved); err != nil {
		return 0, 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return total, resolved, nil
}

// CategoryStats aggregates ticket counts and mean resolution hours per category.
func (s *StoreImpl) CategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	query := `
		SELECT COALESCE(c.name, 'Uncategorized') AS category,
		       COUNT(*) AS ticket_count,
		       COALESCE(SUM(CASE WHEN LOWER(t.status) = 'resolved' THEN 1 ELSE 0 END), 0) AS resolved_count,
		       AVG(CASE
		             WHEN LOWER(t.status) = 'resolved'
		              AND t.resolved_at IS NOT NULL
		              AND julianday(t.resolved_at) >= julianday(t.created_at)
		             THEN (julianday(t.resolved_at) - julianday(t.created_at)) * 24.0
		           END) AS avg_resolution_hours
		FROM tickets t
		LEFT JOIN categories c ON c.id = t.category_id
		GROUP BY 1
		ORDER BY ticket_count DESC, category`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	var stats []models.CategoryStat
	for rows.Next() {
		var (
			st  models.CategoryStat
			avg sql.NullFloat64
		)
		if err := rows.Scan(&st.Category, &st.TicketCount, &st.ResolvedCount, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan category stat: %w", err)
		}
		if avg.Valid {
			v := avg.Float64
			st.AvgResolutionHours = &v
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category stats: %w", err)
	}
	return stats, nil
}

const ticketColumns = `t.id, t.title, COALESCE(t.description, ''), COALESCE(t.status, ''), COALESCE(t.priority, ''),
		       COALESCE(c.name, ''), t.created_at, t.updated_at, t.resolved_at`

// GetTicketsByIDs fetches tickets by id. Unknown ids are skipped.
func (s *StoreImpl) GetTicketsByIDs(ctx context.Context, ids []int64) ([]*models.Ticket, error) {
	if len(ids) == 0 {
		return []*models.Ticket{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id IN (` + placeholders + `)
		ORDER BY t.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets by ids: %w", err)
	}
	return collectTickets(rows)
}

// RecentTickets returns up to limit tickets, newest first.
func (s *StoreImpl) RecentTickets(ctx context.Context, limit int) ([]*models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets t
		LEFT JOIN categories c ON c.id = t.category_id
		ORDER BY t.created_at IS NULL, t.created_at DESC, t.id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent tickets: %w", err)
	}
	return collectTickets(rows)
}

func collectTickets(rows *sql.Rows) ([]*models.Ticket, error) {
	defer rows.Close()

	tickets := []*models.Ticket{}
	for rows.Next() {
		var (
			t                          models.Ticket
			created, updated, resolved sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Category,
			&created, &updated, &resolved); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		if ts := lenientTimestamp(created, t.ID, "created_at"); ts != nil {
			t.CreatedAt = *ts
		}
		if ts := lenientTimestamp(updated, t.ID, "updated_at"); ts != nil {
			t.UpdatedAt = *ts
		}
		t.ResolvedAt = lenientTimestamp(resolved, t.ID, "resolved_at")
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

func lenientTimestamp(raw sql.NullString, id int64, column string) *time.Time {
	ts, err := parseTimestamp(raw)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"ticket": id, "column": column}).Warn("ignoring unreadable timestamp")
	}
	return ts
}
