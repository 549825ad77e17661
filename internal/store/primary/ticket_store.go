package primary

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"helpdesk/internal/models"
)

const ticketColumns = `
	t.id, t.title, t.description, COALESCE(t.status, ''), COALESCE(t.priority, ''),
	COALESCE(c.name, ''), t.created_at, t.updated_at, t.resolved_at`

// --- Ticket Queries ---

// ListResolvedTickets returns every ticket whose status is resolved, in id order.
func (s *StoreImpl) ListResolvedTickets(ctx context.Context) ([]*models.ResolvedTicket, error) {
	query := `
		SELECT t.title, COALESCE(t.description, ''), COALESCE(c.name, ''), COALESCE(t.priority, ''),
		       t.created_at, t.resolved_at
		FROM tickets t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE LOWER(t.status) = 'resolved'
		ORDER BY t.id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolved tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.ResolvedTicket
	for rows.Next() {
		t := &models.ResolvedTicket{}
		var createdAt *time.Time
		if err := rows.Scan(&t.Title, &t.Description, &t.Category, &t.Priority, &createdAt, &t.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resolved ticket: %w", err)
		}
		if createdAt != nil {
			t.CreatedAt = *createdAt
		}
		tickets = append(tickets, t)
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
		       COUNT(*) FILTER (WHERE LOWER(status) = 'resolved')
		FROM tickets`

	var total, resolved int
	if err := s.db.QueryRow(ctx, query).Scan(&total, &resolved); err != nil {
		return 0, 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return total, resolved, nil
}

// CategoryStats aggregates ticket counts and mean resolution hours per category.
func (s *StoreImpl) CategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	query := `
		SELECT COALESCE(c.name, 'Uncategorized') AS category,
		       COUNT(*) AS ticket_count,
		       COUNT(*) FILTER (WHERE LOWER(t.status) = 'resolved') AS resolved_count,
		       (AVG(EXTRACT(EPOCH FROM (t.resolved_at - t.created_at)) / 3600.0)
		           FILTER (WHERE LOWER(t.status) = 'resolved' AND t.resolved_at >= t.created_at))::float8
		FROM tickets t
		LEFT JOIN categories c ON c.id = t.category_id
		GROUP BY 1
		ORDER BY ticket_count DESC, category`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	var stats []models.CategoryStat
	for rows.Next() {
		var st models.CategoryStat
		if err := rows.Scan(&st.Category, &st.TicketCount, &st.ResolvedCount, &st.AvgResolutionHours); err != nil {
			return nil, fmt.Errorf("failed to scan category stat: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category stats: %w", err)
	}
	return stats, nil
}

// GetTicketsByIDs fetches tickets by id. Unknown ids are skipped.
func (s *StoreImpl) GetTicketsByIDs(ctx context.Context, ids []int64) ([]*models.Ticket, error) {
	if len(ids) == 0 {
		return []*models.Ticket{}, nil
	}
	query := `SELECT ` + ticketColumns + `
		FROM tickets t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = ANY($1)
		ORDER BY t.id`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets by ids: %w", err)
	}
	return collectTickets(rows)
}

// RecentTickets returns up to limit tickets, newest first.
func (s *StoreImpl) RecentTickets(ctx context.Context, limit int) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets t
		LEFT JOIN categories c ON c.id = t.category_id
		ORDER BY t.created_at DESC NULLS LAST, t.id DESC
		LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent tickets: %w", err)
	}
	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]*models.Ticket, error) {
	defer rows.Close()

	tickets := []*models.Ticket{}
	for rows.Next() {
		t := &models.Ticket{}
		if err := scanTicket(rows, t); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}
