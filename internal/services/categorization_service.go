package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"helpdesk/internal/models"
	"helpdesk/internal/store"
	categorizer "helpdesk/pkg/categorizer"
)

// TicketCategorization is the suggested category for a stored ticket.
type TicketCategorization struct {
	TicketID          int64   `json:"ticket_id"`
	Title             string  `json:"title"`
	CurrentCategory   string  `json:"current_category,omitempty"`
	SuggestedCategory string  `json:"suggested_category"`
	Confidence        float64 `json:"confidence"`
	Changed           bool    `json:"changed"`
}

type CategorizationService struct {
	Categorizer categorizer.ContentCategorizer
	tickets     store.TicketStore
}

func NewCategorizationService(cat categorizer.ContentCategorizer, tickets store.TicketStore) *CategorizationService {
	return &CategorizationService{
		Categorizer: cat,
		tickets:     tickets,
	}
}

func (s *CategorizationService) CategorizeTicket(ctx context.Context, ticket *models.Ticket) (*TicketCategorization, error) {
	res, err := s.Categorizer.Categorize(ctx, categorizer.CategorizationRequest{
		Title:           ticket.Title,
		Description:     ticket.Description,
		CurrentCategory: ticket.Category,
	})
	if err != nil {
		return nil, err
	}
	return &TicketCategorization{
		TicketID:          ticket.ID,
		Title:             ticket.Title,
		CurrentCategory:   ticket.Category,
		SuggestedCategory: res.SuggestedCategory,
		Confidence:        res.Confidence,
		Changed:           res.Changed,
	}, nil
}

// SuggestForTicket categorizes one stored ticket.
func (s *CategorizationService) SuggestForTicket(ctx context.Context, ticketID int64) (*TicketCategorization, error) {
	if s.tickets == nil {
		return nil, fmt.Errorf("ticket store is not configured")
	}
	tickets, err := s.tickets.GetTicketsByIDs(ctx, []int64{ticketID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ticket %d: %w", ticketID, err)
	}
	if len(tickets) == 0 || tickets[0] == nil {
		return nil, fmt.Errorf("ticket %d: %w", ticketID, models.ErrNotFound)
	}
	return s.CategorizeTicket(ctx, tickets[0])
}

// BatchCategorize suggests categories for the given tickets. Unknown ids are
// left out of the result; tickets that fail to categorize are logged and skipped.
func (s *CategorizationService) BatchCategorize(ctx context.Context, ticketIDs []int64) (map[int64]*TicketCategorization, error) {
	results := make(map[int64]*TicketCategorization, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return results, nil
	}
	if s.tickets == nil {
		return nil, fmt.Errorf("ticket store is not configured")
	}

	tickets, err := s.tickets.GetTicketsByIDs(ctx, ticketIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets for batch categorization: %w", err)
	}

	for _, ticket := range tickets {
		if ticket == nil {
			log.Warn("BatchCategorize skipped nil ticket returned by GetTicketsByIDs")
			continue
		}
		cat, err := s.CategorizeTicket(ctx, ticket)
		if err != nil {
			log.WithError(err).WithField("ticket_id", ticket.ID).Warn("failed to categorize ticket during batch")
			continue
		}
		results[ticket.ID] = cat
	}
	return results, nil
}
