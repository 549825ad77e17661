// Package mock_store holds testify mocks of the store interfaces.
package mock_store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"helpdesk/internal/models"
	"helpdesk/internal/store"
)

type TicketStore struct {
	mock.Mock
}

var _ store.TicketStore = (*TicketStore)(nil)

func (m *TicketStore) ListResolvedTickets(ctx context.Context) ([]*models.ResolvedTicket, error) {
	args := m.Called(ctx)
	tickets, _ := args.Get(0).([]*models.ResolvedTicket)
	return tickets, args.Error(1)
}

func (m *TicketStore) CountTickets(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *TicketStore) CategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).([]models.CategoryStat)
	return stats, args.Error(1)
}

func (m *TicketStore) GetTicketsByIDs(ctx context.Context, ids []int64) ([]*models.Ticket, error) {
	args := m.Called(ctx, ids)
	tickets, _ := args.Get(0).([]*models.Ticket)
	return tickets, args.Error(1)
}

func (m *TicketStore) RecentTickets(ctx context.Context, limit int) ([]*models.Ticket, error) {
	args := m.Called(ctx, limit)
	tickets, _ := args.Get(0).([]*models.Ticket)
	return tickets, args.Error(1)
}

func (m *TicketStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *TicketStore) Close() error {
	return m.Called().Error(0)
}
