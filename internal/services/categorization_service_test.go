package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"helpdesk/internal/models"
	"helpdesk/internal/services"
	mock_store "helpdesk/internal/tests/mocks/store"
	categorizer "helpdesk/pkg/categorizer"
)

type mockCategorizer struct {
	mock.Mock
}

func (m *mockCategorizer) Categorize(ctx context.Context, req categorizer.CategorizationRequest) (categorizer.CategorizationResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(categorizer.CategorizationResult), args.Error(1)
}

func TestBatchCategorize(t *testing.T) {
	tickets := new(mock_store.TicketStore)
	tickets.On("GetTicketsByIDs", mock.Anything, []int64{1, 2, 3}).Return([]*models.Ticket{
		{ID: 1, Title: "Refund", Description: "charged twice", Category: "Technical Issue"},
		nil,
		{ID: 3, Title: "Crash", Description: "app crashes"},
	}, nil).Once()

	cat := new(mockCategorizer)
	cat.On("Categorize", mock.Anything, categorizer.CategorizationRequest{
		Title: "Refund", Description: "charged twice", CurrentCategory: "Technical Issue",
	}).Return(categorizer.CategorizationResult{SuggestedCategory: "Billing", Confidence: 0.9, Changed: true}, nil).Once()
	cat.On("Categorize", mock.Anything, categorizer.CategorizationRequest{
		Title: "Crash", Description: "app crashes",
	}).Return(categorizer.CategorizationResult{}, models.ErrModelUnavailable).Once()

	svc := services.NewCategorizationService(cat, tickets)
	results, err := svc.BatchCategorize(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)

	require.Len(t, results, 1)
	got := results[1]
	assert.Equal(t, "Billing", got.SuggestedCategory)
	assert.Equal(t, "Technical Issue", got.CurrentCategory)
	assert.True(t, got.Changed)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)

	tickets.AssertExpectations(t)
	cat.AssertExpectations(t)
}

func TestBatchCategorize_Empty(t *testing.T) {
	results, err := services.NewCategorizationService(new(mockCategorizer), nil).BatchCategorize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatchCategorize_StoreError(t *testing.T) {
	tickets := new(mock_store.TicketStore)
	tickets.On("GetTicketsByIDs", mock.Anything, []int64{7}).Return(nil, errors.New("connection reset")).Once()

	_, err := services.NewCategorizationService(new(mockCategorizer), tickets).BatchCategorize(context.Background(), []int64{7})
	assert.ErrorContains(t, err, "connection reset")
}

func TestSuggestForTicket(t *testing.T) {
	tickets := new(mock_store.TicketStore)
	tickets.On("GetTicketsByIDs", mock.Anything, []int64{1}).Return([]*models.Ticket{
		{ID: 1, Title: "Refund", Description: "charged twice", Category: "Billing"},
	}, nil).Once()
	tickets.On("GetTicketsByIDs", mock.Anything, []int64{2}).Return([]*models.Ticket{}, nil).Once()

	cat := new(mockCategorizer)
	cat.On("Categorize", mock.Anything, mock.Anything).
		Return(categorizer.CategorizationResult{SuggestedCategory: "Billing", Confidence: 0.75}, nil).Once()

	svc := services.NewCategorizationService(cat, tickets)
	got, err := svc.SuggestForTicket(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TicketID)
	assert.False(t, got.Changed)

	_, err = svc.SuggestForTicket(context.Background(), 2)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
