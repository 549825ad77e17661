package apihandlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"helpdesk/internal/app"
	"helpdesk/internal/models"
	"helpdesk/internal/services"
	"helpdesk/internal/store"
	mock_store "helpdesk/internal/tests/mocks/store"
	categorizer "helpdesk/pkg/categorizer"
)

type stubPredictor struct {
	mock.Mock
}

func (m *stubPredictor) Insights(ctx context.Context, description string) models.PredictionInsight {
	return m.Called(ctx, description).Get(0).(models.PredictionInsight)
}

func (m *stubPredictor) Train(ctx context.Context) (*models.TrainingReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*models.TrainingReport)
	return report, args.Error(1)
}

func (m *stubPredictor) Reload(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *stubPredictor) Ready() bool                      { return m.Called().Bool(0) }

func (m *stubPredictor) LastTraining() *models.TrainingReport {
	report, _ := m.Called().Get(0).(*models.TrainingReport)
	return report
}

func (m *stubPredictor) Categorize(ctx context.Context, req categorizer.CategorizationRequest) (categorizer.CategorizationResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(categorizer.CategorizationResult), args.Error(1)
}

type fixture struct {
	router    *gin.Engine
	predictor *stubPredictor
	tickets   *mock_store.TicketStore
	jobs      *mock_store.JobClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		predictor: new(stubPredictor),
		tickets:   new(mock_store.TicketStore),
		jobs:      new(mock_store.JobClient),
	}
	a := &app.App{
		TicketStore:           f.tickets,
		JobClient:             f.jobs,
		PredictionService:     services.NewPredictionService(f.predictor, f.tickets, f.jobs),
		CategorizationService: services.NewCategorizationService(f.predictor, f.tickets),
	}
	f.router = gin.New()
	NewAPIHandler(a).RegisterRoutes(f.router)
	return f
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "error envelope in %s", w.Body.String())
	return e["code"].(string)
}

var insight = models.PredictionInsight{
	PredictedCategory:              "Technical Issue",
	CategoryConfidence:             82.5,
	PredictedResolutionTimeHours:   5,
	PredictedResolutionTimeDisplay: "5.0 hours",
	ConfidenceLevel:                models.ConfidenceHigh,
}

func TestPredictHandler(t *testing.T) {
	f := newFixture(t)
	f.predictor.On("Insights", mock.Anything, "login broken").Return(insight).Once()

	w := f.do(http.MethodPost, "/api/v1/predictions/predict", PredictRequest{Description: "login broken"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success     bool                     `json:"success"`
		Predictions models.PredictionInsight `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, insight, resp.Predictions)
	f.predictor.AssertExpectations(t)
}

func TestPredictHandler_Validation(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/predictions/predict", PredictRequest{Description: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", errorCode(t, w))

	w = f.do(http.MethodPost, "/api/v1/predictions/predict", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.predictor.AssertNotCalled(t, "Insights", mock.Anything, mock.Anything)
}

func TestBatchPredictHandler(t *testing.T) {
	f := newFixture(t)
	f.predictor.On("Insights", mock.Anything, "login broken").Return(insight).Once()

	w := f.do(http.MethodPost, "/api/v1/predictions/batch-predict", BatchPredictRequest{Descriptions: []string{"", "login broken", " "}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []services.BatchPrediction `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "login broken", resp.Results[0].Description)

	w = f.do(http.MethodPost, "/api/v1/predictions/batch-predict", BatchPredictRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetrainHandler_Sync(t *testing.T) {
	f := newFixture(t)
	f.predictor.On("Train", mock.Anything).Return(&models.TrainingReport{Source: models.TrainingSourceSynthetic, Samples: 36}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/predictions/retrain", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Models retrained successfully", body["message"])
	assert.Equal(t, models.TrainingSourceSynthetic, body["report"].(map[string]any)["source"])

	failed := fmt.Errorf("%w: %w", models.ErrTrainingFailed, errors.New("empty vocabulary"))
	f.predictor.On("Train", mock.Anything).Return(nil, failed).Once()
	w = f.do(http.MethodPost, "/api/v1/predictions/retrain", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to retrain models", body["message"])
	assert.Contains(t, body["error"], "empty vocabulary")

	f.predictor.On("Train", mock.Anything).Return(nil, errors.New("boom")).Once()
	w = f.do(http.MethodPost, "/api/v1/predictions/retrain", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", errorCode(t, w))
}

func TestRetrainHandler_Async(t *testing.T) {
	f := newFixture(t)
	f.jobs.On("EnqueueRetrain", mock.Anything).Return("job-1", nil).Once()
	f.jobs.On("EnqueueRetrain", mock.Anything).Return("", store.ErrDuplicate).Once()

	w := f.do(http.MethodPost, "/api/v1/predictions/retrain?async=true", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	body := decode(t, w)
	assert.Equal(t, "job-1", body["job_id"])
	assert.Equal(t, models.JobStatusEnqueued, body["status"])

	w = f.do(http.MethodPost, "/api/v1/predictions/retrain?async=true", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, "/api/v1/predictions/retrain?async=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.predictor.AssertNotCalled(t, "Train", mock.Anything)
}

func TestReloadHandler(t *testing.T) {
	f := newFixture(t)
	f.predictor.On("Reload", mock.Anything).Return(nil).Once()
	f.predictor.On("Reload", mock.Anything).Return(models.ErrModelsNotFound).Once()

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/predictions/reload", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/v1/predictions/reload", nil).Code)
}

func TestModelStatusHandler(t *testing.T) {
	f := newFixture(t)
	f.predictor.On("Ready").Return(true)
	f.predictor.On("LastTraining").Return(nil)
	f.tickets.On("CountTickets", mock.Anything).Return(120, 60, nil).Once()

	w := f.do(http.MethodGet, "/api/v1/predictions/model-status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status models.ModelStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.ModelStatus{
		ModelsLoaded:     true,
		TotalTickets:     120,
		TrainingDataSize: 60,
		Recommendation:   models.RecommendationGood,
	}, status)
}

func TestCategoryInsightsHandler(t *testing.T) {
	f := newFixture(t)
	avg := 3.5
	f.tickets.On("CategoryStats", mock.Anything).Return([]models.CategoryStat{
		{Category: "Billing", TicketCount: 4, ResolvedCount: 2, AvgResolutionHours: &avg},
	}, nil).Once()
	f.tickets.On("RecentTickets", mock.Anything, services.RecentTicketsLimit).Return([]*models.Ticket{
		{ID: 9, Title: "Printer offline", Status: "open"},
	}, nil).Once()

	w := f.do(http.MethodGet, "/api/v1/predictions/insights", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Categories    []models.CategoryStat `json:"categories"`
		RecentTickets []models.Ticket       `json:"recent_tickets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Categories, 1)
	assert.Equal(t, 3.5, *resp.Categories[0].AvgResolutionHours)
	require.Len(t, resp.RecentTickets, 1)
	assert.Equal(t, "Printer offline", resp.RecentTickets[0].Title)
}

func TestBatchCategorizeHandler(t *testing.T) {
	f := newFixture(t)
	f.tickets.On("GetTicketsByIDs", mock.Anything, []int64{2, 9}).Return([]*models.Ticket{
		{ID: 2, Title: "Refund", Description: "charged twice"},
	}, nil).Once()
	f.predictor.On("Categorize", mock.Anything, mock.Anything).
		Return(categorizer.CategorizationResult{SuggestedCategory: "Billing", Confidence: 0.9}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/predictions/categorize", BatchCategorizeRequest{TicketIDs: []int64{2, 9}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []services.TicketCategorization `json:"results"`
		Missing []int64                         `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Billing", resp.Results[0].SuggestedCategory)
	assert.Equal(t, []int64{9}, resp.Missing)

	w = f.do(http.MethodPost, "/api/v1/predictions/categorize", BatchCategorizeRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggestCategoryHandler(t *testing.T) {
	f := newFixture(t)
	f.tickets.On("GetTicketsByIDs", mock.Anything, []int64{404}).Return([]*models.Ticket{}, nil).Once()

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/tickets/404/suggested-category", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/tickets/abc/suggested-category", nil).Code)
}

func TestHealthHandler(t *testing.T) {
	f := newFixture(t)
	f.tickets.On("Ping", mock.Anything).Return(nil).Once()
	f.tickets.On("Ping", mock.Anything).Return(errors.New("database is locked")).Once()

	w := f.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", decode(t, w)["status"])
}
