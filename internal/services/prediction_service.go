package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"helpdesk/internal/models"
	"helpdesk/internal/store"
)

// Thresholds on resolved ticket count for the training data recommendation.
const (
	GoodTrainingTickets    = 50
	LimitedTrainingTickets = 10
)

// RecentTicketsLimit is how many tickets the insights view lists.
const RecentTicketsLimit = 10

var ErrJobQueueUnavailable = errors.New("background job queue is not configured")

// Predictor is the model side of the prediction service.
type Predictor interface {
	Insights(ctx context.Context, description string) models.PredictionInsight
	Train(ctx context.Context) (*models.TrainingReport, error)
	Reload(ctx context.Context) error
	Ready() bool
	LastTraining() *models.TrainingReport
}

// BatchPrediction pairs an input description with its insight.
type BatchPrediction struct {
	Description string                   `json:"description"`
	Predictions models.PredictionInsight `json:"predictions"`
}

// PredictionService validates caller input and exposes model operations.
type PredictionService struct {
	predictor Predictor
	tickets   store.TicketStore
	jobs      store.JobClient // optional
}

func NewPredictionService(p Predictor, tickets store.TicketStore, jobs store.JobClient) *PredictionService {
	return &PredictionService{predictor: p, tickets: tickets, jobs: jobs}
}

// Predict rejects blank descriptions; everything else gets an insight.
func (s *PredictionService) Predict(ctx context.Context, description string) (*models.PredictionInsight, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", models.ErrValidation)
	}
	insight := s.predictor.Insights(ctx, description)
	return &insight, nil
}

// BatchPredict skips blank entries. The input list itself must not be empty.
func (s *PredictionService) BatchPredict(ctx context.Context, descriptions []string) ([]BatchPrediction, error) {
	if len(descriptions) == 0 {
		return nil, fmt.Errorf("%w: descriptions list is required", models.ErrValidation)
	}
	results := make([]BatchPrediction, 0, len(descriptions))
	for _, d := range descriptions {
		if strings.TrimSpace(d) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, BatchPrediction{Description: d, Predictions: s.predictor.Insights(ctx, d)})
	}
	return results, nil
}

// ModelStatus reports model readiness and the amount of ticket history.
func (s *PredictionService) ModelStatus(ctx context.Context) (*models.ModelStatus, error) {
	status := &models.ModelStatus{
		ModelsLoaded: s.predictor.Ready(),
		LastTraining: s.predictor.LastTraining(),
	}
	if s.tickets != nil {
		total, resolved, err := s.tickets.CountTickets(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count tickets: %w", err)
		}
		status.TotalTickets = total
		status.TrainingDataSize = resolved
	}
	status.Recommendation = Recommendation(status.TrainingDataSize)
	return status, nil
}

// Recommendation grades a resolved ticket count as training data.
func Recommendation(resolved int) string {
	switch {
	case resolved >= GoodTrainingTickets:
		return models.RecommendationGood
	case resolved >= LimitedTrainingTickets:
		return models.RecommendationLimited
	default:
		return models.RecommendationInsufficient
	}
}

// Retrain trains synchronously on the caller's goroutine.
func (s *PredictionService) Retrain(ctx context.Context) (*models.TrainingReport, error) {
	return s.predictor.Train(ctx)
}

// EnqueueRetrain schedules a retrain on the worker. A retrain already queued
// or running is reported as models.ErrConflict.
func (s *PredictionService) EnqueueRetrain(ctx context.Context) (string, error) {
	if s.jobs == nil {
		return "", ErrJobQueueUnavailable
	}
	id, err := s.jobs.EnqueueRetrain(ctx)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", fmt.Errorf("%w: a retrain is already scheduled", models.ErrConflict)
		}
		return "", fmt.Errorf("failed to enqueue retrain: %w", err)
	}
	log.WithField("job_id", id).Info("retrain job enqueued")
	return id, nil
}

// ReloadModels swaps in the persisted models, e.g. after a worker retrain.
func (s *PredictionService) ReloadModels(ctx context.Context) error {
	return s.predictor.Reload(ctx)
}

// CategoryInsights returns per-category ticket statistics.
func (s *PredictionService) CategoryInsights(ctx context.Context) ([]models.CategoryStat, error) {
	if s.tickets == nil {
		return []models.CategoryStat{}, nil
	}
	stats, err := s.tickets.CategoryStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load category statistics: %w", err)
	}
	return stats, nil
}

// RecentTickets returns the RecentTicketsLimit newest tickets.
func (s *PredictionService) RecentTickets(ctx context.Context) ([]*models.Ticket, error) {
	if s.tickets == nil {
		return []*models.Ticket{}, nil
	}
	tickets, err := s.tickets.RecentTickets(ctx, RecentTicketsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent tickets: %w", err)
	}
	return tickets, nil
}
