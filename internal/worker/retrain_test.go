package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"helpdesk/internal/models"
	"helpdesk/internal/tasks"
)

type mockTrainer struct {
	mock.Mock
}

func (m *mockTrainer) Train(ctx context.Context) (*models.TrainingReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*models.TrainingReport)
	return report, args.Error(1)
}

func TestHandleRetrainJob(t *testing.T) {
	task := asynq.NewTask(tasks.TypeRetrainModels, nil)

	t.Run("success", func(t *testing.T) {
		trainer := new(mockTrainer)
		trainer.On("Train", mock.Anything).Return(&models.TrainingReport{Source: models.TrainingSourceHistory, Persisted: true}, nil).Once()

		require.NoError(t, HandleRetrainJob(RetrainDeps{Trainer: trainer})(context.Background(), task))
		trainer.AssertExpectations(t)
	})

	t.Run("training failure", func(t *testing.T) {
		trainer := new(mockTrainer)
		trainer.On("Train", mock.Anything).Return(nil, models.ErrTrainingFailed).Once()

		err := HandleRetrainJob(RetrainDeps{Trainer: trainer})(context.Background(), task)
		assert.ErrorIs(t, err, models.ErrTrainingFailed)
	})

	t.Run("not persisted", func(t *testing.T) {
		trainer := new(mockTrainer)
		trainer.On("Train", mock.Anything).Return(&models.TrainingReport{Persisted: false}, nil).Once()

		err := HandleRetrainJob(RetrainDeps{Trainer: trainer})(context.Background(), task)
		assert.True(t, errors.Is(err, ErrNotPersisted))
	})
}

func TestRegisterHandlers(t *testing.T) {
	trainer := new(mockTrainer)
	trainer.On("Train", mock.Anything).Return(&models.TrainingReport{Persisted: true}, nil).Once()

	mux := asynq.NewServeMux()
	RegisterHandlers(mux, RetrainDeps{Trainer: trainer})

	require.NoError(t, mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeRetrainModels, nil)))
	trainer.AssertExpectations(t)

	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask("unknown:task", nil)))
}
