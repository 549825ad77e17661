// Package worker holds the asynq handlers run by `helpdesk worker`.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"helpdesk/internal/metrics"
	"helpdesk/internal/models"
	"helpdesk/internal/tasks"
)

var ErrNotPersisted = errors.New("models trained but not persisted")

// Trainer retrains and persists the prediction models.
type Trainer interface {
	Train(ctx context.Context) (*models.TrainingReport, error)
}

type RetrainDeps struct {
	Trainer Trainer
}

// HandleRetrainJob trains new models and stores the training report as the
// task result. Models that could not be saved fail the job, since the API
// servers only pick up persisted models.
func HandleRetrainJob(deps RetrainDeps) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		logger := log.WithField("task_type", t.Type())
		if rw := t.ResultWriter(); rw != nil {
			logger = logger.WithField("task_id", rw.TaskID())
		}
		logger.WithField("status", models.JobStatusRunning).Info("retraining models")

		report, err := deps.Trainer.Train(ctx)
		if err != nil {
			metrics.RetrainJobsTotal.WithLabelValues(models.JobStatusFailed).Inc()
			logger.WithError(err).WithField("status", models.JobStatusFailed).Error("retrain job failed")
			return fmt.Errorf("retrain models: %w", err)
		}
		if !report.Persisted {
			metrics.RetrainJobsTotal.WithLabelValues(models.JobStatusFailed).Inc()
			logger.WithField("status", models.JobStatusFailed).Error("retrained models could not be saved")
			return ErrNotPersisted
		}

		if rw := t.ResultWriter(); rw != nil {
			payload, err := json.Marshal(report)
			if err != nil {
				return fmt.Errorf("encode training report: %w", err)
			}
			if _, err := rw.Write(payload); err != nil {
				logger.WithError(err).Warn("failed to write training report to task result")
			}
		}

		metrics.RetrainJobsTotal.WithLabelValues(models.JobStatusCompleted).Inc()
		logger.WithFields(log.Fields{
			"status":   models.JobStatusCompleted,
			"source":   report.Source,
			"samples":  report.Samples,
			"accuracy": report.CategoryAccuracy,
		}).Info("retrain job completed")
		return nil
	}
}

// RegisterHandlers wires every task type this worker serves into mux.
func RegisterHandlers(mux *asynq.ServeMux, deps RetrainDeps) {
	log.WithField("task_type", tasks.TypeRetrainModels).Info("registering retrain handler")
	mux.HandleFunc(tasks.TypeRetrainModels, HandleRetrainJob(deps))
}
