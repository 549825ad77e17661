// Package metrics registers the Prometheus collectors of the prediction subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes.
const (
	OutcomeModel    = "model"    // answered by the trained models
	OutcomeEmpty    = "empty"    // description normalized to nothing
	OutcomeFallback = "fallback" // models unavailable or inference failed
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_predictions_total",
			Help: "Total number of predictions served, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_training_runs_total",
			Help: "Total number of model training runs, by data source and result",
		},
		[]string{"source", "result"},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "helpdesk_training_duration_seconds",
			Help:    "Duration of model training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	ModelsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "helpdesk_models_loaded",
			Help: "1 when a trained model bundle is being served, 0 otherwise",
		},
	)

	RetrainJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helpdesk_retrain_jobs_total",
			Help: "Total number of background retrain jobs processed, by result",
		},
		[]string{"result"},
	)
)
