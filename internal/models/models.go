package models

import (
	"time"
)

// Ticket is the read model of a helpdesk ticket joined with its category name.
type Ticket struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Status      string     `db:"status" json:"status"`
	Priority    string     `db:"priority" json:"priority"`
	Category    string     `db:"category" json:"category"` // joined from categories.name, empty when unset
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// ResolvedTicket is the subset of a resolved ticket used for training.
type ResolvedTicket struct {
	Title       string
	Description string
	Category    string
	Priority    string
	CreatedAt   time.Time  // zero when the stored value is NULL or unreadable
	ResolvedAt  *time.Time // nil for legacy rows resolved before the column existed
}

// TrainingExample is one labelled row for fitting the models.
type TrainingExample struct {
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Priority        string  `json:"priority"`
	ResolutionHours float64 `json:"resolution_hours"`
}

// Confidence levels reported with a prediction.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// PredictionInsight is the combined category and resolution-time prediction.
type PredictionInsight struct {
	PredictedCategory              string  `json:"predicted_category"`
	CategoryConfidence             float64 `json:"category_confidence"` // percent, one decimal
	PredictedResolutionTimeHours   float64 `json:"predicted_resolution_time_hours"`
	PredictedResolutionTimeDisplay string  `json:"predicted_resolution_time_display"`
	ConfidenceLevel                string  `json:"confidence_level"`
}

// Training data sources.
const (
	TrainingSourceHistory   = "history"
	TrainingSourceSynthetic = "synthetic"
)

// TrainingReport summarizes one training run.
type TrainingReport struct {
	Source           string        `json:"source"`
	Samples          int           `json:"samples"`
	TrainSamples     int           `json:"train_samples"`
	TestSamples      int           `json:"test_samples"`
	Features         int           `json:"features"`
	Classes          []string      `json:"classes"`
	CategoryAccuracy float64       `json:"category_accuracy"`
	ResolutionMAE    float64       `json:"resolution_mae_hours"`
	Duration         time.Duration `json:"duration_ns"`
	TrainedAt        time.Time     `json:"trained_at"`
	Persisted        bool          `json:"persisted"`
}

// Training data recommendations reported by model status.
const (
	RecommendationGood         = "Good"
	RecommendationLimited      = "Limited"
	RecommendationInsufficient = "Insufficient"
)

// ModelStatus describes whether models are loaded and how much history backs them.
type ModelStatus struct {
	ModelsLoaded     bool            `json:"models_loaded"`
	TotalTickets     int             `json:"total_tickets"`
	TrainingDataSize int             `json:"training_data_size"`
	Recommendation   string          `json:"recommendation"`
	LastTraining     *TrainingReport `json:"last_training,omitempty"`
}

// CategoryStat aggregates tickets per category.
type CategoryStat struct {
	Category           string   `db:"category" json:"category"`
	TicketCount        int      `db:"ticket_count" json:"ticket_count"`
	ResolvedCount      int      `db:"resolved_count" json:"resolved_count"`
	AvgResolutionHours *float64 `db:"avg_resolution_hours" json:"avg_resolution_hours,omitempty"` // nil when nothing is resolved
}
