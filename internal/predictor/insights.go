package predictor

import (
	"fmt"
	"math"

	"helpdesk/internal/models"
)

// Defaults served when no model can answer.
const (
	DefaultCategory        = "General Inquiry"
	DefaultResolutionHours = 24.0

	MinResolutionHours = 1.0
	MaxResolutionHours = 168.0
)

// ConfidenceLevel buckets a class probability.
func ConfidenceLevel(p float64) string {
	switch {
	case p > 0.7:
		return models.ConfidenceHigh
	case p > 0.5:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// FormatResolutionTime renders hours below a day as hours, otherwise as days.
func FormatResolutionTime(hours float64) string {
	if hours < 24 {
		return fmt.Sprintf("%.1f hours", hours)
	}
	return fmt.Sprintf("%.1f days", hours/24)
}

func clampHours(h float64) float64 {
	if math.IsNaN(h) {
		return DefaultResolutionHours
	}
	return math.Min(MaxResolutionHours, math.Max(MinResolutionHours, h))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func buildInsight(category string, confidence, hours float64) models.PredictionInsight {
	return models.PredictionInsight{
		PredictedCategory:              category,
		CategoryConfidence:             round1(confidence * 100),
		PredictedResolutionTimeHours:   hours,
		PredictedResolutionTimeDisplay: FormatResolutionTime(hours),
		ConfidenceLevel:                ConfidenceLevel(confidence),
	}
}
