package predictor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"helpdesk/internal/models"
)

func TestConfidenceLevel(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0.80, models.ConfidenceHigh},
		{0.71, models.ConfidenceHigh},
		{0.70, models.ConfidenceMedium},
		{0.60, models.ConfidenceMedium},
		{0.50, models.ConfidenceLow},
		{0.30, models.ConfidenceLow},
		{0, models.ConfidenceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceLevel(tt.p), "p=%v", tt.p)
	}
}

func TestFormatResolutionTime(t *testing.T) {
	assert.Equal(t, "5.0 hours", FormatResolutionTime(5.0))
	assert.Equal(t, "23.9 hours", FormatResolutionTime(23.9))
	assert.Equal(t, "1.0 days", FormatResolutionTime(24.0))
	assert.Equal(t, "2.0 days", FormatResolutionTime(48.0))
	assert.Equal(t, "7.0 days", FormatResolutionTime(168.0))
}

func TestClampAndRound(t *testing.T) {
	assert.Equal(t, 1.0, clampHours(0.2))
	assert.Equal(t, 168.0, clampHours(500))
	assert.Equal(t, 12.5, clampHours(12.5))
	assert.Equal(t, DefaultResolutionHours, clampHours(math.NaN()))
	assert.Equal(t, 12.3, round1(12.34))
	assert.Equal(t, 12.4, round1(12.35000001))
}

func TestBuildInsight(t *testing.T) {
	got := buildInsight("Billing", 0.8234, 48)
	assert.Equal(t, models.PredictionInsight{
		PredictedCategory:              "Billing",
		CategoryConfidence:             82.3,
		PredictedResolutionTimeHours:   48,
		PredictedResolutionTimeDisplay: "2.0 days",
		ConfidenceLevel:                models.ConfidenceHigh,
	}, got)
}
