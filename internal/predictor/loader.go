package predictor

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"helpdesk/internal/models"
)

// DefaultMinResolvedTickets is the history size below which synthetic data is used.
const DefaultMinResolvedTickets = 10

// TicketSource is the slice of store.TicketStore the loader reads from.
type TicketSource interface {
	ListResolvedTickets(ctx context.Context) ([]*models.ResolvedTicket, error)
}

// TrainingSet is the labelled data for one training run.
type TrainingSet struct {
	Examples []models.TrainingExample
	Source   string
	// Excluded counts resolved tickets dropped as invalid.
	Excluded int
}

// TrainingDataLoader turns resolved ticket history into training examples,
// substituting generated data when the history is missing or too small.
type TrainingDataLoader struct {
	source     TicketSource
	minTickets int
	samples    *SampleGenerator
}

func NewTrainingDataLoader(source TicketSource, minTickets int, seed uint64) *TrainingDataLoader {
	if minTickets <= 0 {
		minTickets = DefaultMinResolvedTickets
	}
	return &TrainingDataLoader{
		source:     source,
		minTickets: minTickets,
		samples:    NewSampleGenerator(seed),
	}
}

// Load never fails: every problem with the ticket history falls back to
// synthetic examples.
func (l *TrainingDataLoader) Load(ctx context.Context) TrainingSet {
	if l.source == nil {
		log.Warn("no ticket store configured, training on synthetic data")
		return l.synthetic(0)
	}

	tickets, err := l.source.ListResolvedTickets(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to read ticket history, training on synthetic data")
		return l.synthetic(0)
	}
	if len(tickets) < l.minTickets {
		log.WithFields(log.Fields{
			"resolved": len(tickets),
			"minimum":  l.minTickets,
		}).Info("not enough resolved tickets, training on synthetic data")
		return l.synthetic(0)
	}

	examples := make([]models.TrainingExample, 0, len(tickets))
	excluded := 0
	for _, t := range tickets {
		ex, ok := exampleFromTicket(t)
		if !ok {
			excluded++
			continue
		}
		examples = append(examples, ex)
	}
	if excluded > 0 {
		log.WithField("excluded", excluded).Warn("skipped resolved tickets with invalid category or timestamps")
	}
	if len(examples) < l.minTickets {
		log.WithFields(log.Fields{
			"valid":   len(examples),
			"minimum": l.minTickets,
		}).Info("not enough valid resolved tickets, training on synthetic data")
		return l.synthetic(excluded)
	}

	return TrainingSet{Examples: examples, Source: models.TrainingSourceHistory, Excluded: excluded}
}

func (l *TrainingDataLoader) synthetic(excluded int) TrainingSet {
	return TrainingSet{
		Examples: l.samples.Generate(),
		Source:   models.TrainingSourceSynthetic,
		Excluded: excluded,
	}
}

func exampleFromTicket(t *models.ResolvedTicket) (models.TrainingExample, bool) {
	if t == nil || t.ResolvedAt == nil || t.ResolvedAt.IsZero() || t.CreatedAt.IsZero() ||
		strings.TrimSpace(t.Category) == "" {
		return models.TrainingExample{}, false
	}
	hours := t.ResolvedAt.Sub(t.CreatedAt).Hours()
	if hours < 0 {
		return models.TrainingExample{}, false
	}
	return models.TrainingExample{
		Description:     t.Title + " " + t.Description,
		Category:        t.Category,
		Priority:        t.Priority,
		ResolutionHours: hours,
	}, true
}
