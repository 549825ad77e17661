// Package predictor trains and serves the ticket category classifier and the
// resolution-time regressor.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"helpdesk/internal/metrics"
	"helpdesk/internal/ml/dataset"
	"helpdesk/internal/ml/features"
	"helpdesk/internal/ml/labels"
	"helpdesk/internal/ml/tree"
	"helpdesk/internal/models"
	"helpdesk/internal/util"
	categorizer "helpdesk/pkg/categorizer"
)

var ErrInsufficientData = errors.New("not enough usable training examples")

// State is the lifecycle of a Predictor.
type State int32

const (
	StateUninitialized State = iota
	StateTrained
)

func (s State) String() string {
	if s == StateTrained {
		return "trained"
	}
	return "uninitialized"
}

// Options tune training. Zero fields take the defaults.
type Options struct {
	Seed         uint64
	MaxFeatures  int
	MaxDepth     int
	Estimators   int
	TrainTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Seed:         42,
		MaxFeatures:  features.DefaultMaxFeatures,
		MaxDepth:     tree.DefaultMaxDepth,
		Estimators:   tree.DefaultEstimators,
		TrainTimeout: 5 * time.Minute,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = d.MaxFeatures
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.Estimators <= 0 {
		o.Estimators = d.Estimators
	}
	return o
}

// Predictor owns the served model bundle. Inference reads one published
// snapshot; training builds a fresh bundle and swaps it in.
type Predictor struct {
	opts    Options
	loader  *TrainingDataLoader
	bundles *BundleStore // nil disables persistence

	current    atomic.Pointer[Bundle]
	lastReport atomic.Pointer[models.TrainingReport]

	trainMu sync.Mutex
	ready   singleflight.Group
}

var _ categorizer.ContentCategorizer = (*Predictor)(nil)

func New(loader *TrainingDataLoader, bundles *BundleStore, opts Options) *Predictor {
	return &Predictor{
		opts:    opts.withDefaults(),
		loader:  loader,
		bundles: bundles,
	}
}

func (p *Predictor) State() State {
	if p.current.Load() != nil {
		return StateTrained
	}
	return StateUninitialized
}

func (p *Predictor) Ready() bool { return p.State() == StateTrained }

// LastTraining returns the report of the last successful training run in
// this process, or nil.
func (p *Predictor) LastTraining() *models.TrainingReport {
	return p.lastReport.Load()
}

// EnsureReady loads persisted models, training new ones when none can be
// loaded. Concurrent callers share a single attempt, which runs detached from
// any one caller's cancellation and is bounded by Options.TrainTimeout.
func (p *Predictor) EnsureReady(ctx context.Context) error {
	if p.Ready() {
		return nil
	}
	shared := context.WithoutCancel(ctx)
	ch := p.ready.DoChan("ensure-ready", func() (any, error) {
		if p.Ready() {
			return nil, nil
		}
		ctx := shared
		if err := p.Reload(ctx); err == nil {
			return nil, nil
		} else if errors.Is(err, models.ErrModelsNotFound) {
			log.Info("no persisted models found, training new models")
		} else {
			log.WithError(err).Warn("failed to load persisted models, training new models")
		}
		_, err := p.Train(ctx)
		return nil, err
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload replaces the served bundle with the persisted one.
func (p *Predictor) Reload(ctx context.Context) error {
	if p.bundles == nil {
		return fmt.Errorf("%w: persistence disabled", models.ErrModelsNotFound)
	}
	b, err := p.bundles.Load(ctx)
	if err != nil {
		return err
	}
	p.publish(b)
	log.WithFields(log.Fields{
		"classes":  b.Labels.Len(),
		"features": b.Vectorizer.Dim(),
		"trees":    len(b.Regressor.Trees),
	}).Info("loaded persisted models")
	return nil
}

// Train fits a new bundle from the current ticket history and serves it.
// On failure the previously served bundle, if any, stays in place.
func (p *Predictor) Train(ctx context.Context) (*models.TrainingReport, error) {
	p.trainMu.Lock()
	defer p.trainMu.Unlock()

	if p.opts.TrainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.TrainTimeout)
		defer cancel()
	}

	start := time.Now()
	set := p.loader.Load(ctx)
	logger := log.WithFields(log.Fields{"source": set.Source, "examples": len(set.Examples)})
	logger.Info("training models")

	bundle, report, err := p.fit(ctx, set)
	if err != nil {
		metrics.TrainingRunsTotal.WithLabelValues(set.Source, "failure").Inc()
		logger.WithError(err).Error("model training failed")
		return nil, fmt.Errorf("%w: %w", models.ErrTrainingFailed, err)
	}

	p.publish(bundle)

	if p.bundles != nil {
		if err := p.bundles.Save(ctx, bundle); err != nil {
			logger.WithError(err).Warn("trained models could not be saved, serving them from memory")
		} else {
			report.Persisted = true
		}
	}

	report.Duration = time.Since(start)
	report.TrainedAt = time.Now().UTC()
	p.lastReport.Store(report)

	metrics.TrainingRunsTotal.WithLabelValues(set.Source, "success").Inc()
	metrics.TrainingDuration.Observe(report.Duration.Seconds())
	logger.WithFields(log.Fields{
		"accuracy":  report.CategoryAccuracy,
		"mae_hours": report.ResolutionMAE,
		"features":  report.Features,
		"persisted": report.Persisted,
		"duration":  report.Duration,
	}).Info("models trained")
	return report, nil
}

func (p *Predictor) publish(b *Bundle) {
	p.current.Store(b)
	metrics.ModelsLoaded.Set(1)
}

func (p *Predictor) fit(ctx context.Context, set TrainingSet) (*Bundle, *models.TrainingReport, error) {
	docs := make([]string, 0, len(set.Examples))
	categories := make([]string, 0, len(set.Examples))
	hours := make([]float64, 0, len(set.Examples))
	for _, ex := range set.Examples {
		text := util.Normalize(ex.Description)
		if text == "" {
			continue
		}
		docs = append(docs, text)
		categories = append(categories, ex.Category)
		hours = append(hours, ex.ResolutionHours)
	}
	if len(docs) < 2 {
		return nil, nil, fmt.Errorf("%w: %d examples with text", ErrInsufficientData, len(docs))
	}

	vectorizer := features.NewTfidfVectorizer(p.opts.MaxFeatures)
	if err := vectorizer.Fit(docs); err != nil {
		return nil, nil, err
	}
	encoder := labels.NewEncoder()
	if err := encoder.Fit(categories); err != nil {
		return nil, nil, err
	}
	y, err := encoder.EncodeAll(categories)
	if err != nil {
		return nil, nil, err
	}
	X := vectorizer.Transform(docs)

	split, err := dataset.TrainTestSplit(len(docs), dataset.DefaultTestFraction, p.opts.Seed)
	if err != nil {
		return nil, nil, err
	}
	trainX, trainY, trainH := gather(split.Train, X, y, hours)
	testX, testY, testH := gather(split.Test, X, y, hours)

	classifier := tree.NewClassifier(p.opts.MaxDepth, p.opts.Seed)
	if err := classifier.Fit(trainX, trainY, encoder.Len(), vectorizer.Dim()); err != nil {
		return nil, nil, fmt.Errorf("fit category classifier: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	regressor := tree.NewForest(p.opts.Estimators, p.opts.Seed)
	if err := regressor.Fit(ctx, trainX, trainH, vectorizer.Dim()); err != nil {
		return nil, nil, fmt.Errorf("fit resolution time regressor: %w", err)
	}

	predY := make([]int, len(testX))
	predH := make([]float64, len(testX))
	for i, x := range testX {
		if predY[i], _, err = classifier.Predict(x); err != nil {
			return nil, nil, err
		}
		if predH[i], err = regressor.Predict(x); err != nil {
			return nil, nil, err
		}
	}

	bundle := &Bundle{Classifier: classifier, Regressor: regressor, Vectorizer: vectorizer, Labels: encoder}
	report := &models.TrainingReport{
		Source:           set.Source,
		Samples:          len(docs),
		TrainSamples:     len(trainX),
		TestSamples:      len(testX),
		Features:         vectorizer.Dim(),
		Classes:          append([]string(nil), encoder.Classes...),
		CategoryAccuracy: dataset.Accuracy(predY, testY),
		ResolutionMAE:    dataset.MeanAbsoluteError(predH, testH),
	}
	return bundle, report, nil
}

func gather(idx []int, X []features.Vector, y []int, h []float64) ([]features.Vector, []int, []float64) {
	outX := make([]features.Vector, len(idx))
	outY := make([]int, len(idx))
	outH := make([]float64, len(idx))
	for i, j := range idx {
		outX[i], outY[i], outH[i] = X[j], y[j], h[j]
	}
	return outX, outY, outH
}

// --- Inference ---

// snapshot returns the served bundle, training one first if needed.
// It returns nil when no bundle can be made available.
func (p *Predictor) snapshot(ctx context.Context) *Bundle {
	if b := p.current.Load(); b != nil {
		return b
	}
	if err := p.EnsureReady(ctx); err != nil {
		log.WithError(err).Warn("models unavailable, serving default prediction")
		return nil
	}
	return p.current.Load()
}

// PredictCategory returns the most likely category of description and its
// probability. Blank text and unavailable models yield (DefaultCategory, 0).
func (p *Predictor) PredictCategory(ctx context.Context, description string) (string, float64) {
	text := util.Normalize(description)
	if text == "" {
		metrics.PredictionsTotal.WithLabelValues("category", metrics.OutcomeEmpty).Inc()
		return DefaultCategory, 0
	}
	b := p.snapshot(ctx)
	if b == nil {
		metrics.PredictionsTotal.WithLabelValues("category", metrics.OutcomeFallback).Inc()
		return DefaultCategory, 0
	}
	label, confidence, err := classify(b, text)
	if err != nil {
		log.WithError(err).Warn("category prediction failed, serving default")
		metrics.PredictionsTotal.WithLabelValues("category", metrics.OutcomeFallback).Inc()
		return DefaultCategory, 0
	}
	metrics.PredictionsTotal.WithLabelValues("category", metrics.OutcomeModel).Inc()
	return label, confidence
}

// PredictResolutionTime returns the expected hours to resolve, clamped to
// [1, 168] and rounded to one decimal. Blank text and unavailable models
// yield DefaultResolutionHours.
func (p *Predictor) PredictResolutionTime(ctx context.Context, description string) float64 {
	text := util.Normalize(description)
	if text == "" {
		metrics.PredictionsTotal.WithLabelValues("resolution_time", metrics.OutcomeEmpty).Inc()
		return DefaultResolutionHours
	}
	b := p.snapshot(ctx)
	if b == nil {
		metrics.PredictionsTotal.WithLabelValues("resolution_time", metrics.OutcomeFallback).Inc()
		return DefaultResolutionHours
	}
	hours, err := regress(b, text)
	if err != nil {
		log.WithError(err).Warn("resolution time prediction failed, serving default")
		metrics.PredictionsTotal.WithLabelValues("resolution_time", metrics.OutcomeFallback).Inc()
		return DefaultResolutionHours
	}
	metrics.PredictionsTotal.WithLabelValues("resolution_time", metrics.OutcomeModel).Inc()
	return round1(clampHours(hours))
}

// Insights combines both predictions into a presentable result.
func (p *Predictor) Insights(ctx context.Context, description string) models.PredictionInsight {
	category, confidence := p.PredictCategory(ctx, description)
	hours := p.PredictResolutionTime(ctx, description)
	return buildInsight(category, confidence, hours)
}

// Categorize suggests a category for a stored ticket.
func (p *Predictor) Categorize(ctx context.Context, req categorizer.CategorizationRequest) (categorizer.CategorizationResult, error) {
	if util.Normalize(req.Text()) != "" {
		if err := p.EnsureReady(ctx); err != nil {
			return categorizer.CategorizationResult{}, fmt.Errorf("%w: %w", models.ErrModelUnavailable, err)
		}
	}
	category, confidence := p.PredictCategory(ctx, req.Text())
	return categorizer.CategorizationResult{
		SuggestedCategory: category,
		Confidence:        confidence,
		Changed:           req.CurrentCategory != "" && category != req.CurrentCategory,
	}, nil
}

func classify(b *Bundle, text string) (label string, confidence float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	id, confidence, err := b.Classifier.Predict(b.Vectorizer.TransformOne(text))
	if err != nil {
		return "", 0, err
	}
	label, err = b.Labels.Decode(id)
	if err != nil {
		return "", 0, err
	}
	return label, confidence, nil
}

func regress(b *Bundle, text string) (hours float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("regressor panic: %v", r)
		}
	}()
	return b.Regressor.Predict(b.Vectorizer.TransformOne(text))
}
