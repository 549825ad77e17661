package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"helpdesk/internal/ml/features"
	"helpdesk/internal/ml/labels"
	"helpdesk/internal/ml/tree"
	"helpdesk/internal/models"
	"helpdesk/internal/store"
)

// Artifact names of a persisted bundle.
const (
	CategoryModelArtifact       = "category_model.json"
	ResolutionTimeModelArtifact = "resolution_time_model.json"
	VectorizerArtifact          = "tfidf_vectorizer.json"
	LabelEncoderArtifact        = "label_encoder.json"
)

var bundleArtifacts = []string{
	CategoryModelArtifact,
	ResolutionTimeModelArtifact,
	VectorizerArtifact,
	LabelEncoderArtifact,
}

var ErrInconsistentBundle = errors.New("model artifacts are inconsistent")

// Bundle is the set of fitted models served together.
type Bundle struct {
	Classifier *tree.Classifier
	Regressor  *tree.Forest
	Vectorizer *features.TfidfVectorizer
	Labels     *labels.Encoder
}

// Validate checks that the parts were fitted against each other.
func (b *Bundle) Validate() error {
	switch {
	case b == nil || b.Classifier == nil || b.Regressor == nil || b.Vectorizer == nil || b.Labels == nil:
		return fmt.Errorf("%w: bundle is incomplete", ErrInconsistentBundle)
	case !b.Vectorizer.Fitted():
		return fmt.Errorf("%w: vectorizer is not fitted", ErrInconsistentBundle)
	case b.Labels.Len() == 0:
		return fmt.Errorf("%w: label encoder has no classes", ErrInconsistentBundle)
	case b.Classifier.Tree == nil || len(b.Classifier.Tree.Nodes) == 0:
		return fmt.Errorf("%w: classifier is not fitted", ErrInconsistentBundle)
	case len(b.Regressor.Trees) == 0:
		return fmt.Errorf("%w: regressor is not fitted", ErrInconsistentBundle)
	}
	dim := b.Vectorizer.Dim()
	if b.Classifier.NumFeatures != dim || b.Regressor.NumFeatures != dim {
		return fmt.Errorf("%w: vectorizer has %d features, classifier %d, regressor %d",
			ErrInconsistentBundle, dim, b.Classifier.NumFeatures, b.Regressor.NumFeatures)
	}
	if b.Classifier.NumClasses != b.Labels.Len() {
		return fmt.Errorf("%w: classifier has %d classes, encoder %d",
			ErrInconsistentBundle, b.Classifier.NumClasses, b.Labels.Len())
	}
	return nil
}

// BundleStore persists bundles as four JSON artifacts.
type BundleStore struct {
	artifacts store.ArtifactStore
}

func NewBundleStore(artifacts store.ArtifactStore) *BundleStore {
	return &BundleStore{artifacts: artifacts}
}

// Save encodes every part before writing any, then writes them as one unit.
func (s *BundleStore) Save(ctx context.Context, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	parts := map[string]any{
		CategoryModelArtifact:       b.Classifier,
		ResolutionTimeModelArtifact: b.Regressor,
		VectorizerArtifact:          b.Vectorizer,
		LabelEncoderArtifact:        b.Labels,
	}
	blobs := make(map[string][]byte, len(parts))
	for name, part := range parts {
		data, err := json.Marshal(part)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		blobs[name] = data
	}
	if err := s.artifacts.WriteAll(ctx, blobs); err != nil {
		return fmt.Errorf("write model artifacts: %w", err)
	}
	return nil
}

// Load returns models.ErrModelsNotFound unless all four artifacts exist.
func (s *BundleStore) Load(ctx context.Context) (*Bundle, error) {
	for _, name := range bundleArtifacts {
		ok, err := s.artifacts.Exists(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", name, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", models.ErrModelsNotFound, name)
		}
	}

	b := &Bundle{
		Classifier: &tree.Classifier{},
		Regressor:  &tree.Forest{},
		Vectorizer: &features.TfidfVectorizer{},
		Labels:     &labels.Encoder{},
	}
	targets := map[string]any{
		CategoryModelArtifact:       b.Classifier,
		ResolutionTimeModelArtifact: b.Regressor,
		VectorizerArtifact:          b.Vectorizer,
		LabelEncoderArtifact:        b.Labels,
	}
	for _, name := range bundleArtifacts {
		data, err := s.artifacts.Read(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: missing %s", models.ErrModelsNotFound, name)
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if err := json.Unmarshal(data, targets[name]); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
