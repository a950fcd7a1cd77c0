package artifact

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grounded-app/risk-engine/internal/features"
	"github.com/grounded-app/risk-engine/internal/model"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

// NewBundle captures a trained encoder and weights under a fresh version ID.
func NewBundle(enc *features.Encoder, w model.Weights, parentID, metricsJSON string) Bundle {
	t := enc.Transform()
	return Bundle{
		VersionID:      uuid.New().String(),
		ParentID:       parentID,
		Schema:         t.Schema(),
		SequenceLength: vocab.SequenceLength,
		NFeatures:      enc.Width(),
		Policy:         enc.Policy(),
		TransformMin:   t.Min(),
		TransformMax:   t.Max(),
		ModelType:      model.ModelType,
		Weights:        model.Weights{Coef: append([]float64(nil), w.Coef...), Bias: w.Bias},
		MetricsJSON:    metricsJSON,
		CreatedAt:      time.Now().UTC(),
	}
}

// Encoder rebuilds the immutable encoder. Any drift between the bundle's
// encoding constants and the running binary is an ErrSchemaMismatch.
func (b Bundle) Encoder() (*features.Encoder, error) {
	if b.SequenceLength != vocab.SequenceLength || b.NFeatures != vocab.Width() {
		return nil, fmt.Errorf("bundle %s: shape %dx%d, encoder is %dx%d: %w",
			b.VersionID, b.SequenceLength, b.NFeatures, vocab.SequenceLength, vocab.Width(), features.ErrSchemaMismatch)
	}
	t, err := features.NewTransform(b.Schema, b.TransformMin, b.TransformMax)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", b.VersionID, err)
	}
	policy, err := vocab.ParsePolicy(string(b.Policy))
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", b.VersionID, err)
	}
	return features.NewEncoder(t, policy)
}

// Predictor rebuilds the model.
func (b Bundle) Predictor() (*model.Baseline, error) {
	if b.ModelType != model.ModelType {
		return nil, fmt.Errorf("bundle %s: unsupported model type %q", b.VersionID, b.ModelType)
	}
	p, err := model.NewBaseline(b.Weights)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", b.VersionID, err)
	}
	return p, nil
}
