package model

import (
	"context"
	"fmt"
	"math"

	"github.com/grounded-app/risk-engine/internal/vocab"
	"github.com/grounded-app/risk-engine/internal/window"
)

// ModelType names the baseline in persisted bundles.
const ModelType = "logistic-window-v1"

// InputWidth is the summary width fed to the baseline: last day ++ window mean.
func InputWidth() int { return 2 * vocab.Width() }

// #region baseline
// Baseline is logistic regression over a fixed window summary. Safe for concurrent use.
type Baseline struct {
	w Weights
}

// NewBaseline wraps trained weights.
func NewBaseline(w Weights) (*Baseline, error) {
	if len(w.Coef) != InputWidth() {
		return nil, fmt.Errorf("new baseline: %d coefficients, want %d: %w", len(w.Coef), InputWidth(), ErrShape)
	}
	return &Baseline{w: Weights{Coef: append([]float64(nil), w.Coef...), Bias: w.Bias}}, nil
}

// Weights returns a copy of the parameters.
func (b *Baseline) Weights() Weights {
	return Weights{Coef: append([]float64(nil), b.w.Coef...), Bias: b.w.Bias}
}

// Predict returns the high-risk probability for the day after w.
func (b *Baseline) Predict(ctx context.Context, w window.Window) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	x, err := Summarize(w)
	if err != nil {
		return 0, err
	}
	return sigmoid(dot(b.w.Coef, x) + b.w.Bias), nil
}

// #endregion baseline

// #region summary
// Summarize checks the window shape and reduces it to the last row followed by the column means.
func Summarize(w window.Window) ([]float64, error) {
	if err := CheckShape(w); err != nil {
		return nil, err
	}
	width := vocab.Width()
	x := make([]float64, 2*width)
	copy(x, w[len(w)-1])
	for _, row := range w {
		for j, v := range row {
			x[width+j] += v
		}
	}
	for j := width; j < len(x); j++ {
		x[j] /= float64(len(w))
	}
	return x, nil
}

// CheckShape verifies w is SequenceLength rows of Width columns.
func CheckShape(w window.Window) error {
	if len(w) != vocab.SequenceLength {
		return fmt.Errorf("window has %d rows, want %d: %w", len(w), vocab.SequenceLength, ErrShape)
	}
	for i, row := range w {
		if len(row) != vocab.Width() {
			return fmt.Errorf("window row %d has %d columns, want %d: %w", i, len(row), vocab.Width(), ErrShape)
		}
	}
	return nil
}

// #endregion summary

// #region helpers
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// LogLoss is binary cross-entropy with probabilities clipped to [1e-7, 1-1e-7].
func LogLoss(label int, p float64) float64 {
	const eps = 1e-7
	p = math.Min(math.Max(p, eps), 1-eps)
	if label == 1 {
		return -math.Log(p)
	}
	return -math.Log(1 - p)
}

// #endregion helpers
