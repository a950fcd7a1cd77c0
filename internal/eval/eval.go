package eval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/grounded-app/risk-engine/internal/model"
	"github.com/grounded-app/risk-engine/internal/window"
)

// ErrNoSamples is returned when evaluating an empty set.
var ErrNoSamples = errors.New("no samples to evaluate")

// ErrBadProbability is returned when a predictor yields a value outside [0,1] or NaN.
var ErrBadProbability = errors.New("probability outside [0,1]")

// #region eval-harness
// EvalHarness scores a predictor over labelled windows.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run predicts every sample and computes the metrics.
func (h *EvalHarness) Run(ctx context.Context, p model.Predictor, samples []window.Sample) (EvalResult, error) {
	if len(samples) == 0 {
		return EvalResult{}, ErrNoSamples
	}
	labels := make([]int, len(samples))
	probs := make([]float64, len(samples))
	for i, s := range samples {
		prob, err := p.Predict(ctx, s.Window)
		if err != nil {
			return EvalResult{}, fmt.Errorf("eval sample %d (user %d): %w", i, s.UserID, err)
		}
		if math.IsNaN(prob) || prob < 0 || prob > 1 {
			return EvalResult{}, fmt.Errorf("eval sample %d (user %d): probability %v: %w", i, s.UserID, prob, ErrBadProbability)
		}
		labels[i] = s.Label
		probs[i] = prob
	}
	return Compute(labels, probs, h.config.Threshold), nil
}

// #endregion eval-harness

// #region compute
// Compute derives the metrics from parallel label and probability slices.
// Undefined ratios (no predicted or actual positives) are 0. AUC is 0.5 when only one class is present.
func Compute(labels []int, probs []float64, threshold float64) EvalResult {
	var c Confusion
	var loss float64
	for i, y := range labels {
		pred := probs[i] > threshold
		switch {
		case y == 1 && pred:
			c.TP++
		case y == 1:
			c.FN++
		case pred:
			c.FP++
		default:
			c.TN++
		}
		loss += model.LogLoss(y, probs[i])
	}

	r := EvalResult{Threshold: threshold, Confusion: c}
	if n := c.Total(); n > 0 {
		r.Accuracy = float64(c.TP+c.TN) / float64(n)
		r.LogLoss = loss / float64(n)
	}
	r.Precision = ratio(c.TP, c.TP+c.FP)
	r.Recall = ratio(c.TP, c.TP+c.FN)
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
	r.AUC = rocAUC(labels, probs)

	r.Metrics = []EvalMetric{
		{Name: "accuracy", Value: r.Accuracy},
		{Name: "precision", Value: r.Precision},
		{Name: "recall", Value: r.Recall},
		{Name: "f1", Value: r.F1},
		{Name: "auc", Value: r.AUC},
		{Name: "log_loss", Value: r.LogLoss},
	}
	return r
}

// #endregion compute

// #region helpers
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// rocAUC is the Mann-Whitney statistic with tied scores sharing their average rank.
func rocAUC(labels []int, probs []float64) float64 {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return probs[idx[a]] < probs[idx[b]] })

	var pos, neg int
	var rankSum float64
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && probs[idx[j]] == probs[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // ranks i+1..j
		for k := i; k < j; k++ {
			if labels[idx[k]] == 1 {
				rankSum += avg
				pos++
			} else {
				neg++
			}
		}
		i = j
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}
	return (rankSum - float64(pos*(pos+1))/2) / float64(pos*neg)
}

// #endregion helpers
