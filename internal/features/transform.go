package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

var (
	// ErrNotFitted is returned when a zero Transform is used.
	ErrNotFitted = errors.New("normalization transform not fitted")
	// ErrSchemaMismatch is returned when a transform was fitted under another encoding schema.
	ErrSchemaMismatch = errors.New("transform schema mismatch")
	// ErrEmpty is returned when fitting on no data.
	ErrEmpty = errors.New("no rows to fit")
)

// #region transform

// Transform is a fitted min-max scaler over the numeric block. It is an immutable value:
// Fit and NewTransform are the only constructors and no method mutates it.
type Transform struct {
	schema string
	min    []float64
	max    []float64
}

// Fit computes column minima and maxima over every day of every user in h.
// Rolling means are computed per user and never cross a user boundary.
func Fit(h record.History) (Transform, error) {
	mins := make([]float64, NumericWidth)
	maxs := make([]float64, NumericWidth)
	for i := range mins {
		mins[i] = math.Inf(1)
		maxs[i] = math.Inf(-1)
	}
	rows := 0
	for _, id := range h.Users() {
		for _, row := range Numeric(h[id]) {
			for j, v := range row {
				mins[j] = math.Min(mins[j], v)
				maxs[j] = math.Max(maxs[j], v)
			}
			rows++
		}
	}
	if rows == 0 {
		return Transform{}, fmt.Errorf("fit: %w", ErrEmpty)
	}
	return Transform{schema: vocab.Fingerprint(), min: mins, max: maxs}, nil
}

// NewTransform rebuilds a persisted transform. schema must match the running encoder.
func NewTransform(schema string, min, max []float64) (Transform, error) {
	if schema != vocab.Fingerprint() {
		return Transform{}, fmt.Errorf("load transform %s, encoder is %s: %w", schema, vocab.Fingerprint(), ErrSchemaMismatch)
	}
	if len(min) != NumericWidth || len(max) != NumericWidth {
		return Transform{}, fmt.Errorf("load transform: %d/%d columns, want %d: %w", len(min), len(max), NumericWidth, ErrSchemaMismatch)
	}
	t := Transform{schema: schema, min: append([]float64(nil), min...), max: append([]float64(nil), max...)}
	for j := range t.min {
		if t.min[j] > t.max[j] {
			return Transform{}, fmt.Errorf("load transform: column %s min %.4f > max %.4f", vocab.NumericColumns[j], t.min[j], t.max[j])
		}
	}
	return t, nil
}

// Fitted reports whether t came from Fit or NewTransform.
func (t Transform) Fitted() bool { return t.schema != "" }

// Schema returns the encoding fingerprint the transform was fitted under.
func (t Transform) Schema() string { return t.schema }

// Min returns a copy of the column minima.
func (t Transform) Min() []float64 { return append([]float64(nil), t.min...) }

// Max returns a copy of the column maxima.
func (t Transform) Max() []float64 { return append([]float64(nil), t.max...) }

// #endregion transform

// #region apply

// ApplyRow scales one raw numeric row into dst. Zero-range columns use unit scale,
// so the fitted value maps to 0. Values outside the fitted range are not clipped.
func (t Transform) ApplyRow(dst, row []float64) error {
	if !t.Fitted() {
		return ErrNotFitted
	}
	if t.schema != vocab.Fingerprint() {
		return fmt.Errorf("apply: %w", ErrSchemaMismatch)
	}
	if len(row) != NumericWidth || len(dst) < NumericWidth {
		return fmt.Errorf("apply: row has %d columns, want %d: %w", len(row), NumericWidth, ErrSchemaMismatch)
	}
	for j, v := range row {
		scale := t.max[j] - t.min[j]
		if scale == 0 {
			scale = 1
		}
		dst[j] = (v - t.min[j]) / scale
	}
	return nil
}

// Apply scales raw numeric rows and returns new rows; the input is untouched.
func (t Transform) Apply(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, NumericWidth)
		if err := t.ApplyRow(out[i], row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

// #endregion apply
