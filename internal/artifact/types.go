package artifact

import (
	"errors"
	"time"

	"github.com/grounded-app/risk-engine/internal/model"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

var (
	// ErrNotFound is returned for an unknown version ID.
	ErrNotFound = errors.New("bundle version not found")
	// ErrNoActive is returned when no bundle has been activated yet.
	ErrNoActive = errors.New("no active bundle")
)

// #region bundle
// Bundle is one immutable trained artifact: the fitted transform, the encoding
// constants it was fitted under, and the model weights.
type Bundle struct {
	VersionID      string
	ParentID       string
	Schema         string
	SequenceLength int
	NFeatures      int
	Policy         vocab.UnknownPolicy
	TransformMin   []float64
	TransformMax   []float64
	ModelType      string
	Weights        model.Weights
	MetricsJSON    string
	CreatedAt      time.Time
}

// #endregion bundle

// #region bundle-with-run
// BundleWithRun pairs a bundle version with its latest run_log row.
type BundleWithRun struct {
	Bundle
	Active   bool
	RunID    string
	Trigger  string
	Decision string
	Reason   string
}

// #endregion bundle-with-run
