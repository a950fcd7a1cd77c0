package pipeline

import (
	"github.com/grounded-app/risk-engine/internal/artifact"
	"github.com/grounded-app/risk-engine/internal/eval"
	"github.com/grounded-app/risk-engine/internal/gate"
	"github.com/grounded-app/risk-engine/internal/model"
	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
	"github.com/grounded-app/risk-engine/internal/window"
)

// Triggers recorded in run_log.
const (
	TriggerTrain    = "train"
	TriggerActivate = "activate"
	TriggerRollback = "rollback"
)

// #region split-config
// SplitConfig selects the user-level held-out fractions. Val is taken from what remains after Test.
type SplitConfig struct {
	TestFraction float64 `json:"test_fraction" yaml:"test_fraction" mapstructure:"test_fraction"`
	ValFraction  float64 `json:"val_fraction" yaml:"val_fraction" mapstructure:"val_fraction"`
	Seed         uint64  `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// DefaultSplitConfig holds out 20% of users for test and 20% of the rest for validation.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{TestFraction: 0.2, ValFraction: 0.2, Seed: 42}
}

// #endregion split-config

// #region options
// Options configures one training run.
type Options struct {
	Split  SplitConfig
	Train  model.TrainConfig
	Eval   eval.EvalConfig
	Policy vocab.UnknownPolicy
}

// DefaultOptions returns the defaults of every stage.
func DefaultOptions() Options {
	return Options{
		Split:  DefaultSplitConfig(),
		Train:  model.DefaultTrainConfig(),
		Eval:   eval.DefaultEvalConfig(),
		Policy: vocab.UnknownZero,
	}
}

// #endregion options

// #region result
// SplitStats is the window balance of each user split.
type SplitStats struct {
	Train window.Balance
	Val   window.Balance
	Test  window.Balance
}

// TrainResult is a trained but not yet persisted bundle with everything needed to gate it.
type TrainResult struct {
	Bundle   artifact.Bundle
	Eval     eval.EvalResult
	Training model.TrainResult
	Split    window.Split
	Stats    SplitStats
	Seed     uint64
}

// PromoteResult is the outcome of gating and persisting a trained bundle.
type PromoteResult struct {
	VersionID string
	RunID     string
	Decision  gate.GateDecision
	Activated bool
}

// #endregion result

// SamplePrediction is one scored window next to its label.
type SamplePrediction struct {
	UserID      record.UserID
	Offset      int
	Probability float64
	Predicted   int
	Label       int
}

// Correct reports whether the thresholded prediction matches the label.
func (s SamplePrediction) Correct() bool { return s.Predicted == s.Label }
