package model

import (
	"context"
	"errors"

	"github.com/grounded-app/risk-engine/internal/window"
)

var (
	// ErrShape is returned for a window that is not SequenceLength x Width.
	ErrShape = errors.New("window shape mismatch")
	// ErrNoSamples is returned when training on an empty set.
	ErrNoSamples = errors.New("no training samples")
)

// #region predictor
// Predictor maps one feature window to a next-day high-risk probability in [0,1].
type Predictor interface {
	Predict(ctx context.Context, w window.Window) (float64, error)
}

// #endregion predictor

// #region train-config
// TrainConfig holds optimizer, class weighting and callback parameters for the baseline.
type TrainConfig struct {
	LearningRate      float64    `json:"learning_rate" yaml:"learning_rate" mapstructure:"learning_rate"`
	Epochs            int        `json:"epochs" yaml:"epochs" mapstructure:"epochs"`
	BatchSize         int        `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	L2                float64    `json:"l2" yaml:"l2" mapstructure:"l2"`
	ClassWeights      [2]float64 `json:"class_weights" yaml:"class_weights" mapstructure:"class_weights"` // [negative, positive]
	PlateauFactor     float64    `json:"plateau_factor" yaml:"plateau_factor" mapstructure:"plateau_factor"`
	PlateauPatience   int        `json:"plateau_patience" yaml:"plateau_patience" mapstructure:"plateau_patience"`
	MinLearningRate   float64    `json:"min_learning_rate" yaml:"min_learning_rate" mapstructure:"min_learning_rate"`
	EarlyStopPatience int        `json:"early_stop_patience" yaml:"early_stop_patience" mapstructure:"early_stop_patience"`
	Seed              uint64     `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// DefaultTrainConfig returns the baseline defaults: positives weighted 2.5x,
// learning rate halved after 7 flat epochs, stop after 15.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		LearningRate:      0.05,
		Epochs:            100,
		BatchSize:         32,
		L2:                1e-4,
		ClassWeights:      [2]float64{1.0, 2.5},
		PlateauFactor:     0.5,
		PlateauPatience:   7,
		MinLearningRate:   1e-6,
		EarlyStopPatience: 15,
		Seed:              42,
	}
}

// #endregion train-config

// #region weights
// Weights are the learned parameters of the baseline, stored as plain data in bundles.
type Weights struct {
	Coef []float64 `json:"coef"`
	Bias float64   `json:"bias"`
}

// #endregion weights

// #region train-result
// EpochStat is one epoch of training history.
type EpochStat struct {
	Epoch        int     `json:"epoch"`
	TrainLoss    float64 `json:"train_loss"`
	ValLoss      float64 `json:"val_loss"`
	LearningRate float64 `json:"learning_rate"`
}

// TrainResult bundles the restored best weights and the epoch history.
type TrainResult struct {
	Weights      Weights
	History      []EpochStat
	BestEpoch    int
	StoppedEarly bool
}

// #endregion train-result
