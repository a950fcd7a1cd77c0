package model

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/grounded-app/risk-engine/internal/window"
)

// #region trainer
// Trainer fits a Baseline with mini-batch gradient descent on class-weighted cross-entropy.
type Trainer struct {
	config TrainConfig
	logger *zap.Logger
}

// NewTrainer creates a trainer. A nil logger discards output.
func NewTrainer(config TrainConfig, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{config: config, logger: logger}
}

type example struct {
	x     []float64
	label int
}

func summarizeAll(samples []window.Sample) ([]example, error) {
	out := make([]example, len(samples))
	for i, s := range samples {
		if s.Label != 0 && s.Label != 1 {
			return nil, fmt.Errorf("sample user %d offset %d: label %d is not binary", s.UserID, s.Offset, s.Label)
		}
		x, err := Summarize(s.Window)
		if err != nil {
			return nil, fmt.Errorf("sample user %d offset %d: %w", s.UserID, s.Offset, err)
		}
		out[i] = example{x: x, label: s.Label}
	}
	return out, nil
}

// Train fits on train and monitors val. With an empty val the training loss is monitored.
// The weights of the best monitored epoch are restored.
func (t *Trainer) Train(ctx context.Context, train, val []window.Sample) (TrainResult, error) {
	if len(train) == 0 {
		return TrainResult{}, ErrNoSamples
	}
	cfg := t.config
	if cfg.BatchSize <= 0 || cfg.Epochs <= 0 || cfg.LearningRate <= 0 {
		return TrainResult{}, fmt.Errorf("train: invalid config epochs=%d batch=%d lr=%g", cfg.Epochs, cfg.BatchSize, cfg.LearningRate)
	}
	trainEx, err := summarizeAll(train)
	if err != nil {
		return TrainResult{}, fmt.Errorf("train: %w", err)
	}
	valEx, err := summarizeAll(val)
	if err != nil {
		return TrainResult{}, fmt.Errorf("validate: %w", err)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, 0x5eed))
	w := Weights{Coef: make([]float64, InputWidth())}
	lr := cfg.LearningRate

	best := math.Inf(1)
	bestWeights := cloneWeights(w)
	bestEpoch := 0
	sinceBest := 0
	plateau := newPlateau(cfg)
	var result TrainResult

	order := make([]int, len(trainEx))
	for i := range order {
		order[i] = i
	}
	grad := make([]float64, len(w.Coef))

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return TrainResult{}, err
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += cfg.BatchSize {
			end := min(start+cfg.BatchSize, len(order))
			clear(grad)
			var gBias, wsum float64
			for _, idx := range order[start:end] {
				ex := trainEx[idx]
				cw := cfg.ClassWeights[ex.label]
				diff := cw * (sigmoid(dot(w.Coef, ex.x)+w.Bias) - float64(ex.label))
				for j, v := range ex.x {
					grad[j] += diff * v
				}
				gBias += diff
				wsum += cw
			}
			if wsum == 0 {
				continue
			}
			for j := range w.Coef {
				w.Coef[j] -= lr * (grad[j]/wsum + cfg.L2*w.Coef[j])
			}
			w.Bias -= lr * gBias / wsum
		}

		trainLoss := meanLoss(w, trainEx, cfg.ClassWeights)
		valLoss := trainLoss
		if len(valEx) > 0 {
			valLoss = meanLoss(w, valEx, [2]float64{1, 1})
		}
		result.History = append(result.History, EpochStat{Epoch: epoch, TrainLoss: trainLoss, ValLoss: valLoss, LearningRate: lr})

		if valLoss < best {
			best = valLoss
			bestWeights = cloneWeights(w)
			bestEpoch = epoch
			sinceBest = 0
		} else {
			sinceBest++
		}

		if next := plateau.observe(valLoss); next < lr {
			t.logger.Debug("reducing learning rate", zap.Int("epoch", epoch), zap.Float64("lr", next))
			lr = next
		}

		if cfg.EarlyStopPatience > 0 && sinceBest >= cfg.EarlyStopPatience {
			result.StoppedEarly = true
			t.logger.Debug("early stopping", zap.Int("epoch", epoch), zap.Int("best_epoch", bestEpoch))
			break
		}
	}

	result.Weights = bestWeights
	result.BestEpoch = bestEpoch
	t.logger.Info("trained baseline",
		zap.Int("samples", len(trainEx)),
		zap.Int("epochs", len(result.History)),
		zap.Int("best_epoch", bestEpoch),
		zap.Float64("best_loss", best),
	)
	return result, nil
}

// #endregion trainer

// #region plateau
// plateau halves the learning rate (by factor) after patience epochs without improvement.
type plateau struct {
	lr       float64
	factor   float64
	floor    float64
	patience int
	wait     int
	best     float64
}

func newPlateau(cfg TrainConfig) *plateau {
	return &plateau{lr: cfg.LearningRate, factor: cfg.PlateauFactor, floor: cfg.MinLearningRate, patience: cfg.PlateauPatience, best: math.Inf(1)}
}

// observe records one epoch's monitored loss and returns the learning rate for the next epoch.
func (p *plateau) observe(loss float64) float64 {
	if loss < p.best {
		p.best = loss
		p.wait = 0
		return p.lr
	}
	p.wait++
	if p.patience > 0 && p.wait >= p.patience {
		p.lr = math.Max(p.lr*p.factor, p.floor)
		p.wait = 0
	}
	return p.lr
}

// #endregion plateau

// #region helpers
func meanLoss(w Weights, ex []example, classWeights [2]float64) float64 {
	var sum, wsum float64
	for _, e := range ex {
		cw := classWeights[e.label]
		sum += cw * LogLoss(e.label, sigmoid(dot(w.Coef, e.x)+w.Bias))
		wsum += cw
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

func cloneWeights(w Weights) Weights {
	return Weights{Coef: append([]float64(nil), w.Coef...), Bias: w.Bias}
}

// #endregion helpers
