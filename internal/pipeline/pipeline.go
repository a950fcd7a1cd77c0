package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"go.uber.org/zap"

	"github.com/grounded-app/risk-engine/internal/artifact"
	"github.com/grounded-app/risk-engine/internal/eval"
	"github.com/grounded-app/risk-engine/internal/features"
	"github.com/grounded-app/risk-engine/internal/gate"
	"github.com/grounded-app/risk-engine/internal/label"
	"github.com/grounded-app/risk-engine/internal/logging"
	"github.com/grounded-app/risk-engine/internal/model"
	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
	"github.com/grounded-app/risk-engine/internal/window"
)

// splitStream separates the split RNG from the trainer RNG under one seed.
const splitStream = 0x5917

// #region train

// Train labels h, splits its users, fits the transform on the training users,
// windows every split and trains and evaluates the baseline.
// The returned bundle is not persisted and has no parent.
func Train(ctx context.Context, h record.History, opts Options, logger *zap.Logger) (TrainResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := h.Validate(); err != nil {
		return TrainResult{}, fmt.Errorf("train: %w", err)
	}

	labeled := label.Default().LabelHistory(h)

	rng := rand.New(rand.NewPCG(opts.Split.Seed, splitStream))
	split, err := window.SplitUsers(labeled.Users(), opts.Split.TestFraction, opts.Split.ValFraction, rng)
	if err != nil {
		return TrainResult{}, fmt.Errorf("split users: %w", err)
	}

	t, err := features.Fit(labeled.Subset(split.Train))
	if err != nil {
		return TrainResult{}, fmt.Errorf("fit transform: %w", err)
	}
	enc, err := features.NewEncoder(t, opts.Policy)
	if err != nil {
		return TrainResult{}, fmt.Errorf("new encoder: %w", err)
	}

	trainS, err := samples(enc, labeled, split.Train)
	if err != nil {
		return TrainResult{}, fmt.Errorf("window train users: %w", err)
	}
	valS, err := samples(enc, labeled, split.Val)
	if err != nil {
		return TrainResult{}, fmt.Errorf("window val users: %w", err)
	}
	testS, err := samples(enc, labeled, split.Test)
	if err != nil {
		return TrainResult{}, fmt.Errorf("window test users: %w", err)
	}
	stats := SplitStats{Train: window.Stats(trainS), Val: window.Stats(valS), Test: window.Stats(testS)}
	logger.Info("windowed dataset",
		zap.Int("train_users", len(split.Train)),
		zap.Int("val_users", len(split.Val)),
		zap.Int("test_users", len(split.Test)),
		zap.Int("train_windows", stats.Train.Total),
		zap.Float64("train_positive_rate", stats.Train.PositiveRate()),
	)

	trained, err := model.NewTrainer(opts.Train, logger).Train(ctx, trainS, valS)
	if err != nil {
		return TrainResult{}, fmt.Errorf("train baseline: %w", err)
	}
	baseline, err := model.NewBaseline(trained.Weights)
	if err != nil {
		return TrainResult{}, fmt.Errorf("train baseline: %w", err)
	}

	result, err := eval.NewEvalHarness(opts.Eval).Run(ctx, baseline, testS)
	if err != nil && !errors.Is(err, eval.ErrNoSamples) {
		return TrainResult{}, fmt.Errorf("evaluate: %w", err)
	}
	logger.Info("evaluated baseline",
		zap.Int("test_windows", result.Confusion.Total()),
		zap.Float64("auc", result.AUC),
		zap.Float64("recall", result.Recall),
		zap.Float64("f1", result.F1),
	)

	return TrainResult{
		Bundle:   artifact.NewBundle(enc, trained.Weights, "", ""),
		Eval:     result,
		Training: trained,
		Split:    split,
		Stats:    stats,
		Seed:     opts.Train.Seed,
	}, nil
}

func samples(enc *features.Encoder, h record.History, users []record.UserID) ([]window.Sample, error) {
	sub := h.Subset(users)
	encoded, err := enc.EncodeHistory(sub)
	if err != nil {
		return nil, err
	}
	labels := make(map[record.UserID][]int, len(sub))
	for id, days := range sub {
		labels[id] = label.Labels(days)
	}
	return window.BuildHistory(encoded, labels)
}

// #endregion train

// #region promote

// Promote gates res against the active bundle and persists it. A committed bundle
// becomes active; a rejected one is stored inactive for inspection. Either way one
// run_log row records the decision.
func Promote(store *artifact.Store, res TrainResult, config gate.GateConfig, logger *zap.Logger) (PromoteResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := res.Bundle
	var activeSchema string
	active, err := store.GetActive()
	switch {
	case err == nil:
		activeSchema = active.Schema
		b.ParentID = active.VersionID
	case errors.Is(err, artifact.ErrNoActive):
	default:
		return PromoteResult{}, fmt.Errorf("promote: %w", err)
	}

	decision := gate.NewGate(config).Evaluate(b.Schema, activeSchema, res.Eval)

	metrics, err := json.Marshal(trainRecord(res, config, decision))
	if err != nil {
		return PromoteResult{}, fmt.Errorf("marshal train record: %w", err)
	}
	b.MetricsJSON = string(metrics)

	activated := decision.Action == "commit"
	if activated {
		err = store.Commit(b)
	} else {
		err = store.Create(b)
	}
	if err != nil {
		return PromoteResult{}, fmt.Errorf("promote: %w", err)
	}

	runID, err := logging.LogRun(store.DB(), logging.RunEntry{
		VersionID:   b.VersionID,
		Trigger:     TriggerTrain,
		MetricsJSON: b.MetricsJSON,
		Decision:    decision.Action,
		Reason:      decision.Reason,
	})
	if err != nil {
		return PromoteResult{}, fmt.Errorf("promote: %w", err)
	}

	logger.Info("gated bundle",
		zap.String("version_id", b.VersionID),
		zap.String("parent_id", b.ParentID),
		zap.String("decision", decision.Action),
		zap.String("reason", decision.Reason),
	)
	return PromoteResult{VersionID: b.VersionID, RunID: runID, Decision: decision, Activated: activated}, nil
}

// Rollback re-activates an earlier version and logs the switch.
func Rollback(store *artifact.Store, versionID, reason string) (string, error) {
	if err := store.Rollback(versionID); err != nil {
		return "", fmt.Errorf("rollback: %w", err)
	}
	return logging.LogRun(store.DB(), logging.RunEntry{
		VersionID: versionID,
		Trigger:   TriggerRollback,
		Decision:  "rollback",
		Reason:    reason,
	})
}

// Activate switches the active pointer to versionID regardless of the gate and logs it.
func Activate(store *artifact.Store, versionID, reason string) (string, error) {
	if err := store.Activate(versionID); err != nil {
		return "", fmt.Errorf("activate: %w", err)
	}
	return logging.LogRun(store.DB(), logging.RunEntry{
		VersionID: versionID,
		Trigger:   TriggerActivate,
		Decision:  "commit",
		Reason:    reason,
	})
}

func trainRecord(res TrainResult, config gate.GateConfig, d gate.GateDecision) logging.TrainRecord {
	e := res.Eval
	return logging.TrainRecord{
		Schema:       res.Bundle.Schema,
		Seed:         res.Seed,
		TrainUsers:   len(res.Split.Train),
		ValUsers:     len(res.Split.Val),
		TestUsers:    len(res.Split.Test),
		TrainSamples: res.Stats.Train.Total,
		TestSamples:  res.Stats.Test.Total,
		Positives:    res.Stats.Test.Positives,
		Accuracy:     e.Accuracy,
		Precision:    e.Precision,
		Recall:       e.Recall,
		F1:           e.F1,
		AUC:          e.AUC,
		LogLoss:      e.LogLoss,
		Epochs:       len(res.Training.History),
		BestEpoch:    res.Training.BestEpoch,
		Thresholds: logging.TrainRecordThresholds{
			MinAUC:            config.MinAUC,
			MinRecall:         config.MinRecall,
			RequireSameSchema: config.RequireSameSchema,
		},
		GateAction:    d.Action,
		GateSoftScore: d.SoftScore,
		GateVetoed:    d.Vetoed,
		GateReason:    d.Reason,
	}
}

// #endregion promote

// #region predict

// PredictUser scores the day after days. Rolling means are computed over all of days
// and the most recent SequenceLength rows form the window.
func PredictUser(ctx context.Context, enc *features.Encoder, p model.Predictor, days []record.DailyRecord) (float64, error) {
	if len(days) < vocab.SequenceLength {
		return 0, fmt.Errorf("predict: %d days: %w", len(days), window.ErrInsufficientHistory)
	}
	m, err := enc.Encode(days)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	w, err := window.Latest(m)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	prob, err := p.Predict(ctx, w)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	return prob, nil
}

// SamplePredictions labels and windows h, scores n windows drawn without
// replacement by seed and compares each with its label. A window is predicted
// positive when its probability exceeds threshold. Results are ordered by user
// and offset.
func SamplePredictions(ctx context.Context, enc *features.Encoder, p model.Predictor, h record.History, n int, threshold float64, seed uint64) ([]SamplePrediction, error) {
	if n <= 0 {
		return nil, nil
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("sample predictions: %w", err)
	}
	labeled := label.Default().LabelHistory(h)
	all, err := samples(enc, labeled, labeled.Users())
	if err != nil {
		return nil, fmt.Errorf("sample predictions: %w", err)
	}

	rng := rand.New(rand.NewPCG(seed, splitStream))
	picked := rng.Perm(len(all))[:min(n, len(all))]
	out := make([]SamplePrediction, 0, len(picked))
	for _, i := range picked {
		s := all[i]
		prob, err := p.Predict(ctx, s.Window)
		if err != nil {
			return nil, fmt.Errorf("sample predictions: user %d offset %d: %w", s.UserID, s.Offset, err)
		}
		pred := 0
		if prob > threshold {
			pred = 1
		}
		out = append(out, SamplePrediction{UserID: s.UserID, Offset: s.Offset, Probability: prob, Predicted: pred, Label: s.Label})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Offset < out[j].Offset
	})
	return out, nil
}

// #endregion predict
