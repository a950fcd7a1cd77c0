package scenario

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/grounded-app/risk-engine/internal/features"
	"github.com/grounded-app/risk-engine/internal/label"
	"github.com/grounded-app/risk-engine/internal/model"
	"github.com/grounded-app/risk-engine/internal/pipeline"
	"github.com/grounded-app/risk-engine/internal/record"
)

// #region harness

// Harness runs scenarios against one encoder and predictor.
type Harness struct {
	encoder   *features.Encoder
	predictor model.Predictor
	labeler   *label.Labeler
	logger    *zap.Logger
}

// NewHarness creates a harness. A nil logger discards output.
func NewHarness(enc *features.Encoder, p model.Predictor, logger *zap.Logger) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{encoder: enc, predictor: p, labeler: label.Default(), logger: logger}
}

// Run scores every scenario in order. A scenario shorter than the window fails the run
// with window.ErrInsufficientHistory.
func (h *Harness) Run(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	out := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		r, err := h.RunOne(ctx, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// RunOne scores a single scenario.
func (h *Harness) RunOne(ctx context.Context, sc Scenario) (Result, error) {
	for i, d := range sc.Days {
		if err := d.Validate(); err != nil {
			return Result{}, fmt.Errorf("scenario %q day %d: %w", sc.Name, i, err)
		}
	}
	p, err := pipeline.PredictUser(ctx, h.encoder, h.predictor, sc.Days)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	labeled := append([]record.DailyRecord(nil), sc.Days...)
	h.labeler.LabelDays(labeled)

	level := LevelFor(p)
	headline, advice := Interpretation(level)
	r := Result{
		Name:           sc.Name,
		Prediction:     p,
		Level:          level,
		Headline:       headline,
		Advice:         advice,
		Week:           LastWeek(sc.Days),
		HeuristicScore: labeled[len(labeled)-1].RiskScore,
		ExpectLevel:    sc.ExpectLevel,
	}
	h.logger.Debug("scenario scored",
		zap.String("scenario", sc.Name),
		zap.Float64("prediction", p),
		zap.String("level", string(level)),
	)
	return r, nil
}

// Run is shorthand for NewHarness(enc, p, nil).Run.
func Run(ctx context.Context, enc *features.Encoder, p model.Predictor, scenarios []Scenario) ([]Result, error) {
	return NewHarness(enc, p, nil).Run(ctx, scenarios)
}

// #endregion harness

// #region week-stats

// LastWeek summarizes the final seven days (or fewer) of days.
func LastWeek(days []record.DailyRecord) WeekStats {
	if len(days) > 7 {
		days = days[len(days)-7:]
	}
	var s WeekStats
	if len(days) == 0 {
		return s
	}
	var mood, sleep float64
	for _, d := range days {
		if d.Used {
			s.DaysUsed++
		}
		s.TotalAmount += d.Amount
		mood += d.Mood
		sleep += d.SleepQuality
	}
	s.Days = len(days)
	s.AvgMood = mood / float64(len(days))
	s.AvgSleep = sleep / float64(len(days))
	return s
}

// #endregion week-stats
