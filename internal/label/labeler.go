package label

import (
	"github.com/grounded-app/risk-engine/internal/record"
)

// #region labeler

// Labeler computes deterministic ground-truth risk for synthetic days.
type Labeler struct {
	config LabelConfig
}

// NewLabeler creates a Labeler with the given configuration.
func NewLabeler(config LabelConfig) *Labeler {
	return &Labeler{config: config}
}

// Default returns a Labeler with DefaultLabelConfig.
func Default() *Labeler {
	return NewLabeler(DefaultLabelConfig())
}

// #endregion labeler

// #region score

// Score rates today given the used flags of the preceding days, oldest first.
// Only the last LookbackDays flags are considered. Pure: no state, no randomness.
func (l *Labeler) Score(today record.DailyRecord, priorUsed []bool) Assessment {
	c := l.config
	factors := make(map[Factor]float64)
	add := func(f Factor) { factors[f] = c.Weights[f] }

	if len(priorUsed) > c.LookbackDays {
		priorUsed = priorUsed[len(priorUsed)-c.LookbackDays:]
	}
	recent := 0
	for _, u := range priorUsed {
		if u {
			recent++
		}
	}
	switch {
	case recent >= c.HighFrequencyDays:
		add(FactorFrequencyHigh)
	case recent >= c.MidFrequencyDays:
		add(FactorFrequencyMid)
	}

	if today.Context == "alone" && (today.TimeOfDay == "night" || today.TimeOfDay == "evening") {
		add(FactorAloneLate)
	}
	if today.Amount > c.AmountThreshold {
		add(FactorAmount)
	}
	if today.Mood < c.MoodThreshold {
		add(FactorLowMood)
	}
	if today.SleepQuality < c.SleepThreshold {
		add(FactorPoorSleep)
	}
	if today.CravingIntensity > c.CravingThreshold {
		add(FactorCraving)
	}
	if today.Used {
		add(FactorUsed)
	}

	var raw float64
	for _, f := range factorOrder {
		raw += factors[f]
	}
	score := clamp(raw)
	lbl := 0
	if score > c.LabelThreshold {
		lbl = 1
	}
	return Assessment{Raw: raw, Score: score, Label: lbl, Factors: factors}
}

// #endregion score

// #region label-days

// LabelDays attaches RiskScore and RiskLabel to every day of one user, in place.
// Each day only sees the used flags of the days before it.
func (l *Labeler) LabelDays(days []record.DailyRecord) {
	used := make([]bool, 0, len(days))
	for i := range days {
		a := l.Score(days[i], used)
		days[i].RiskScore = a.Score
		days[i].RiskLabel = a.Label
		used = append(used, days[i].Used)
	}
}

// LabelHistory returns a copy of h with labels attached per user.
func (l *Labeler) LabelHistory(h record.History) record.History {
	out := h.Clone()
	for _, id := range out.Users() {
		l.LabelDays(out[id])
	}
	return out
}

// Labels extracts the label column of one user.
func Labels(days []record.DailyRecord) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = d.RiskLabel
	}
	return out
}

// #endregion label-days

// #region helpers

// clamp restricts v to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
