package scenario

import (
	"github.com/grounded-app/risk-engine/internal/record"
)

// #region level
// Level buckets a next-day probability.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
)

// LevelFor maps p to HIGH above 0.6, MODERATE above 0.4, else LOW.
func LevelFor(p float64) Level {
	switch {
	case p > 0.6:
		return LevelHigh
	case p > 0.4:
		return LevelModerate
	default:
		return LevelLow
	}
}

// Interpretation returns the user-facing reading of a level.
func Interpretation(l Level) (headline, advice string) {
	switch l {
	case LevelHigh:
		return "High risk detected. Pattern shows concerning trends.",
			"Consider taking a break or reaching out to your support network."
	case LevelModerate:
		return "Moderate risk. Some patterns may need attention.",
			"Consider monitoring usage and planning alternative activities."
	default:
		return "Low risk. Current patterns appear manageable.",
			"Keep up healthy habits and self-awareness."
	}
}

// #endregion level

// #region scenario
// Scenario is a named hand-built history ending on the day before the prediction.
type Scenario struct {
	Name        string
	Description string
	Days        []record.DailyRecord
	ExpectLevel Level // optional regression expectation
}

// #endregion scenario

// #region result
// WeekStats summarizes the last seven days of a history.
type WeekStats struct {
	Days        int
	DaysUsed    int
	TotalAmount float64
	AvgMood     float64
	AvgSleep    float64
}

// Result is the outcome of running one scenario.
type Result struct {
	Name           string
	Prediction     float64
	Level          Level
	Headline       string
	Advice         string
	Week           WeekStats
	HeuristicScore float64 // labeler score of the final day
	ExpectLevel    Level
}

// Matches reports whether the result meets its expectation; true when none is set.
func (r Result) Matches() bool {
	return r.ExpectLevel == "" || r.ExpectLevel == r.Level
}

// #endregion result
