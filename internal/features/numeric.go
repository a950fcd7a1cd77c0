package features

import (
	"github.com/grounded-app/risk-engine/internal/record"
)

// #region rolling

// Rolling window sizes for the frequency trend columns.
const (
	ShortWindow = 7
	LongWindow  = 30
)

// RollingMeans returns the trailing means of the frequency column over ShortWindow and
// LongWindow days with a minimum window of one day. days must belong to a single user.
func RollingMeans(days []record.DailyRecord) (short, long []float64) {
	short = trailingMean(days, ShortWindow)
	long = trailingMean(days, LongWindow)
	return short, long
}

func trailingMean(days []record.DailyRecord, window int) []float64 {
	out := make([]float64, len(days))
	var sum float64
	for i, d := range days {
		sum += d.Frequency()
		if i >= window {
			sum -= days[i-window].Frequency()
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// WithRollingMeans returns a copy of days with Frequency7Day and Frequency30Day attached.
func WithRollingMeans(days []record.DailyRecord) []record.DailyRecord {
	short, long := RollingMeans(days)
	out := make([]record.DailyRecord, len(days))
	copy(out, days)
	for i := range out {
		out[i].Frequency7Day = short[i]
		out[i].Frequency30Day = long[i]
	}
	return out
}

// #endregion rolling

// #region numeric

// NumericWidth is the number of normalized columns; it equals len(vocab.NumericColumns).
const NumericWidth = 9

// Numeric returns the raw (unscaled) numeric block of every day of one user,
// in vocab.NumericColumns order, with rolling means computed over days.
func Numeric(days []record.DailyRecord) [][]float64 {
	short, long := RollingMeans(days)
	rows := make([][]float64, len(days))
	for i, d := range days {
		rows[i] = []float64{
			d.Amount,
			d.Cost,
			d.Mood,
			d.SleepQuality,
			d.CravingIntensity,
			float64(d.ReminderOpens),
			float64(d.MessagesRead),
			short[i],
			long[i],
		}
	}
	return rows
}

// #endregion numeric
