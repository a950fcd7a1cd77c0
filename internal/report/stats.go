package report

import (
	"sort"

	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

// #region dataset-stats

// DatasetStats summarizes a labeled history.
type DatasetStats struct {
	Users         int
	TotalDays     int
	HighRiskDays  int
	LowRiskDays   int
	UseDays       int
	MeanUseAmount float64 // over use days only
	TopContext    string  // mode over use days, "" when nothing was used
	TopTime       string
}

// HighRiskRate is the fraction of days labeled high risk.
func (s DatasetStats) HighRiskRate() float64 { return rate(s.HighRiskDays, s.TotalDays) }

// UseRate is the fraction of days with use.
func (s DatasetStats) UseRate() float64 { return rate(s.UseDays, s.TotalDays) }

// DaysPerUser is the mean history length.
func (s DatasetStats) DaysPerUser() float64 { return rate(s.TotalDays, s.Users) }

// Dataset computes statistics over h. h must already carry labels.
func Dataset(h record.History) DatasetStats {
	s := DatasetStats{Users: len(h)}
	contexts := map[string]int{}
	times := map[string]int{}
	var amount float64
	for _, id := range h.Users() {
		for _, d := range h[id] {
			s.TotalDays++
			if d.RiskLabel == 1 {
				s.HighRiskDays++
			} else {
				s.LowRiskDays++
			}
			if !d.Used {
				continue
			}
			s.UseDays++
			amount += d.Amount
			contexts[d.Context]++
			times[d.TimeOfDay]++
		}
	}
	if s.UseDays > 0 {
		s.MeanUseAmount = amount / float64(s.UseDays)
	}
	s.TopContext = mode(contexts)
	s.TopTime = mode(times)
	return s
}

// mode returns the most frequent key, ties broken alphabetically.
func mode(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		if k != vocab.None {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	best, n := "", 0
	for _, k := range keys {
		if counts[k] > n {
			best, n = k, counts[k]
		}
	}
	return best
}

func rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// #endregion dataset-stats
