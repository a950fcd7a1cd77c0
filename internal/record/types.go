package record

import (
	"sort"

	"github.com/grounded-app/risk-engine/internal/vocab"
)

// #region daily-record

// DailyRecord is one user's one calendar day of behaviour and self-reported state.
type DailyRecord struct {
	DayNum           int     `json:"day_num" yaml:"day_num"`
	DayOfWeek        int     `json:"day_of_week" yaml:"day_of_week"`
	Used             bool    `json:"used" yaml:"used"`
	Context          string  `json:"context" yaml:"context"`
	TimeOfDay        string  `json:"time_of_day" yaml:"time_of_day"`
	Method           string  `json:"method" yaml:"method"`
	Amount           float64 `json:"amount" yaml:"amount"`
	Cost             float64 `json:"cost" yaml:"cost"`
	Mood             float64 `json:"mood" yaml:"mood"`
	SleepQuality     float64 `json:"sleep_quality" yaml:"sleep_quality"`
	CravingIntensity float64 `json:"craving_intensity" yaml:"craving_intensity"`
	ReminderOpens    int     `json:"reminder_opens" yaml:"reminder_opens"`
	MessagesRead     int     `json:"messages_read" yaml:"messages_read"`

	// Derived fields, attached by the pipeline after creation.
	Frequency7Day  float64 `json:"frequency_7day" yaml:"-"`
	Frequency30Day float64 `json:"frequency_30day" yaml:"-"`
	RiskScore      float64 `json:"risk_score" yaml:"-"`
	RiskLabel      int     `json:"risk_label" yaml:"-"`
}

// Frequency is 1 on a use day, else 0.
func (d DailyRecord) Frequency() float64 {
	if d.Used {
		return 1
	}
	return 0
}

// #endregion daily-record

// #region new-day

// NewDay returns a no-use day with neutral self-reports (mood 5, sleep 7, craving 3).
// Callers override fields for use days.
func NewDay(dayOfWeek int) DailyRecord {
	return DailyRecord{
		DayOfWeek:        dayOfWeek,
		Context:          vocab.None,
		TimeOfDay:        vocab.None,
		Method:           vocab.None,
		Mood:             5,
		SleepQuality:     7,
		CravingIntensity: 3,
	}
}

// UseDay returns a use day with the given details on top of NewDay.
func UseDay(dayOfWeek int, context, timeOfDay, method string, amount, cost float64) DailyRecord {
	d := NewDay(dayOfWeek)
	d.Used = true
	d.Context = context
	d.TimeOfDay = timeOfDay
	d.Method = method
	d.Amount = amount
	d.Cost = cost
	return d
}

// #endregion new-day

// #region profile

// Profile holds per-user generative parameters. Read-only once drawn.
type Profile struct {
	BaselineFrequency int     `json:"baseline_frequency"` // use days per week, 1-6
	PreferredContext  string  `json:"preferred_context"`
	PreferredTime     string  `json:"preferred_time"`
	StressSensitivity float64 `json:"stress_sensitivity"`
	SocialInfluence   float64 `json:"social_influence"`
}

// #endregion profile

// #region history

// UserID identifies one user's record sequence.
type UserID int

// History maps each user to their chronological day sequence.
type History map[UserID][]DailyRecord

// Users returns the user IDs in ascending order.
func (h History) Users() []UserID {
	ids := make([]UserID, 0, len(h))
	for id := range h {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Days counts all records across users.
func (h History) Days() int {
	n := 0
	for _, days := range h {
		n += len(days)
	}
	return n
}

// Subset returns a History restricted to ids. Day slices are shared, not copied.
func (h History) Subset(ids []UserID) History {
	out := make(History, len(ids))
	for _, id := range ids {
		if days, ok := h[id]; ok {
			out[id] = days
		}
	}
	return out
}

// Clone deep-copies the day slices so derived fields can be attached without touching h.
func (h History) Clone() History {
	out := make(History, len(h))
	for id, days := range h {
		cp := make([]DailyRecord, len(days))
		copy(cp, days)
		out[id] = cp
	}
	return out
}

// #endregion history
