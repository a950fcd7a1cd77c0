package record

import (
	"errors"
	"fmt"
	"math"

	"github.com/grounded-app/risk-engine/internal/vocab"
)

var (
	// ErrInconsistentNoUse flags a no-use day that still carries use details.
	ErrInconsistentNoUse = errors.New("no-use day must have none categories and zero amount/cost")
	// ErrOutOfRange flags a numeric field outside its allowed range.
	ErrOutOfRange = errors.New("field out of range")
)

// #region validate

// Validate checks the no-use convention and field ranges.
// Category membership is not checked here; the encoder's unknown policy owns that.
func (d DailyRecord) Validate() error {
	if !d.Used {
		if d.Context != vocab.None || d.TimeOfDay != vocab.None || d.Method != vocab.None {
			return fmt.Errorf("day %d: categories %s/%s/%s: %w", d.DayNum, d.Context, d.TimeOfDay, d.Method, ErrInconsistentNoUse)
		}
		if d.Amount != 0 || d.Cost != 0 {
			return fmt.Errorf("day %d: amount %.2f cost %.2f: %w", d.DayNum, d.Amount, d.Cost, ErrInconsistentNoUse)
		}
	}
	finite := []struct {
		name string
		v    float64
	}{
		{"amount", d.Amount},
		{"cost", d.Cost},
		{"mood", d.Mood},
		{"sleep_quality", d.SleepQuality},
		{"craving_intensity", d.CravingIntensity},
	}
	for _, f := range finite {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("day %d: %s is not finite: %w", d.DayNum, f.name, ErrOutOfRange)
		}
	}
	checks := []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"mood", d.Mood, 1, 10},
		{"sleep_quality", d.SleepQuality, 1, 10},
		{"craving_intensity", d.CravingIntensity, 1, 10},
	}
	for _, c := range checks {
		if c.v < c.lo || c.v > c.hi {
			return fmt.Errorf("day %d: %s %.2f not in [%.0f, %.0f]: %w", d.DayNum, c.name, c.v, c.lo, c.hi, ErrOutOfRange)
		}
	}
	if d.Amount < 0 || d.Cost < 0 {
		return fmt.Errorf("day %d: negative amount or cost: %w", d.DayNum, ErrOutOfRange)
	}
	if d.ReminderOpens < 0 || d.MessagesRead < 0 {
		return fmt.Errorf("day %d: negative engagement count: %w", d.DayNum, ErrOutOfRange)
	}
	if d.DayOfWeek < 0 || d.DayOfWeek >= vocab.DaysOfWeek {
		return fmt.Errorf("day %d: day_of_week %d: %w", d.DayNum, d.DayOfWeek, ErrOutOfRange)
	}
	return nil
}

// Validate checks every day of every user.
func (h History) Validate() error {
	for _, id := range h.Users() {
		for _, d := range h[id] {
			if err := d.Validate(); err != nil {
				return fmt.Errorf("user %d: %w", id, err)
			}
		}
	}
	return nil
}

// #endregion validate
