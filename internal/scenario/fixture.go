package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

// #region fixture-types

// MaxFixtureDays caps the expanded length of one fixture scenario.
const MaxFixtureDays = 3660

// Fixture is a YAML file of scenarios.
type Fixture struct {
	Description string            `yaml:"description"`
	Scenarios   []FixtureScenario `yaml:"scenarios"`
}

// FixtureScenario is one scenario as written in YAML.
type FixtureScenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	ExpectLevel string       `yaml:"expect_level"`
	Days        []FixtureDay `yaml:"days"`
}

// FixtureDay describes one day, or Repeat consecutive identical days. Unset
// self-reports fall back to mood 5, sleep 7, craving 3, and an unset day_of_week
// follows the day's position modulo 7.
type FixtureDay struct {
	Repeat           int      `yaml:"repeat"`
	DayOfWeek        *int     `yaml:"day_of_week"`
	Used             bool     `yaml:"used"`
	Context          string   `yaml:"context"`
	TimeOfDay        string   `yaml:"time_of_day"`
	Method           string   `yaml:"method"`
	Amount           float64  `yaml:"amount"`
	Cost             float64  `yaml:"cost"`
	Mood             *float64 `yaml:"mood"`
	SleepQuality     *float64 `yaml:"sleep_quality"`
	CravingIntensity *float64 `yaml:"craving_intensity"`
	ReminderOpens    int      `yaml:"reminder_opens"`
	MessagesRead     int      `yaml:"messages_read"`
}

// #endregion fixture-types

// #region load

// LoadFixture reads a YAML fixture file and converts it to scenarios.
func LoadFixture(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes YAML fixture bytes and converts them to scenarios.
func ParseFixture(data []byte) ([]Scenario, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	out := make([]Scenario, 0, len(f.Scenarios))
	for i, fs := range f.Scenarios {
		sc, err := fs.ToScenario()
		if err != nil {
			return nil, fmt.Errorf("fixture scenario %d: %w", i, err)
		}
		out = append(out, sc)
	}
	return out, nil
}

// ToScenario expands repeats and applies defaults.
func (fs FixtureScenario) ToScenario() (Scenario, error) {
	if fs.Name == "" {
		return Scenario{}, fmt.Errorf("scenario has no name")
	}
	sc := Scenario{Name: fs.Name, Description: fs.Description}
	switch Level(fs.ExpectLevel) {
	case "", LevelLow, LevelModerate, LevelHigh:
		sc.ExpectLevel = Level(fs.ExpectLevel)
	default:
		return Scenario{}, fmt.Errorf("scenario %q: unknown expect_level %q", fs.Name, fs.ExpectLevel)
	}

	for i, fd := range fs.Days {
		if fd.Repeat < 0 {
			return Scenario{}, fmt.Errorf("scenario %q: day %d: negative repeat %d", fs.Name, i, fd.Repeat)
		}
		n := max(fd.Repeat, 1)
		if n > MaxFixtureDays-len(sc.Days) {
			return Scenario{}, fmt.Errorf("scenario %q: day %d: expands past %d days", fs.Name, i, MaxFixtureDays)
		}
		for range n {
			sc.Days = append(sc.Days, fd.toRecord(len(sc.Days)))
		}
	}
	for _, d := range sc.Days {
		if err := d.Validate(); err != nil {
			return Scenario{}, fmt.Errorf("scenario %q: %w", fs.Name, err)
		}
	}
	return sc, nil
}

func (fd FixtureDay) toRecord(pos int) record.DailyRecord {
	dow := pos % vocab.DaysOfWeek
	if fd.DayOfWeek != nil {
		dow = *fd.DayOfWeek
	}
	d := record.NewDay(dow)
	d.DayNum = pos
	d.Used = fd.Used
	if fd.Context != "" {
		d.Context = fd.Context
	}
	if fd.TimeOfDay != "" {
		d.TimeOfDay = fd.TimeOfDay
	}
	if fd.Method != "" {
		d.Method = fd.Method
	}
	d.Amount, d.Cost = fd.Amount, fd.Cost
	if fd.Mood != nil {
		d.Mood = *fd.Mood
	}
	if fd.SleepQuality != nil {
		d.SleepQuality = *fd.SleepQuality
	}
	if fd.CravingIntensity != nil {
		d.CravingIntensity = *fd.CravingIntensity
	}
	d.ReminderOpens = fd.ReminderOpens
	d.MessagesRead = fd.MessagesRead
	return d
}

// #endregion load
