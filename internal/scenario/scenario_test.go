package scenario

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grounded-app/risk-engine/internal/features"
	"github.com/grounded-app/risk-engine/internal/model"
	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
	"github.com/grounded-app/risk-engine/internal/window"
)

type fixedPredictor struct {
	p     float64
	err   error
	calls int
}

func (f *fixedPredictor) Predict(ctx context.Context, w window.Window) (float64, error) {
	f.calls++
	if err := model.CheckShape(w); err != nil {
		return 0, err
	}
	return f.p, f.err
}

func builtinEncoder(t *testing.T) *features.Encoder {
	t.Helper()
	h := record.History{}
	for i, sc := range Builtin() {
		h[record.UserID(i)] = sc.Days
	}
	tr, err := features.Fit(h)
	require.NoError(t, err)
	enc, err := features.NewEncoder(tr, vocab.UnknownZero)
	require.NoError(t, err)
	return enc
}

func byName(t *testing.T, name string) Scenario {
	t.Helper()
	for _, sc := range Builtin() {
		if sc.Name == name {
			return sc
		}
	}
	t.Fatalf("no builtin scenario %q", name)
	return Scenario{}
}

func TestBuiltinScenariosAreValidFortnights(t *testing.T) {
	all := Builtin()
	require.Len(t, all, 10)
	names := map[string]bool{}
	for _, sc := range all {
		assert.False(t, names[sc.Name], "duplicate %q", sc.Name)
		names[sc.Name] = true
		require.Len(t, sc.Days, vocab.SequenceLength, sc.Name)
		for i, d := range sc.Days {
			require.NoError(t, d.Validate(), "%s day %d", sc.Name, i)
			assert.Equal(t, i, d.DayNum)
			assert.Equal(t, i%7, d.DayOfWeek)
		}
	}
}

func TestBuiltinPatterns(t *testing.T) {
	used := func(sc Scenario) []int {
		var out []int
		for i, d := range sc.Days {
			if d.Used {
				out = append(out, i)
			}
		}
		return out
	}
	assert.Equal(t, []int{4, 5, 11, 12}, used(byName(t, "Weekend Social Drinker")))
	assert.Len(t, used(byName(t, "Medical Cannabis User")), 14)
	assert.Equal(t, []int{10, 11, 12, 13}, used(byName(t, "Recovery Relapse")))
	assert.Len(t, used(byName(t, "Heavy Regular User")), 12)
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		p    float64
		want Level
	}{
		{0, LevelLow},
		{0.4, LevelLow},
		{0.41, LevelModerate},
		{0.6, LevelModerate},
		{0.61, LevelHigh},
		{1, LevelHigh},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LevelFor(c.p), "p=%v", c.p)
	}
	headline, _ := Interpretation(LevelHigh)
	assert.Equal(t, "High risk detected. Pattern shows concerning trends.", headline)
}

func TestLastWeek(t *testing.T) {
	s := LastWeek(byName(t, "Weekend Social Drinker").Days)
	assert.Equal(t, 7, s.Days)
	assert.Equal(t, 2, s.DaysUsed)
	assert.InDelta(t, 8.0, s.TotalAmount, 1e-12)
	assert.InDelta(t, 44.0/7, s.AvgMood, 1e-12)
	assert.InDelta(t, 47.0/7, s.AvgSleep, 1e-12)

	assert.Equal(t, WeekStats{}, LastWeek(nil))
}

func TestHarnessRun(t *testing.T) {
	p := &fixedPredictor{p: 0.7}
	results, err := Run(context.Background(), builtinEncoder(t), p, Builtin())
	require.NoError(t, err)
	require.Len(t, results, 10)
	assert.Equal(t, 10, p.calls)

	for _, r := range results {
		assert.Equal(t, LevelHigh, r.Level)
		assert.InDelta(t, 0.7, r.Prediction, 1e-12)
		assert.NotEmpty(t, r.Headline)
		assert.True(t, r.Matches())
	}
	last := results[len(results)-1]
	assert.Equal(t, "Recovery Relapse", last.Name)
	assert.InDelta(t, 1.0, last.HeuristicScore, 1e-12)
	assert.InDelta(t, 0.6, results[8].HeuristicScore, 1e-12, "medical cannabis")
}

func TestHarnessExpectations(t *testing.T) {
	sc := byName(t, "Medical Cannabis User")
	sc.ExpectLevel = LevelLow
	r, err := NewHarness(builtinEncoder(t), &fixedPredictor{p: 0.5}, nil).RunOne(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, LevelModerate, r.Level)
	assert.False(t, r.Matches())
}

func TestHarnessErrors(t *testing.T) {
	enc := builtinEncoder(t)
	short := byName(t, "Polydrug User")
	short.Days = short.Days[:13]
	_, err := Run(context.Background(), enc, &fixedPredictor{}, []Scenario{short})
	assert.ErrorIs(t, err, window.ErrInsufficientHistory)

	boom := errors.New("boom")
	_, err = Run(context.Background(), enc, &fixedPredictor{err: boom}, Builtin()[:1])
	assert.ErrorIs(t, err, boom)

	bad := byName(t, "Polydrug User")
	bad.Days[0].Mood = 11
	_, err = Run(context.Background(), enc, &fixedPredictor{}, []Scenario{bad})
	assert.ErrorIs(t, err, record.ErrOutOfRange)
}

func TestLoadFixture(t *testing.T) {
	scenarios, err := LoadFixture(filepath.Join("testdata", "scenarios.yaml"))
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	quiet := scenarios[0]
	assert.Equal(t, "Quiet Fortnight", quiet.Name)
	require.Len(t, quiet.Days, 14)
	assert.Equal(t, 7.0, quiet.Days[13].Mood)
	assert.Equal(t, vocab.None, quiet.Days[0].Method)

	binge := scenarios[1]
	require.Len(t, binge.Days, 14)
	assert.False(t, binge.Days[6].Used)
	assert.Equal(t, 5.0, binge.Days[6].Mood, "default mood")
	assert.True(t, binge.Days[7].Used)
	assert.Equal(t, "drinking", binge.Days[13].Method)
	assert.Equal(t, 13, binge.Days[13].DayNum)

	vape := scenarios[2]
	require.Len(t, vape.Days, 14)
	assert.True(t, vape.Days[4].Used)
	assert.Equal(t, 4, vape.Days[4].DayOfWeek)
	assert.Equal(t, 3.0, vape.Days[4].CravingIntensity)

	results, err := Run(context.Background(), builtinEncoder(t), &fixedPredictor{p: 0.1}, scenarios)
	require.NoError(t, err)
	assert.Equal(t, 0, results[0].Week.DaysUsed)
	assert.Equal(t, 7, results[1].Week.DaysUsed)
	assert.Equal(t, 0, results[2].Week.DaysUsed, "the only use day is outside the last week")
	assert.Equal(t, LevelLow, results[2].Level)
}

func TestParseFixtureErrors(t *testing.T) {
	_, err := ParseFixture([]byte("scenarios: [{name: x, expect_level: EXTREME}]"))
	assert.Error(t, err)

	_, err = ParseFixture([]byte("scenarios: [{description: unnamed}]"))
	assert.Error(t, err)

	_, err = ParseFixture([]byte("scenarios: [{name: x, days: [{used: false, amount: 3}]}]"))
	assert.ErrorIs(t, err, record.ErrInconsistentNoUse)

	_, err = ParseFixture([]byte("scenarios: [{name: x, days: [{repeat: 2000000000}]}]"))
	assert.ErrorContains(t, err, "expands past")

	_, err = ParseFixture([]byte("scenarios: [{name: x, days: [{repeat: 3000}, {repeat: 3000}]}]"))
	assert.ErrorContains(t, err, "expands past")

	_, err = ParseFixture([]byte("scenarios: [{name: x, days: [{repeat: -1}]}]"))
	assert.ErrorContains(t, err, "negative repeat")

	_, err = ParseFixture([]byte("scenarios: {"))
	assert.Error(t, err)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
