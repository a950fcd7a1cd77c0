package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

// #region helpers

func mixedDays(n int) []record.DailyRecord {
	days := make([]record.DailyRecord, n)
	for i := range days {
		if i%3 == 0 {
			days[i] = record.UseDay(i%7, "party", "night", "drinking", 1+float64(i%5), 10+float64(i))
		} else {
			days[i] = record.NewDay(i % 7)
			days[i].Mood = 1 + float64(i%10)
			days[i].ReminderOpens = i % 2
		}
		days[i].DayNum = i
	}
	return days
}

func fittedEncoder(t *testing.T, h record.History, policy vocab.UnknownPolicy) *Encoder {
	t.Helper()
	tr, err := Fit(h)
	require.NoError(t, err)
	enc, err := NewEncoder(tr, policy)
	require.NoError(t, err)
	return enc
}

// #endregion helpers

func TestNumericWidthMatchesColumns(t *testing.T) {
	assert.Equal(t, len(vocab.NumericColumns), NumericWidth)
}

func TestRollingMeansMinPeriodsOne(t *testing.T) {
	days := []record.DailyRecord{
		record.UseDay(0, "alone", "night", "vaping", 1, 10),
		record.NewDay(1),
		record.UseDay(2, "alone", "night", "vaping", 1, 10),
		record.UseDay(3, "alone", "night", "vaping", 1, 10),
	}
	short, long := RollingMeans(days)
	assert.InDeltaSlice(t, []float64{1, 0.5, 2.0 / 3, 0.75}, short, 1e-12)
	assert.InDeltaSlice(t, short, long, 1e-12)
}

func TestRollingMeansWindowSlides(t *testing.T) {
	days := make([]record.DailyRecord, 10)
	for i := range days {
		days[i] = record.NewDay(i % 7)
	}
	for i := 0; i < 3; i++ {
		days[i] = record.UseDay(i%7, "work", "morning", "smoking", 1, 9)
	}
	short, long := RollingMeans(days)
	assert.InDelta(t, 0.0, short[9], 1e-12, "days 3..9 are all no-use")
	assert.InDelta(t, 3.0/10, long[9], 1e-12)
}

func TestFitDoesNotCrossUsers(t *testing.T) {
	// User 1 always uses, user 2 never does. If rolling means leaked across the boundary,
	// user 2's first days would show a non-zero frequency.
	always := make([]record.DailyRecord, 10)
	never := make([]record.DailyRecord, 10)
	for i := range always {
		always[i] = record.UseDay(i%7, "alone", "night", "vaping", 2, 20)
		never[i] = record.NewDay(i % 7)
	}
	h := record.History{1: always, 2: never}
	enc := fittedEncoder(t, h, vocab.UnknownZero)

	encoded, err := enc.EncodeHistory(h)
	require.NoError(t, err)
	freqCol := vocab.Width() - 2
	for i, row := range encoded[2] {
		assert.Equal(t, 0.0, row[freqCol], "user 2 day %d", i)
	}
	for i, row := range encoded[1] {
		assert.Equal(t, 1.0, row[freqCol], "user 1 day %d", i)
	}
}

func TestEncodeWidthConstant(t *testing.T) {
	h := record.History{1: mixedDays(40)}
	enc := fittedEncoder(t, h, vocab.UnknownReject)

	m, err := enc.Encode(h[1])
	require.NoError(t, err)
	require.Equal(t, 40, m.Rows())
	for _, row := range m {
		assert.Len(t, row, 32)
	}
}

func TestNoUseSelectsNoneSlots(t *testing.T) {
	days := mixedDays(21)
	enc := fittedEncoder(t, record.History{1: days}, vocab.UnknownReject)
	m, err := enc.Encode(days)
	require.NoError(t, err)

	raw := Numeric(days)
	for i, d := range days {
		if d.Used {
			continue
		}
		dec, err := DecodeRow(m[i])
		require.NoError(t, err)
		assert.Equal(t, vocab.None, dec.Context)
		assert.Equal(t, vocab.None, dec.TimeOfDay)
		assert.Equal(t, vocab.None, dec.Method)
		assert.Zero(t, raw[i][0], "amount before scaling")
		assert.Zero(t, raw[i][1], "cost before scaling")
	}
}

func TestDecodeRowRoundTrip(t *testing.T) {
	var days []record.DailyRecord
	for i, ctx := range vocab.Contexts.Active() {
		for j, tod := range vocab.Times.Active() {
			for k, m := range vocab.Methods.Active() {
				d := record.UseDay((i+j+k)%7, ctx, tod, m, 2, 20)
				days = append(days, d)
			}
		}
	}
	days = append(days, record.NewDay(6))
	enc := fittedEncoder(t, record.History{1: days}, vocab.UnknownReject)
	m, err := enc.Encode(days)
	require.NoError(t, err)

	for i, d := range days {
		got, err := DecodeRow(m[i])
		require.NoError(t, err)
		assert.Equal(t, Decoded{Context: d.Context, TimeOfDay: d.TimeOfDay, Method: d.Method, DayOfWeek: d.DayOfWeek}, got)
	}
}

func TestUnknownCategoryPolicies(t *testing.T) {
	days := mixedDays(5)
	h := record.History{1: days}
	odd := append([]record.DailyRecord(nil), days...)
	odd[0].Context = "rooftop"

	zero := fittedEncoder(t, h, vocab.UnknownZero)
	m, err := zero.Encode(odd)
	require.NoError(t, err)
	for _, x := range m[0][:vocab.Contexts.Len()] {
		assert.Zero(t, x)
	}

	reject := fittedEncoder(t, h, vocab.UnknownReject)
	_, err = reject.Encode(odd)
	assert.ErrorIs(t, err, vocab.ErrUnknownCategory)
}

func TestTransformScalesTrainingRangeToUnit(t *testing.T) {
	days := mixedDays(30)
	tr, err := Fit(record.History{1: days})
	require.NoError(t, err)

	scaled, err := tr.Apply(Numeric(days))
	require.NoError(t, err)
	for _, row := range scaled {
		for j, v := range row {
			assert.GreaterOrEqual(t, v, 0.0, vocab.NumericColumns[j])
			assert.LessOrEqual(t, v, 1.0, vocab.NumericColumns[j])
		}
	}
}

func TestTransformConstantColumnMapsToZero(t *testing.T) {
	days := []record.DailyRecord{record.NewDay(0), record.NewDay(1)}
	tr, err := Fit(record.History{1: days})
	require.NoError(t, err)

	scaled, err := tr.Apply(Numeric(days))
	require.NoError(t, err)
	for _, row := range scaled {
		assert.Zero(t, row[0], "amount is constant 0")
		assert.Zero(t, row[2], "mood is constant 5")
	}
}

func TestTransformIsImmutable(t *testing.T) {
	tr, err := Fit(record.History{1: mixedDays(10)})
	require.NoError(t, err)
	before := tr.Min()
	mins := tr.Min()
	mins[0] = 1e9
	assert.Equal(t, before, tr.Min())
}

func TestNewTransformChecksSchema(t *testing.T) {
	tr, err := Fit(record.History{1: mixedDays(10)})
	require.NoError(t, err)

	again, err := NewTransform(tr.Schema(), tr.Min(), tr.Max())
	require.NoError(t, err)
	assert.Equal(t, tr.Max(), again.Max())

	_, err = NewTransform("v0-legacy", tr.Min(), tr.Max())
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = NewTransform(tr.Schema(), tr.Min()[:7], tr.Max()[:7])
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestFitEmptyAndUnfitted(t *testing.T) {
	_, err := Fit(record.History{})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = NewEncoder(Transform{}, vocab.UnknownZero)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = Transform{}.Apply([][]float64{make([]float64, NumericWidth)})
	assert.ErrorIs(t, err, ErrNotFitted)
}
