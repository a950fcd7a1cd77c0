package window

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grounded-app/risk-engine/internal/features"
	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

// matrix builds rows whose first cell encodes (user, day) so windows can be traced back.
func matrix(user record.UserID, days int) features.Matrix {
	m := make(features.Matrix, days)
	for i := range m {
		row := make([]float64, vocab.Width())
		row[0] = float64(int(user)*1000 + i)
		m[i] = row
	}
	return m
}

func labelsFor(days int) []int {
	l := make([]int, days)
	for i := range l {
		l[i] = i % 2
	}
	return l
}

func TestBuildCountAndLabels(t *testing.T) {
	for _, days := range []int{0, 5, 14, 15, 30} {
		s, err := Build(1, matrix(1, days), labelsFor(days))
		require.NoError(t, err)
		want := days - vocab.SequenceLength
		if want < 0 {
			want = 0
		}
		require.Len(t, s, want, "%d days", days)
		for i, sample := range s {
			assert.Equal(t, i, sample.Offset)
			assert.Equal(t, (i+vocab.SequenceLength)%2, sample.Label, "label is the day after the window")
			assert.Equal(t, vocab.SequenceLength, sample.Window.Len())
			assert.Equal(t, float64(1000+i), sample.Window[0][0])
		}
	}
}

func TestBuildLabelMismatch(t *testing.T) {
	_, err := Build(1, matrix(1, 20), labelsFor(19))
	assert.Error(t, err)
}

func TestBuildHistoryNeverCrossesUsers(t *testing.T) {
	encoded := map[record.UserID]features.Matrix{3: matrix(3, 20), 1: matrix(1, 16), 2: matrix(2, 10)}
	labels := map[record.UserID][]int{3: labelsFor(20), 1: labelsFor(16), 2: labelsFor(10)}

	samples, err := BuildHistory(encoded, labels)
	require.NoError(t, err)
	require.Len(t, samples, 2+0+6)

	prev := record.UserID(0)
	for _, s := range samples {
		assert.GreaterOrEqual(t, s.UserID, prev, "ascending user order")
		prev = s.UserID
		for _, row := range s.Window {
			assert.Equal(t, int(s.UserID), int(row[0])/1000, "row from another user")
		}
	}
	assert.Equal(t, record.UserID(1), samples[0].UserID)
	assert.Equal(t, 0, samples[0].Offset)
	assert.Equal(t, 1, samples[1].Offset)
}

func TestBuildHistoryMissingLabels(t *testing.T) {
	_, err := BuildHistory(map[record.UserID]features.Matrix{1: matrix(1, 20)}, nil)
	assert.Error(t, err)
}

func TestLatestExactHistory(t *testing.T) {
	w, err := Latest(matrix(1, 14))
	require.NoError(t, err)
	assert.Equal(t, 14, w.Len())
	assert.Equal(t, 32, w.Width())

	w, err = Latest(matrix(1, 20))
	require.NoError(t, err)
	assert.Equal(t, float64(1006), w[0][0], "most recent 14 days")

	_, err = Latest(matrix(1, 13))
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestSplitUsersDisjointAndDeterministic(t *testing.T) {
	users := make([]record.UserID, 100)
	for i := range users {
		users[i] = record.UserID(i + 1)
	}
	a, err := SplitUsers(users, 0.2, 0.2, rand.New(rand.NewPCG(42, 0)))
	require.NoError(t, err)
	b, err := SplitUsers(users, 0.2, 0.2, rand.New(rand.NewPCG(42, 0)))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Len(t, a.Test, 20)
	assert.Len(t, a.Val, 16)
	assert.Len(t, a.Train, 64)

	seen := map[record.UserID]bool{}
	for _, set := range [][]record.UserID{a.Train, a.Val, a.Test} {
		for _, id := range set {
			require.False(t, seen[id], "user %d in two splits", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 100)
}

func TestSplitUsersSmallAndInvalid(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	s, err := SplitUsers([]record.UserID{1, 2, 3}, 0.9, 0.9, rng)
	require.NoError(t, err)
	assert.Len(t, s.Train, 1)
	assert.Len(t, s.Val, 1)
	assert.Len(t, s.Test, 1)

	_, err = SplitUsers([]record.UserID{1, 2}, 0.2, 0.2, rng)
	assert.Error(t, err)
	_, err = SplitUsers([]record.UserID{1, 2, 3}, 0, 0.2, rng)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	b := Stats([]Sample{{Label: 1}, {Label: 0}, {Label: 0}, {Label: 1}})
	assert.Equal(t, Balance{Total: 4, Positives: 2, Negatives: 2}, b)
	assert.InDelta(t, 0.5, b.PositiveRate(), 1e-12)
	assert.Zero(t, Stats(nil).PositiveRate())
}
