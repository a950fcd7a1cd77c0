package window

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/grounded-app/risk-engine/internal/features"
	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

// ErrInsufficientHistory is returned when fewer than vocab.SequenceLength days are available.
var ErrInsufficientHistory = errors.New("insufficient history for a prediction window")

// #region types

// Window is SequenceLength consecutive feature rows of one user, oldest first.
type Window [][]float64

// Len returns the number of rows.
func (w Window) Len() int { return len(w) }

// Width returns the row width, 0 for an empty window.
func (w Window) Width() int {
	if len(w) == 0 {
		return 0
	}
	return len(w[0])
}

// Sample is one training pair: the window starting at Offset and the label of the day after it.
type Sample struct {
	UserID record.UserID
	Offset int
	Window Window
	Label  int
}

// #endregion types

// #region build

// Build slides the window over one user's rows. For D rows it yields max(0, D-SequenceLength)
// samples; sample i pairs rows [i, i+SequenceLength) with labels[i+SequenceLength].
// Windows share row slices with m.
func Build(userID record.UserID, m features.Matrix, labels []int) ([]Sample, error) {
	if len(labels) != m.Rows() {
		return nil, fmt.Errorf("build user %d: %d rows but %d labels", userID, m.Rows(), len(labels))
	}
	n := m.Rows() - vocab.SequenceLength
	if n <= 0 {
		return nil, nil
	}
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Sample{
			UserID: userID,
			Offset: i,
			Window: Window(m[i : i+vocab.SequenceLength : i+vocab.SequenceLength]),
			Label:  labels[i+vocab.SequenceLength],
		})
	}
	return out, nil
}

// BuildHistory windows every user independently and concatenates the results
// in ascending user ID, chronological within a user.
func BuildHistory(encoded map[record.UserID]features.Matrix, labels map[record.UserID][]int) ([]Sample, error) {
	ids := make([]record.UserID, 0, len(encoded))
	for id := range encoded {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []Sample
	for _, id := range ids {
		l, ok := labels[id]
		if !ok {
			return nil, fmt.Errorf("build history: no labels for user %d", id)
		}
		s, err := Build(id, encoded[id], l)
		if err != nil {
			return nil, err
		}
		out = append(out, s...)
	}
	return out, nil
}

// Latest returns the inference window over the most recent SequenceLength rows.
func Latest(m features.Matrix) (Window, error) {
	if m.Rows() < vocab.SequenceLength {
		return nil, fmt.Errorf("latest: %d days, need %d: %w", m.Rows(), vocab.SequenceLength, ErrInsufficientHistory)
	}
	return Window(m[m.Rows()-vocab.SequenceLength:]), nil
}

// #endregion build

// #region split

// Split holds disjoint user ID sets.
type Split struct {
	Train []record.UserID
	Val   []record.UserID
	Test  []record.UserID
}

// SplitUsers shuffles users with rng and carves off testFrac for test, then valFrac of
// the remainder for validation. Each set is returned sorted. Every set gets at least
// one user when there are three or more.
func SplitUsers(users []record.UserID, testFrac, valFrac float64, rng *rand.Rand) (Split, error) {
	if testFrac <= 0 || testFrac >= 1 || valFrac <= 0 || valFrac >= 1 {
		return Split{}, fmt.Errorf("split users: fractions %.2f/%.2f must be in (0,1)", testFrac, valFrac)
	}
	if len(users) < 3 {
		return Split{}, fmt.Errorf("split users: need at least 3 users, have %d", len(users))
	}
	shuffled := slices.Clone(users)
	slices.Sort(shuffled)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	nTest := atLeastOne(float64(len(shuffled)) * testFrac)
	if nTest > len(shuffled)-2 {
		nTest = len(shuffled) - 2
	}
	rest := shuffled[nTest:]
	nVal := atLeastOne(float64(len(rest)) * valFrac)
	if nVal >= len(rest) {
		nVal = len(rest) - 1
	}

	s := Split{
		Test:  slices.Clone(shuffled[:nTest]),
		Val:   slices.Clone(rest[:nVal]),
		Train: slices.Clone(rest[nVal:]),
	}
	slices.Sort(s.Test)
	slices.Sort(s.Val)
	slices.Sort(s.Train)
	return s, nil
}

func atLeastOne(x float64) int {
	n := int(x + 0.5)
	if n < 1 {
		return 1
	}
	return n
}

// #endregion split

// #region stats

// Balance counts the labels of a sample set.
type Balance struct {
	Total     int
	Positives int
	Negatives int
}

// PositiveRate is Positives/Total, 0 when empty.
func (b Balance) PositiveRate() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Positives) / float64(b.Total)
}

// Stats counts positives and negatives.
func Stats(samples []Sample) Balance {
	var b Balance
	for _, s := range samples {
		b.Total++
		if s.Label == 1 {
			b.Positives++
		} else {
			b.Negatives++
		}
	}
	return b
}

// #endregion stats
