package vocab

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// #region constants

// None marks "no use" for every categorical field. It is a real slot, not a missing value.
const None = "none"

// DaysOfWeek is the width of the day-of-week block (0 = first day of the cycle).
const DaysOfWeek = 7

// SequenceLength is the number of consecutive days in one model window.
const SequenceLength = 14

// #endregion constants

// #region vocabularies

// Vocabulary is an ordered, immutable list of allowed values for one field.
type Vocabulary struct {
	name   string
	values []string
}

var (
	// Contexts lists where/with whom use happened.
	Contexts = newVocabulary("context", "alone", "friends", "family", "work", "party", None)
	// Times lists the time-of-day buckets.
	Times = newVocabulary("time_of_day", "morning", "afternoon", "evening", "night", None)
	// Methods lists consumption methods.
	Methods = newVocabulary("method", "smoking", "vaping", "edibles", "drinking", None)
)

// NumericColumns is the fixed order of the normalized numeric block.
var NumericColumns = []string{
	"amount",
	"cost",
	"mood",
	"sleep_quality",
	"craving_intensity",
	"reminder_opens",
	"messages_read",
	"frequency_7day",
	"frequency_30day",
}

func newVocabulary(name string, values ...string) Vocabulary {
	return Vocabulary{name: name, values: values}
}

// Name returns the field name the vocabulary encodes.
func (v Vocabulary) Name() string { return v.name }

// Len returns the number of slots, including None.
func (v Vocabulary) Len() int { return len(v.values) }

// Values returns a copy of the ordered values.
func (v Vocabulary) Values() []string {
	out := make([]string, len(v.values))
	copy(out, v.values)
	return out
}

// Active returns the values a user can actually report, i.e. everything but None.
func (v Vocabulary) Active() []string {
	out := make([]string, 0, len(v.values))
	for _, s := range v.values {
		if s != None {
			out = append(out, s)
		}
	}
	return out
}

// #endregion vocabularies

// #region policy

// UnknownPolicy decides what happens to a value outside the vocabulary.
type UnknownPolicy string

const (
	// UnknownZero encodes unseen values as an all-zero block.
	UnknownZero UnknownPolicy = "zero"
	// UnknownReject fails encoding with ErrUnknownCategory.
	UnknownReject UnknownPolicy = "reject"
)

// ErrUnknownCategory is returned under UnknownReject for a value outside the vocabulary.
var ErrUnknownCategory = errors.New("unknown category value")

// ParsePolicy converts a config string into an UnknownPolicy. Empty means UnknownZero.
func ParsePolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", UnknownZero:
		return UnknownZero, nil
	case UnknownReject:
		return UnknownReject, nil
	}
	return "", fmt.Errorf("unknown category policy %q (want %q or %q)", s, UnknownZero, UnknownReject)
}

// #endregion policy

// #region encode

// Index returns the slot of value, or -1 if it is not in the vocabulary.
func (v Vocabulary) Index(value string) int {
	for i, s := range v.values {
		if s == value {
			return i
		}
	}
	return -1
}

// Valid reports whether value belongs to the vocabulary.
func (v Vocabulary) Valid(value string) bool {
	return v.Index(value) >= 0
}

// OneHot returns a Len()-wide indicator vector for value.
func (v Vocabulary) OneHot(value string, policy UnknownPolicy) ([]float64, error) {
	out := make([]float64, len(v.values))
	if err := v.PutOneHot(out, value, policy); err != nil {
		return nil, err
	}
	return out, nil
}

// PutOneHot writes the indicator block for value into dst, which must hold Len() slots.
func (v Vocabulary) PutOneHot(dst []float64, value string, policy UnknownPolicy) error {
	if len(dst) < len(v.values) {
		return fmt.Errorf("one-hot %s: destination has %d slots, need %d", v.name, len(dst), len(v.values))
	}
	for i := range v.values {
		dst[i] = 0
	}
	idx := v.Index(value)
	if idx < 0 {
		if policy == UnknownReject {
			return fmt.Errorf("%s %q: %w", v.name, value, ErrUnknownCategory)
		}
		return nil
	}
	dst[idx] = 1
	return nil
}

// Decode recovers the category from a one-hot block by argmax.
// Returns false for an all-zero block or a block of the wrong width.
func (v Vocabulary) Decode(block []float64) (string, bool) {
	if len(block) != len(v.values) {
		return "", false
	}
	best, bestVal := -1, 0.0
	for i, x := range block {
		if x > bestVal {
			best, bestVal = i, x
		}
	}
	if best < 0 {
		return "", false
	}
	return v.values[best], true
}

// DayOneHot writes the day-of-week block. Out-of-range days follow the same policy as categories.
func DayOneHot(dst []float64, day int, policy UnknownPolicy) error {
	if len(dst) < DaysOfWeek {
		return fmt.Errorf("one-hot day_of_week: destination has %d slots, need %d", len(dst), DaysOfWeek)
	}
	for i := 0; i < DaysOfWeek; i++ {
		dst[i] = 0
	}
	if day < 0 || day >= DaysOfWeek {
		if policy == UnknownReject {
			return fmt.Errorf("day_of_week %d: %w", day, ErrUnknownCategory)
		}
		return nil
	}
	dst[day] = 1
	return nil
}

// DecodeDay recovers the day of week from its block; -1 if the block is empty.
func DecodeDay(block []float64) int {
	if len(block) != DaysOfWeek {
		return -1
	}
	best, bestVal := -1, 0.0
	for i, x := range block {
		if x > bestVal {
			best, bestVal = i, x
		}
	}
	return best
}

// #endregion encode

// #region layout

// Width is the total feature width: the three category blocks, the day block and the numeric block.
func Width() int {
	return Contexts.Len() + Times.Len() + Methods.Len() + DaysOfWeek + len(NumericColumns)
}

// Block names a contiguous [Start, End) range inside a feature vector.
type Block struct {
	Name  string
	Start int
	End   int
}

// Layout returns the feature blocks in encoding order.
func Layout() []Block {
	var blocks []Block
	off := 0
	add := func(name string, n int) {
		blocks = append(blocks, Block{Name: name, Start: off, End: off + n})
		off += n
	}
	add(Contexts.Name(), Contexts.Len())
	add(Times.Name(), Times.Len())
	add(Methods.Name(), Methods.Len())
	add("day_of_week", DaysOfWeek)
	add("numeric", len(NumericColumns))
	return blocks
}

// Fingerprint identifies the encoding schema. Any change to vocabulary order, numeric columns
// or sequence length changes it, and a persisted transform with another fingerprint is unusable.
func Fingerprint() string {
	var b strings.Builder
	for _, v := range []Vocabulary{Contexts, Times, Methods} {
		b.WriteString(v.name)
		b.WriteByte('=')
		b.WriteString(strings.Join(v.values, ","))
		b.WriteByte(';')
	}
	b.WriteString("day_of_week=" + strconv.Itoa(DaysOfWeek) + ";")
	b.WriteString("numeric=" + strings.Join(NumericColumns, ",") + ";")
	b.WriteString("sequence_length=" + strconv.Itoa(SequenceLength))
	sum := sha256.Sum256([]byte(b.String()))
	return "v1-" + hex.EncodeToString(sum[:8])
}

// #endregion layout
