package features

import (
	"fmt"

	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

// #region matrix

// Matrix holds one fixed-width feature row per day, in chronological order.
type Matrix [][]float64

// Rows returns the number of days.
func (m Matrix) Rows() int { return len(m) }

// #endregion matrix

// #region encoder

// Encoder turns day records into feature rows with a fixed transform and unknown-category policy.
// Safe for concurrent use: it only reads its transform.
type Encoder struct {
	transform Transform
	policy    vocab.UnknownPolicy
}

// NewEncoder binds a fitted transform and policy.
func NewEncoder(t Transform, policy vocab.UnknownPolicy) (*Encoder, error) {
	if !t.Fitted() {
		return nil, ErrNotFitted
	}
	if t.Schema() != vocab.Fingerprint() {
		return nil, fmt.Errorf("new encoder: %w", ErrSchemaMismatch)
	}
	if policy == "" {
		policy = vocab.UnknownZero
	}
	return &Encoder{transform: t, policy: policy}, nil
}

// Transform returns the bound transform.
func (e *Encoder) Transform() Transform { return e.transform }

// Policy returns the unknown-category policy.
func (e *Encoder) Policy() vocab.UnknownPolicy { return e.policy }

// Width is the feature row width.
func (e *Encoder) Width() int { return vocab.Width() }

// #endregion encoder

// #region encode

// Encode produces one row per day. days must belong to a single user; the rolling
// means are computed over exactly these days.
func (e *Encoder) Encode(days []record.DailyRecord) (Matrix, error) {
	numeric := Numeric(days)
	layout := vocab.Layout()
	out := make(Matrix, len(days))
	for i, d := range days {
		row := make([]float64, vocab.Width())
		if err := vocab.Contexts.PutOneHot(row[layout[0].Start:layout[0].End], d.Context, e.policy); err != nil {
			return nil, fmt.Errorf("encode day %d: %w", d.DayNum, err)
		}
		if err := vocab.Times.PutOneHot(row[layout[1].Start:layout[1].End], d.TimeOfDay, e.policy); err != nil {
			return nil, fmt.Errorf("encode day %d: %w", d.DayNum, err)
		}
		if err := vocab.Methods.PutOneHot(row[layout[2].Start:layout[2].End], d.Method, e.policy); err != nil {
			return nil, fmt.Errorf("encode day %d: %w", d.DayNum, err)
		}
		if err := vocab.DayOneHot(row[layout[3].Start:layout[3].End], d.DayOfWeek, e.policy); err != nil {
			return nil, fmt.Errorf("encode day %d: %w", d.DayNum, err)
		}
		if err := e.transform.ApplyRow(row[layout[4].Start:layout[4].End], numeric[i]); err != nil {
			return nil, fmt.Errorf("encode day %d: %w", d.DayNum, err)
		}
		out[i] = row
	}
	return out, nil
}

// EncodeHistory encodes every user independently.
func (e *Encoder) EncodeHistory(h record.History) (map[record.UserID]Matrix, error) {
	out := make(map[record.UserID]Matrix, len(h))
	for _, id := range h.Users() {
		m, err := e.Encode(h[id])
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", id, err)
		}
		out[id] = m
	}
	return out, nil
}

// #endregion encode

// #region decode

// Decoded is the categorical content recovered from a feature row.
type Decoded struct {
	Context   string
	TimeOfDay string
	Method    string
	DayOfWeek int
}

// DecodeRow recovers the categories of one row by argmax over each one-hot block.
// All-zero blocks (unknown values under the zero policy) decode to "".
func DecodeRow(row []float64) (Decoded, error) {
	if len(row) != vocab.Width() {
		return Decoded{}, fmt.Errorf("decode: row width %d, want %d", len(row), vocab.Width())
	}
	l := vocab.Layout()
	var d Decoded
	d.Context, _ = vocab.Contexts.Decode(row[l[0].Start:l[0].End])
	d.TimeOfDay, _ = vocab.Times.Decode(row[l[1].Start:l[1].End])
	d.Method, _ = vocab.Methods.Decode(row[l[2].Start:l[2].End])
	d.DayOfWeek = vocab.DecodeDay(row[l[3].Start:l[3].End])
	return d, nil
}

// #endregion decode
