package riskrpc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/grounded-app/risk-engine/internal/window"
)

// #region request
// PredictRequest is the decoded form of a Predict call.
type PredictRequest struct {
	Schema         string
	SequenceLength int
	NFeatures      int
	Window         window.Window
}

func encodeRequest(schema string, w window.Window) *structpb.Struct {
	rows := make([]*structpb.Value, len(w))
	for i, row := range w {
		cells := make([]*structpb.Value, len(row))
		for j, v := range row {
			cells[j] = structpb.NewNumberValue(v)
		}
		rows[i] = structpb.NewListValue(&structpb.ListValue{Values: cells})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"schema":          structpb.NewStringValue(schema),
		"sequence_length": structpb.NewNumberValue(float64(w.Len())),
		"n_features":      structpb.NewNumberValue(float64(w.Width())),
		"window":          structpb.NewListValue(&structpb.ListValue{Values: rows}),
	}}
}

func decodeRequest(s *structpb.Struct) (PredictRequest, error) {
	f := s.GetFields()
	req := PredictRequest{
		Schema:         f["schema"].GetStringValue(),
		SequenceLength: int(f["sequence_length"].GetNumberValue()),
		NFeatures:      int(f["n_features"].GetNumberValue()),
	}
	list := f["window"].GetListValue()
	if list == nil {
		return PredictRequest{}, fmt.Errorf("request has no window")
	}
	req.Window = make(window.Window, len(list.GetValues()))
	for i, rv := range list.GetValues() {
		cells := rv.GetListValue()
		if cells == nil {
			return PredictRequest{}, fmt.Errorf("window row %d is not a list", i)
		}
		row := make([]float64, len(cells.GetValues()))
		for j, cv := range cells.GetValues() {
			if _, ok := cv.GetKind().(*structpb.Value_NumberValue); !ok {
				return PredictRequest{}, fmt.Errorf("window cell %d,%d is not a number", i, j)
			}
			row[j] = cv.GetNumberValue()
		}
		req.Window[i] = row
	}
	return req, nil
}

// #endregion request

// #region response
// PredictResponse is the decoded form of a Predict reply.
type PredictResponse struct {
	Probability float64
	VersionID   string
}

func encodeResponse(r PredictResponse) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"probability": structpb.NewNumberValue(r.Probability),
		"version_id":  structpb.NewStringValue(r.VersionID),
	}}
}

func decodeResponse(s *structpb.Struct) (PredictResponse, error) {
	v, ok := s.GetFields()["probability"]
	if !ok {
		return PredictResponse{}, fmt.Errorf("response has no probability")
	}
	p := v.GetNumberValue()
	if !(p >= 0 && p <= 1) {
		return PredictResponse{}, fmt.Errorf("probability %.4f outside [0,1]", p)
	}
	return PredictResponse{Probability: p, VersionID: s.GetFields()["version_id"].GetStringValue()}, nil
}

// #endregion response

// #region health
// HealthStatus is the decoded form of a Health reply.
type HealthStatus struct {
	Status         string
	VersionID      string
	Schema         string
	SequenceLength int
	NFeatures      int
}

func encodeHealth(h HealthStatus) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"status":          structpb.NewStringValue(h.Status),
		"version_id":      structpb.NewStringValue(h.VersionID),
		"schema":          structpb.NewStringValue(h.Schema),
		"sequence_length": structpb.NewNumberValue(float64(h.SequenceLength)),
		"n_features":      structpb.NewNumberValue(float64(h.NFeatures)),
	}}
}

func decodeHealth(s *structpb.Struct) HealthStatus {
	f := s.GetFields()
	return HealthStatus{
		Status:         f["status"].GetStringValue(),
		VersionID:      f["version_id"].GetStringValue(),
		Schema:         f["schema"].GetStringValue(),
		SequenceLength: int(f["sequence_length"].GetNumberValue()),
		NFeatures:      int(f["n_features"].GetNumberValue()),
	}
}

// #endregion health
