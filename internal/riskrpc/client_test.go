package riskrpc

import (
	"context"
	"errors"
	"math"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/grounded-app/risk-engine/internal/features"
	"github.com/grounded-app/risk-engine/internal/vocab"
	"github.com/grounded-app/risk-engine/internal/window"
)

// #region mock
type mockRiskService struct {
	predictResp *structpb.Struct
	predictErr  error
	lastRequest *structpb.Struct

	healthResp *structpb.Struct
	healthErr  error
}

func (m *mockRiskService) Predict(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	m.lastRequest = in
	return m.predictResp, m.predictErr
}

func (m *mockRiskService) Health(_ context.Context, _ *emptypb.Empty, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.healthResp, m.healthErr
}

func testWindow() window.Window {
	w := make(window.Window, vocab.SequenceLength)
	for i := range w {
		row := make([]float64, vocab.Width())
		row[i%vocab.Width()] = 1
		row[vocab.Width()-1] = float64(i) / 14
		w[i] = row
	}
	return w
}

// #endregion mock

// #region constructor-tests
func TestNewClientLazyConnect(t *testing.T) {
	client, err := NewClient("localhost:0", vocab.Fingerprint())
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer client.Close()
}

func TestNewClientWithService(t *testing.T) {
	c := NewClientWithService(&mockRiskService{}, vocab.Fingerprint())
	if c == nil || c.client == nil {
		t.Fatal("expected non-nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close without conn: %v", err)
	}
}

// #endregion constructor-tests

// #region predict-tests
func TestPredict_Success(t *testing.T) {
	mock := &mockRiskService{predictResp: encodeResponse(PredictResponse{Probability: 0.73, VersionID: "v9"})}
	c := NewClientWithService(mock, vocab.Fingerprint())

	resp, err := c.PredictVersion(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Probability != 0.73 || resp.VersionID != "v9" {
		t.Fatalf("unexpected response %+v", resp)
	}

	req, err := decodeRequest(mock.lastRequest)
	if err != nil {
		t.Fatalf("decode sent request: %v", err)
	}
	if req.Schema != vocab.Fingerprint() || req.SequenceLength != 14 || req.NFeatures != 32 {
		t.Fatalf("unexpected request header %+v", req)
	}
	if req.Window[13][31] != 13.0/14 {
		t.Fatalf("window not carried intact: %f", req.Window[13][31])
	}
}

func TestPredict_SchemaMismatchMapsToSentinel(t *testing.T) {
	mock := &mockRiskService{predictErr: status.Error(codes.FailedPrecondition, "schema differs")}
	c := NewClientWithService(mock, "v1-stale")

	_, err := c.Predict(context.Background(), testWindow())
	if !errors.Is(err, features.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestPredict_Error(t *testing.T) {
	mock := &mockRiskService{predictErr: errors.New("connection refused")}
	c := NewClientWithService(mock, vocab.Fingerprint())

	if _, err := c.Predict(context.Background(), testWindow()); err == nil {
		t.Fatal("expected error")
	}
}

func TestPredict_BadProbability(t *testing.T) {
	mock := &mockRiskService{predictResp: encodeResponse(PredictResponse{Probability: 1.5})}
	c := NewClientWithService(mock, vocab.Fingerprint())

	if _, err := c.Predict(context.Background(), testWindow()); err == nil {
		t.Fatal("expected error for probability outside [0,1]")
	}

	mock.predictResp = &structpb.Struct{}
	if _, err := c.Predict(context.Background(), testWindow()); err == nil {
		t.Fatal("expected error for missing probability")
	}

	mock.predictResp = encodeResponse(PredictResponse{Probability: math.NaN()})
	if _, err := c.Predict(context.Background(), testWindow()); err == nil {
		t.Fatal("expected error for NaN probability")
	}
}

// #endregion predict-tests

// #region health-tests
func TestHealth(t *testing.T) {
	mock := &mockRiskService{healthResp: encodeHealth(HealthStatus{Status: "SERVING", VersionID: "v1", Schema: "s", SequenceLength: 14, NFeatures: 32})}
	c := NewClientWithService(mock, vocab.Fingerprint())

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status != "SERVING" || h.VersionID != "v1" || h.SequenceLength != 14 || h.NFeatures != 32 {
		t.Fatalf("unexpected health %+v", h)
	}

	mock.healthErr = errors.New("down")
	if _, err := c.Health(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// #endregion health-tests

// #region message-tests
func TestDecodeRequestRejectsMalformed(t *testing.T) {
	if _, err := decodeRequest(&structpb.Struct{}); err == nil {
		t.Fatal("expected error for missing window")
	}
	bad, _ := structpb.NewStruct(map[string]interface{}{
		"window": []interface{}{[]interface{}{1.0, "x"}},
	})
	if _, err := decodeRequest(bad); err == nil {
		t.Fatal("expected error for non-numeric cell")
	}
	flat, _ := structpb.NewStruct(map[string]interface{}{
		"window": []interface{}{1.0},
	})
	if _, err := decodeRequest(flat); err == nil {
		t.Fatal("expected error for non-list row")
	}
}

// #endregion message-tests
