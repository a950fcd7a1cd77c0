package riskrpc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/grounded-app/risk-engine/internal/model"
	"github.com/grounded-app/risk-engine/internal/vocab"
)

// #region server-struct
// Server exposes one loaded predictor over gRPC. The predictor must be safe for concurrent use.
type Server struct {
	predictor model.Predictor
	schema    string
	versionID string
	logger    *zap.Logger
}

// NewServer wraps a predictor trained under schema.
func NewServer(p model.Predictor, schema, versionID string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{predictor: p, schema: schema, versionID: versionID, logger: logger}
}

// #endregion server-struct

// #region handlers
// Predict validates the window and runs the predictor.
func (s *Server) Predict(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if req.Schema != s.schema {
		return nil, status.Errorf(codes.FailedPrecondition, "client schema %s, server schema %s", req.Schema, s.schema)
	}
	if req.SequenceLength != vocab.SequenceLength || req.NFeatures != vocab.Width() {
		return nil, status.Errorf(codes.InvalidArgument, "declared shape %dx%d, want %dx%d",
			req.SequenceLength, req.NFeatures, vocab.SequenceLength, vocab.Width())
	}
	if err := model.CheckShape(req.Window); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	p, err := s.predictor.Predict(ctx, req.Window)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		s.logger.Warn("predict failed", zap.Error(err))
		return nil, status.Errorf(codes.Internal, "predict: %v", err)
	}
	s.logger.Debug("served prediction", zap.Float64("probability", p), zap.String("version_id", s.versionID))
	return encodeResponse(PredictResponse{Probability: p, VersionID: s.versionID}), nil
}

// Health reports the served bundle.
func (s *Server) Health(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encodeHealth(HealthStatus{
		Status:         "SERVING",
		VersionID:      s.versionID,
		Schema:         s.schema,
		SequenceLength: vocab.SequenceLength,
		NFeatures:      vocab.Width(),
	}), nil
}

// #endregion handlers

// #region serve
// Serve registers s on a new grpc.Server and serves lis until ctx is cancelled,
// then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	RegisterRiskServiceServer(gs, s)

	errCh := make(chan error, 1)
	go func() { errCh <- gs.Serve(lis) }()
	s.logger.Info("risk service listening", zap.String("addr", lis.Addr().String()), zap.String("version_id", s.versionID))

	select {
	case <-ctx.Done():
		gs.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

// #endregion serve
