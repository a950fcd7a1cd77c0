package riskrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/grounded-app/risk-engine/internal/features"
	"github.com/grounded-app/risk-engine/internal/window"
)

// #region client-struct
// Client calls a remote RiskService. It implements model.Predictor.
type Client struct {
	conn   *grpc.ClientConn
	client RiskServiceClient
	schema string
}

// #endregion client-struct

// #region constructor
// NewClient connects to the risk gRPC server. schema is the local encoder fingerprint
// sent with every window.
func NewClient(addr, schema string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		client: NewRiskServiceClient(conn),
		schema: schema,
	}, nil
}

// NewClientWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc RiskServiceClient, schema string) *Client {
	return &Client{client: svc, schema: schema}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region predict
// Predict sends one window to the server and returns the probability.
func (c *Client) Predict(ctx context.Context, w window.Window) (float64, error) {
	resp, err := c.PredictVersion(ctx, w)
	if err != nil {
		return 0, err
	}
	return resp.Probability, nil
}

// PredictVersion is Predict plus the version ID of the bundle that served it.
func (c *Client) PredictVersion(ctx context.Context, w window.Window) (PredictResponse, error) {
	out, err := c.client.Predict(ctx, encodeRequest(c.schema, w))
	if err != nil {
		if status.Code(err) == codes.FailedPrecondition {
			return PredictResponse{}, fmt.Errorf("predict rpc: %w: %s", features.ErrSchemaMismatch, status.Convert(err).Message())
		}
		return PredictResponse{}, fmt.Errorf("predict rpc: %w", err)
	}
	resp, err := decodeResponse(out)
	if err != nil {
		return PredictResponse{}, fmt.Errorf("predict rpc: %w", err)
	}
	return resp, nil
}

// #endregion predict

// #region health
// Health reports what the server is serving.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	out, err := c.client.Health(ctx, &emptypb.Empty{})
	if err != nil {
		return HealthStatus{}, fmt.Errorf("health rpc: %w", err)
	}
	return decodeHealth(out), nil
}

// #endregion health
