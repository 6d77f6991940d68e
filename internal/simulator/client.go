package simulator

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service of the simulator.
const ServiceName = "behavior.simulator.v1.Simulator"

// RPC method names.
const (
	MethodDemoMetadata      = "DemoMetadata"
	MethodOpenDemo          = "OpenDemo"
	MethodStepDemo          = "StepDemo"
	MethodCloseDemo         = "CloseDemo"
	MethodDemoMetrics       = "DemoMetrics"
	MethodResetPrimitiveEnv = "ResetPrimitiveEnv"
	MethodStepPrimitive     = "StepPrimitive"
	MethodResetEnv          = "ResetEnv"
	MethodStepEnv           = "StepEnv"
	MethodEpisodeMetrics    = "EpisodeMetrics"
	MethodCloseEnv          = "CloseEnv"
)

// #region service
// Service performs one simulator RPC. Requests and responses are
// google.protobuf.Struct messages.
type Service interface {
	Call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error)
}

type grpcService struct {
	conn grpc.ClientConnInterface
}

func (s grpcService) Call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	resp := &structpb.Struct{}
	if err := s.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// #endregion service

// #region client-struct
// Client wraps the gRPC connection to the simulator service.
type Client struct {
	conn *grpc.ClientConn
	svc  Service
}

// #endregion client-struct

// #region constructor
// NewClient connects to the simulator gRPC server.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, svc: grpcService{conn: conn}}, nil
}

// NewClientWithConn creates a Client over an existing connection.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{svc: grpcService{conn: cc}}
}

// NewClientWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc Service) *Client {
	return &Client{svc: svc}
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

// #region call
// call encodes req as a Struct, invokes method and decodes the response into
// resp. resp may be nil.
func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	in, err := toStruct(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", method, err)
	}
	out, err := c.svc.Call(ctx, method, in)
	if err != nil {
		return fmt.Errorf("%s rpc: %w", method, err)
	}
	if resp == nil || out == nil {
		return nil
	}
	b, err := protojson.Marshal(out)
	if err != nil {
		return fmt.Errorf("%s response: %w", method, err)
	}
	if err := json.Unmarshal(b, resp); err != nil {
		return fmt.Errorf("%s response: %w", method, err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// #endregion call
