package transport

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/agent-rewards/internal/eval"
	"github.com/danielpatrickdp/agent-rewards/internal/gate"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region types
// EvaluateResult is the response of an Evaluate call. Gate is nil when the
// server runs without a gate.
type EvaluateResult struct {
	Evaluation eval.Evaluation    `json:"evaluation"`
	Gate       *gate.GateDecision `json:"gate,omitempty"`
}

// #endregion types

// #region client-struct
// Client calls a remote RewardService.
type Client struct {
	conn *grpc.ClientConn // nil when constructed from an injected conn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to a RewardService at addr without TLS.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn wraps an existing connection. Close does not close it.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection if the client owns it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region evaluate
// Evaluate scores rc remotely. An empty function selects the server default.
func (c *Client) Evaluate(ctx context.Context, function string, rc reward.Context) (EvaluateResult, error) {
	req, err := toStruct(map[string]any{"function": function, "context": rc})
	if err != nil {
		return EvaluateResult{}, err
	}
	var res EvaluateResult
	if err := c.call(ctx, evaluateMethod, req, &res); err != nil {
		return EvaluateResult{}, fmt.Errorf("evaluate rpc: %w", err)
	}
	return res, nil
}

// #endregion evaluate

// #region list-functions
// ListFunctions returns the server's functions, default first.
func (c *Client) ListFunctions(ctx context.Context) ([]FunctionInfo, error) {
	var res listFunctionsResponse
	if err := c.call(ctx, listFunctionsMethod, &structpb.Struct{}, &res); err != nil {
		return nil, fmt.Errorf("list functions rpc: %w", err)
	}
	return res.Functions, nil
}

// #endregion list-functions

// #region summary
// Summary returns the server-side performance summary for function.
func (c *Client) Summary(ctx context.Context, function string) (eval.Summary, error) {
	req, err := toStruct(functionRequest{Function: function})
	if err != nil {
		return eval.Summary{}, err
	}
	var res eval.Summary
	if err := c.call(ctx, summaryMethod, req, &res); err != nil {
		return eval.Summary{}, fmt.Errorf("summary rpc: %w", err)
	}
	return res, nil
}

// #endregion summary

func (c *Client) call(ctx context.Context, method string, req *structpb.Struct, out any) error {
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, resp); err != nil {
		return err
	}
	return fromStruct(resp, out)
}
