package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
// ServiceName is the fully qualified gRPC service name. Requests and
// responses are google.protobuf.Struct documents.
const ServiceName = "rewards.v1.RewardService"

const (
	evaluateMethod      = "/" + ServiceName + "/Evaluate"
	listFunctionsMethod = "/" + ServiceName + "/ListFunctions"
	summaryMethod       = "/" + ServiceName + "/Summary"
)

// RewardServiceServer is the server API for RewardService.
type RewardServiceServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListFunctions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Summary(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterRewardServiceServer registers srv on reg.
func RegisterRewardServiceServer(reg grpc.ServiceRegistrar, srv RewardServiceServer) {
	reg.RegisterService(&rewardServiceDesc, srv)
}

var rewardServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RewardServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler(evaluateMethod, RewardServiceServer.Evaluate)},
		{MethodName: "ListFunctions", Handler: unaryHandler(listFunctionsMethod, RewardServiceServer.ListFunctions)},
		{MethodName: "Summary", Handler: unaryHandler(summaryMethod, RewardServiceServer.Summary)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rewards/v1/rewards.proto",
}

type structMethod func(RewardServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RewardServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RewardServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// #endregion service-desc

// #region messages
type evaluateRequest struct {
	Function string          `json:"function,omitempty"` // "" selects the server default
	Context  json.RawMessage `json:"context"`
}

type functionRequest struct {
	Function string `json:"function,omitempty"`
}

// FunctionInfo describes one function the server can score with.
type FunctionInfo struct {
	Name        string `json:"name"`     // registered name
	Function    string `json:"function"` // reward.Function.Name()
	Description string `json:"description"`
	Default     bool   `json:"default,omitempty"`
}

type listFunctionsResponse struct {
	Functions []FunctionInfo `json:"functions"`
}

// #endregion messages

// #region codec
// toStruct encodes v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return out, nil
}

// fromStruct decodes s into v through its JSON form.
func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = new(structpb.Struct)
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// #endregion codec
