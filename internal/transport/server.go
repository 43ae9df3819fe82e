package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/danielpatrickdp/agent-rewards/internal/builder"
	"github.com/danielpatrickdp/agent-rewards/internal/eval"
	"github.com/danielpatrickdp/agent-rewards/internal/gate"
	"github.com/danielpatrickdp/agent-rewards/internal/history"
	"github.com/danielpatrickdp/agent-rewards/internal/logging"
	"github.com/danielpatrickdp/agent-rewards/internal/metrics"
	"github.com/danielpatrickdp/agent-rewards/internal/reward"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region server-struct
// Server implements RewardService over a builder registry. One eval.Session
// is kept per requested function so Summary reflects everything served.
type Server struct {
	builder *builder.Builder
	def     reward.Function
	store   *history.Store
	metrics *metrics.Metrics
	gate    *gate.Gate
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*eval.Session
}

// Option configures a Server.
type Option func(*Server)

// WithDefault sets the function used when a request names none.
func WithDefault(fn reward.Function) Option { return func(s *Server) { s.def = fn } }

// WithHistory records every evaluation in store.
func WithHistory(store *history.Store) Option { return func(s *Server) { s.store = store } }

// WithMetrics observes evaluations and gate decisions.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithGate applies g to every evaluation and returns its decision.
func WithGate(g *gate.Gate) Option { return func(s *Server) { s.gate = g } }

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// NewServer creates a Server resolving function names against b.
func NewServer(b *builder.Builder, opts ...Option) *Server {
	s := &Server{
		builder:  b,
		sessions: make(map[string]*eval.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)
	return s
}

// #endregion server-struct

// #region grpc-server
// NewGRPCServer builds a grpc.Server with request logging, the reward
// service and the standard health service registered.
func NewGRPCServer(srv *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryLogger(srv.logger))}, opts...)
	gs := grpc.NewServer(opts...)
	RegisterRewardServiceServer(gs, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs
}

// UnaryLogger tags each call with a request ID and logs its outcome.
func UnaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	logger = logging.OrDiscard(logger)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logging.WithRequestID(ctx, uuid.New().String())
		start := time.Now()
		resp, err := handler(ctx, req)

		l := logging.FromContext(ctx, logger)
		code := status.Code(err)
		if err != nil && code != codes.NotFound && code != codes.InvalidArgument {
			l.Error("rpc failed", "method", info.FullMethod, "code", code.String(), "error", err)
		} else {
			l.Debug("rpc", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
		}
		return resp, err
	}
}

// #endregion grpc-server

// #region evaluate
// Evaluate scores the request context with the named or default function.
func (s *Server) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req evaluateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	raw := bytes.TrimSpace(req.Context)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, status.Error(codes.InvalidArgument, "context is required")
	}
	var rc reward.Context
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "context: %v", err)
	}
	rc = reward.NewContext(rc.AgentState, rc.Action, rc.Result, rc.Metadata)

	session, err := s.session(req.Function)
	if err != nil {
		return nil, err
	}
	ev := session.Score(rc)

	var decision *gate.GateDecision
	gateAction := ""
	if s.gate != nil {
		d := s.gate.Evaluate(ev)
		decision = &d
		gateAction = d.Action
	}

	if s.store != nil {
		if _, err := s.store.Record(history.FromEvaluation(ev, rc, gateAction)); err != nil {
			logging.FromContext(ctx, s.logger).Error("record evaluation", "id", ev.ID, "error", err)
			return nil, status.Errorf(codes.Internal, "record evaluation: %v", err)
		}
	}

	// Only persisted evaluations count toward the summary and metrics.
	ev = session.Commit(ev)
	if decision != nil {
		s.metrics.ObserveDecision(ev.Function, *decision)
	}
	resp := EvaluateResult{Evaluation: ev, Gate: decision}

	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	return out, nil
}

// #endregion evaluate

// #region list-functions
// ListFunctions reports every registered function in registration order.
func (s *Server) ListFunctions(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	var resp listFunctionsResponse
	if s.def != nil {
		resp.Functions = append(resp.Functions, FunctionInfo{
			Name:        s.def.Name(),
			Function:    s.def.Name(),
			Description: s.def.Description(),
			Default:     true,
		})
	}
	for _, name := range s.builder.Names() {
		fn, ok := s.builder.Get(name)
		if !ok {
			continue
		}
		resp.Functions = append(resp.Functions, FunctionInfo{
			Name:        name,
			Function:    fn.Name(),
			Description: fn.Description(),
		})
	}

	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	return out, nil
}

// #endregion list-functions

// #region summary
// Summary reports the in-memory performance summary for a function.
func (s *Server) Summary(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req functionRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	session, err := s.session(req.Function)
	if err != nil {
		return nil, err
	}
	out, err := toStruct(session.Summary())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	return out, nil
}

// #endregion summary

// #region sessions
func (s *Server) session(name string) (*eval.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The default is advertised under its own name; a registered function
	// of the same name takes precedence.
	if s.def != nil && name == s.def.Name() {
		if _, ok := s.builder.Get(name); !ok {
			name = ""
		}
	}
	if sess, ok := s.sessions[name]; ok {
		return sess, nil
	}

	var fn reward.Function
	if name == "" {
		if s.def == nil {
			return nil, status.Error(codes.InvalidArgument, "function is required: server has no default")
		}
		fn = s.def
	} else {
		var ok bool
		fn, ok = s.builder.Get(name)
		if !ok {
			return nil, status.Errorf(codes.NotFound, "reward function %q not registered", name)
		}
	}

	var sess *eval.Session
	if s.metrics != nil {
		sess = eval.NewSession(fn, s.logger, s.metrics)
	} else {
		sess = eval.NewSession(fn, s.logger)
	}
	s.sessions[name] = sess
	return sess, nil
}

// #endregion sessions
