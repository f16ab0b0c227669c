package grpc

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"typed-kv-service/internal/auth"
	"typed-kv-service/internal/core/ports"
	"typed-kv-service/internal/core/service"
	"typed-kv-service/internal/engine"
	"typed-kv-service/internal/store"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName   = "kvstore.v1.Commands"
	executeMethod = "/" + ServiceName + "/Execute"
)

// CommandsServer is the server API of the Commands service. A request is the
// command line as a list of strings; the reply is the command result.
type CommandsServer interface {
	Execute(context.Context, *structpb.ListValue) (*structpb.Value, error)
}

// ServiceDesc describes kvstore.v1.Commands. The messages are well-known
// protobuf types, so no generated code is needed.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CommandsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kvstore/v1/commands.proto",
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.ListValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CommandsServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CommandsServer).Execute(ctx, req.(*structpb.ListValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Adapter implements CommandsServer on top of the command service.
type Adapter struct {
	service ports.CommandService
}

var _ CommandsServer = (*Adapter)(nil)

// New creates a new gRPC adapter.
func New(service ports.CommandService) *Adapter {
	return &Adapter{service: service}
}

// NewServer builds a gRPC server with the adapter registered behind the
// logging and auth interceptors.
func NewServer(a *Adapter, authn *auth.Authenticator, logger hclog.Logger) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoveryInterceptor(logger),
		LoggingInterceptor(logger),
		AuthInterceptor(authn),
	))
	s.RegisterService(&ServiceDesc, a)
	return s
}

// Execute runs one command line.
func (a *Adapter) Execute(ctx context.Context, req *structpb.ListValue) (*structpb.Value, error) {
	args := make([]string, len(req.GetValues()))
	for i, v := range req.GetValues() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "argument %d is not a string", i)
		}
		args[i] = s.StringValue
	}

	reply, err := a.service.Execute(ctx, args)
	if err != nil {
		return nil, toStatus(err)
	}
	return toValue(reply), nil
}

// toValue renders a reply as a protobuf value. Status and bulk replies both
// become strings and integers become numbers.
func toValue(r ports.Reply) *structpb.Value {
	switch r.Kind {
	case ports.StatusReply, ports.BulkReply:
		return structpb.NewStringValue(r.Str)
	case ports.IntegerReply:
		return structpb.NewNumberValue(float64(r.Int))
	case ports.ArrayReply:
		vals := make([]*structpb.Value, len(r.Elems))
		for i, e := range r.Elems {
			vals[i] = toValue(e)
		}
		return structpb.NewListValue(&structpb.ListValue{Values: vals})
	default:
		return structpb.NewNullValue()
	}
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}

	code := codes.InvalidArgument
	switch {
	case errors.Is(err, store.ErrWrongType):
		code = codes.FailedPrecondition
	case errors.Is(err, engine.ErrNoSuchKey):
		code = codes.NotFound
	case errors.Is(err, engine.ErrIndexOutOfRange):
		code = codes.OutOfRange
	case errors.Is(err, auth.ErrNoAuth), errors.Is(err, auth.ErrWrongPass):
		code = codes.Unauthenticated
	}
	return status.Error(code, service.ErrorString(err))
}

// LoggingInterceptor logs every call with its duration and status code.
func LoggingInterceptor(logger hclog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
		return resp, err
	}
}

// RecoveryInterceptor turns a panicking handler into codes.Internal.
func RecoveryInterceptor(logger hclog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("call panicked", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "ERR internal error")
			}
		}()
		return handler(ctx, req)
	}
}
