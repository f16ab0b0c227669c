package grpc

import (
	"context"
	"strings"

	"typed-kv-service/internal/auth"
	"typed-kv-service/internal/core/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthorizationKey is the metadata key carrying the shared credential,
// optionally prefixed with "Bearer ".
const AuthorizationKey = "authorization"

// AuthInterceptor rejects calls without a valid credential when the server
// has a password configured.
func AuthInterceptor(authn *auth.Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !authn.Required() {
			return handler(ctx, req)
		}
		md, _ := metadata.FromIncomingContext(ctx)
		vals := md.Get(AuthorizationKey)
		if len(vals) == 0 {
			return nil, status.Error(codes.Unauthenticated, service.ErrorString(auth.ErrNoAuth))
		}
		if err := authn.Check(strings.TrimPrefix(vals[0], "Bearer ")); err != nil {
			return nil, status.Error(codes.Unauthenticated, service.ErrorString(err))
		}
		return handler(ctx, req)
	}
}
