package grpc

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/dmitrijs2005/authcore/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// internalTokenInterceptor guards the session service methods with the
// shared internal token. Health checks pass through.
func (s *GRPCServer) internalTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if s.internalToken != "" && strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") {

		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.InternalTokenMetadataKey)
			if len(values) > 0 {
				token = values[0]
			}
		}
		if len(token) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing internal token")
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(s.internalToken)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid internal token")
		}

	}

	return handler(ctx, req)
}
