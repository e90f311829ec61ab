package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/tipkeeper/internal/common"
	"github.com/dmitrijs2005/tipkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const reflectionPrefix = "/grpc.reflection."

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}

// adminStreamInterceptor requires an admin token for server reflection.
func (s *GRPCServer) adminStreamInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if strings.HasPrefix(info.FullMethod, reflectionPrefix) {

		var token string
		if md, ok := metadata.FromIncomingContext(ss.Context()); ok {
			values := md.Get(common.IDTokenHeaderName)
			if len(values) > 0 {
				token = values[0]
			}
		}
		if len(token) == 0 {
			return status.Error(codes.Unauthenticated, "missing token")
		}

		claims, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			return status.Error(codes.Unauthenticated, "invalid token")
		}
		if !claims.Admin {
			return status.Error(codes.PermissionDenied, "admin token required")
		}
	}

	return handler(srv, ss)
}
