package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"momo-proxy-backend/internal/logger"
)

// LoggingUnary logs every unary RPC with its status code and latency.
func LoggingUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if err != nil {
			logger.Warn("gRPC call failed", "method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds(), "error", err)
		} else {
			logger.Debug("gRPC call", "method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds())
		}
		return resp, err
	}
}
