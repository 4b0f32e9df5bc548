package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"momo-proxy-backend/internal/api/grpc/interceptor"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/security"
)

// ServiceName is the health entry that tracks the database.
const ServiceName = "momo.proxy.v1"

type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the gRPC side of the service: health checking and reflection.
type Server struct {
	*grpc.Server
	health *health.Server
	db     Pinger
}

func NewServer(tokenManager security.TokenManager, db Pinger) *Server {
	auth := interceptor.NewAuthInterceptor(tokenManager)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptor.LoggingUnary(),
		auth.Unary(),
	))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{Server: srv, health: hs, db: db}
}

// WatchDatabase pings the database every interval and reflects the result in
// the health status until ctx ends.
func (s *Server) WatchDatabase(ctx context.Context, interval time.Duration) {
	s.checkDatabase(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-ticker.C:
			s.checkDatabase(ctx)
		}
	}
}

func (s *Server) checkDatabase(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.db.Ping(pingCtx); err != nil {
		logger.Warn("Database ping failed", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
