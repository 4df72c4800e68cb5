// Package grpc serves the internal session API to trusted callers.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/authcore/internal/logging"
	"github.com/dmitrijs2005/authcore/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the part of services.UserService exposed over gRPC.
type Service interface {
	Revoke(ctx context.Context, userID string) error
	VerifyAccess(ctx context.Context, token string) (*auth.AccessClaims, error)
}

type GRPCServer struct {
	address       string
	svc           Service
	logger        logging.Logger
	internalToken string
	health        *health.Server
}

var _ SessionServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, svc Service, internalToken string) *GRPCServer {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		svc:           svc,
		internalToken: internalToken,
		health:        health.NewServer(),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.internalTokenInterceptor))
	RegisterSessionServiceServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
