// Package health reports upstream reachability over the standard gRPC
// health protocol.
package health

import (
	"context"
	"errors"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	apperrors "github.com/GriffinCanCode/nbtrackr/internal/errors"
	"github.com/GriffinCanCode/nbtrackr/internal/resilience"
	"github.com/GriffinCanCode/nbtrackr/internal/trace"
)

// UpstreamService is the health service name tracking the localization
// tool. The empty service name reports the overlay process itself.
const UpstreamService = "nbtrackr.Upstream"

// Server serves grpc.health.v1.Health.
type Server struct {
	grpc   *grpc.Server
	health *grpchealth.Server
}

// New creates a server whose upstream status follows breaker: NOT_SERVING
// while it is open, SERVING otherwise.
func New(breaker *resilience.Breaker) *Server {
	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(UpstreamService, statusFor(breaker.State()))

	breaker.OnStateChange(func(_, to resilience.State) {
		hs.SetServingStatus(UpstreamService, statusFor(to))
	})

	gs := grpc.NewServer(grpc.UnaryInterceptor(trace.UnaryServerInterceptor()))
	healthpb.RegisterHealthServer(gs, hs)
	return &Server{grpc: gs, health: hs}
}

func statusFor(s resilience.State) healthpb.HealthCheckResponse_ServingStatus {
	if s == resilience.Open {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "serve health")
	}
	return nil
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "listen "+addr)
	}
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	trace.Logger(ctx).Info("health service listening", "addr", lis.Addr().String())
	return s.Serve(lis)
}

// Stop marks every service NOT_SERVING and stops the server.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
