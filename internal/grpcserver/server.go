// Package grpcserver runs the gRPC side of the tracker: the standard health
// service, used by orchestrators to gate traffic until the store and the
// change notifier are reachable.
package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service entry reported next to the overall ("") status.
const ServiceName = "tracker.v1.Tracker"

// Server wraps a grpc.Server with a health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewServer constructs a Server whose services all report NOT_SERVING until
// SetServing(true).
func NewServer(logger *zap.Logger) *Server {
	s := &Server{health: health.NewServer(), logger: logger}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logUnary))
	healthpb.RegisterHealthServer(s.grpc, s.health)

	s.SetServing(false)
	return s
}

// SetServing flips every registered service between SERVING and NOT_SERVING.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve blocks until lis fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop reports NOT_SERVING, then drains in-flight calls until ctx ends.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}

// ─── Interceptors ────────────────────────────────────────────────────────────

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	fields := []zap.Field{
		zap.String("method", info.FullMethod),
		zap.Duration("latency", time.Since(start)),
		zap.String("code", status.Code(err).String()),
	}
	if err != nil {
		s.logger.Warn("grpc call failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Debug("grpc call", fields...)
	}
	return resp, err
}
