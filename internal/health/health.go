// Package health serves the standard gRPC health checking protocol.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// Service names reported by the server. The empty name is overall health.
const (
	ServiceOverall = ""
	ServiceAI      = "c2h.ai"
	ServiceStorage = "c2h.storage"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes liveness of the AI backend and the blob store.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	storage  Pinger
	aiErr    error
	interval time.Duration
	logger   *slog.Logger
	done     chan struct{}
}

// NewServer creates a health server. aiErr is the completion client's
// configuration error, if any.
func NewServer(storage Pinger, aiErr error, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer(grpc.KeepaliveParams(keepalive.ServerParameters{
		Time:    2 * time.Minute,
		Timeout: 10 * time.Second,
	}))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	s := &Server{
		grpc:     gs,
		health:   hs,
		storage:  storage,
		aiErr:    aiErr,
		interval: 15 * time.Second,
		logger:   logger,
		done:     make(chan struct{}),
	}
	s.refresh()
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	go s.watch()
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop marks every service as not serving and stops the server.
func (s *Server) Stop() {
	select {
	case <-s.done:
		return
	default:
		close(s.done)
	}
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) watch() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.refresh()
		}
	}
}

func (s *Server) refresh() {
	ai := healthpb.HealthCheckResponse_SERVING
	if s.aiErr != nil {
		ai = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceAI, ai)

	storage := healthpb.HealthCheckResponse_SERVING
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if s.storage != nil {
		if err := s.storage.Ping(ctx); err != nil {
			s.logger.Warn("storage health check failed", "error", err)
			storage = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus(ServiceStorage, storage)

	// A disabled AI backend does not take the process down; storage does.
	s.health.SetServingStatus(ServiceOverall, storage)
}
