package grpcserver

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	logpkg "github.com/rzbill/rendezq/pkg/log"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "rendezq.Queue"

// Checker reports whether the process can serve queue traffic.
type Checker interface {
	CheckHealth(ctx context.Context) error
}

// Options configures the health server.
type Options struct {
	Checker Checker
	// ProbeInterval is how often Checker is consulted. Zero disables probing.
	ProbeInterval time.Duration
	Logger        logpkg.Logger
}

// Server owns the gRPC server hosting grpc.health.v1.Health.
type Server struct {
	grpc    *grpc.Server
	health  *health.Server
	checker Checker
	every   time.Duration
	logger  logpkg.Logger

	mu       sync.Mutex
	lis      net.Listener
	stopping bool
}

// New constructs the server with both statuses set to SERVING.
func New(opts Options, grpcOpts ...grpc.ServerOption) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	s := &Server{
		grpc:    grpc.NewServer(grpcOpts...),
		health:  health.NewServer(),
		checker: opts.Checker,
		every:   opts.ProbeInterval,
		logger:  logger.WithComponent("health"),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	return s
}

// SetServing flips the reported status. Once stopping, it stays NOT_SERVING.
func (s *Server) SetServing(serving bool) {
	s.mu.Lock()
	stopping := s.stopping
	s.mu.Unlock()
	if serving && !stopping {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
}

// MarkStopping reports NOT_SERVING from now on.
func (s *Server) MarkStopping() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Probe consults the checker once and updates the status.
func (s *Server) Probe(ctx context.Context) {
	if s.checker == nil {
		return
	}
	err := s.checker.CheckHealth(ctx)
	if err != nil {
		s.logger.Warn("health check failed", logpkg.Err(err))
	}
	s.SetServing(err == nil)
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	s.lis = l
	s.mu.Unlock()
	s.logger.Info("health endpoint listening", logpkg.Str("addr", l.Addr().String()))

	if s.every > 0 {
		go s.probeLoop(ctx)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	select {
	case <-ctx.Done():
		s.Close()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) probeLoop(ctx context.Context) {
	t := time.NewTicker(s.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Probe(ctx)
		}
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
