package grpcserver

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1 << 20

type flakyChecker struct{ fail atomic.Bool }

func (c *flakyChecker) CheckHealth(context.Context) error {
	if c.fail.Load() {
		return errors.New("store closed")
	}
	return nil
}

func startServer(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("check %q: %v", service, err)
	}
	return res.GetStatus()
}

func TestHealthOverGRPC(t *testing.T) {
	s := New(Options{})
	c := startServer(t, s)

	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("overall status %v", got)
	}
	if got := check(t, c, ServiceName); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("service status %v", got)
	}

	s.MarkStopping()
	if got := check(t, c, ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("after stopping: %v", got)
	}
	s.SetServing(true)
	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("stopping must stick, got %v", got)
	}
}

func TestProbeFollowsChecker(t *testing.T) {
	checker := &flakyChecker{}
	s := New(Options{Checker: checker})
	c := startServer(t, s)

	checker.fail.Store(true)
	s.Probe(context.Background())
	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("failing checker: %v", got)
	}

	checker.fail.Store(false)
	s.Probe(context.Background())
	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("recovered checker: %v", got)
	}
}
