package transports

import (
	"context"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GrpcTransport implements HealthTransport over gRPC.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(cli healthpb.HealthClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(healthpb.NewHealthClient(conn))
}

// Check asks the server for the status of service; "" means the whole server.
func (t *GrpcTransport) Check(ctx context.Context, service string) (*healthpb.HealthCheckResponse, error) {
	var resp *healthpb.HealthCheckResponse
	err := t.withClient(ctx, func(cli healthpb.HealthClient) error {
		r, err := cli.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		resp = r
		return err
	})
	return resp, err
}
