package transports

import (
	"context"

	"github.com/rzbill/rendezq/internal/protocol"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// QueueTransport carries protocol requests to a queue server.
type QueueTransport interface {
	// Do sends req and waits for its response. Requests on one transport
	// are serialized, matching the one-in-flight rule of a session.
	Do(ctx context.Context, req protocol.Request) (protocol.Response, error)
	Close() error
}

// HealthTransport queries the grpc.health.v1 endpoint.
type HealthTransport interface {
	Check(ctx context.Context, service string) (*healthpb.HealthCheckResponse, error)
}
