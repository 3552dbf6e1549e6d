// Package grpcserver hosts the standard gRPC health service
// (grpc.health.v1.Health) next to the queue listener. It reports SERVING
// while the queue server accepts connections and NOT_SERVING once shutdown
// begins or the runtime's health check fails.
//
// Example:
//
//	hs := grpcserver.New(grpcserver.Options{Checker: rt, ProbeInterval: 5 * time.Second})
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = hs.ListenAndServe(ctx, "127.0.0.1:8082")
package grpcserver
