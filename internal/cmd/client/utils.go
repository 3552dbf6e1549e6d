package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	transports "github.com/rzbill/rendezq/internal/cmd/client/transports"
	"github.com/rzbill/rendezq/internal/protocol"
)

// addrFromEnv returns the queue server address from RENDEZQ_ADDR or a default.
func addrFromEnv() string {
	if addr := os.Getenv("RENDEZQ_ADDR"); addr != "" {
		return addr
	}
	return "127.0.0.1:8081"
}

// healthAddrFromEnv returns the health endpoint from RENDEZQ_HEALTH or a default.
func healthAddrFromEnv() string {
	if addr := os.Getenv("RENDEZQ_HEALTH"); addr != "" {
		return addr
	}
	return "127.0.0.1:8082"
}

// dialGRPCContext dials the health endpoint with insecure transport for local/dev.
func dialGRPCContext(ctx context.Context) (*grpc.ClientConn, error) {
	return grpc.DialContext(ctx, healthAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

var newQueueTransport = func() transports.QueueTransport {
	return transports.NewTCPTransport(addrFromEnv())
}

var newHealthTransport = func() transports.HealthTransport {
	return transports.NewGrpcTransport(dialGRPCContext)
}

// StatusError reports a reply outside the success range.
type StatusError struct {
	Status protocol.Status
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("server replied %s: %s", e.Status, e.Reason)
	}
	return "server replied " + e.Status.String()
}

// payloadFromFlag passes JSON through untouched and wraps anything else as
// a JSON string.
func payloadFromFlag(data string) json.RawMessage {
	if data == "" {
		return nil
	}
	if json.Valid([]byte(data)) {
		return json.RawMessage(data)
	}
	b, _ := json.Marshal(data)
	return b
}

// printResponse writes the status line and an indented payload. Statuses
// of 400 and above are returned as a *StatusError after printing.
func printResponse(w io.Writer, resp protocol.Response) error {
	fmt.Fprintf(w, "status: %s (%d)\n", resp.Status, int(resp.Status))
	if len(resp.Payload) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, resp.Payload, "", "  "); err != nil {
			buf.Reset()
			buf.Write(resp.Payload)
		}
		fmt.Fprintln(w, buf.String())
	}
	if resp.Status >= protocol.StatusBadRequest {
		return &StatusError{Status: resp.Status, Reason: resp.Headers["error"]}
	}
	return nil
}

// send performs one exchange on a fresh transport and prints the reply.
func send(ctx context.Context, w io.Writer, req protocol.Request) error {
	t := newQueueTransport()
	defer func() { _ = t.Close() }()
	resp, err := t.Do(ctx, req)
	if err != nil {
		return err
	}
	return printResponse(w, resp)
}
