// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/rzbill/rendezq/internal/protocol"
)

// TCPTransport implements QueueTransport over a single persistent TCP
// connection, dialed on first use and redialed after a failure.
type TCPTransport struct {
	addr   string
	dialer net.Dialer

	mu   sync.Mutex
	conn net.Conn
	enc  *protocol.Encoder
	dec  *protocol.Decoder
}

// NewTCPTransport constructs a transport for addr.
func NewTCPTransport(addr string) *TCPTransport {
	return &TCPTransport{addr: addr, dialer: net.Dialer{Timeout: 5 * time.Second}}
}

// Do sends req and reads one response. Cancelling ctx aborts the exchange
// and drops the connection.
func (t *TCPTransport) Do(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
		if err != nil {
			return protocol.Response{}, errors.Wrapf(err, "dial %s", t.addr)
		}
		t.conn = conn
		t.enc = protocol.NewEncoder(conn)
		t.dec = protocol.NewDecoder(conn)
	}

	conn := t.conn
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	} else {
		_ = conn.SetDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	var resp protocol.Response
	if err := t.enc.Encode(req); err != nil {
		t.reset()
		return resp, t.wrap(ctx, err, "send")
	}
	if err := t.dec.Decode(&resp); err != nil {
		t.reset()
		return resp, t.wrap(ctx, err, "receive")
	}
	return resp, nil
}

// Close drops the connection, if any.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reset()
}

func (t *TCPTransport) reset() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn, t.enc, t.dec = nil, nil, nil
	return err
}

func (t *TCPTransport) wrap(ctx context.Context, err error, op string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return errors.Wrapf(err, "%s %s", op, t.addr)
}
