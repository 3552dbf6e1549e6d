package transports

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rzbill/rendezq/internal/protocol"
)

// echoServer answers every request with its payload; SLOW never answers.
func echoServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				dec := protocol.NewDecoder(c)
				enc := protocol.NewEncoder(c)
				for {
					req, err := dec.ReadRequest()
					if err != nil {
						return
					}
					if req.Method == "SLOW" {
						continue
					}
					if err := enc.Encode(protocol.Response{Status: protocol.StatusOK, Payload: req.Payload}); err != nil {
						return
					}
				}
			}(c)
		}
	}()
	return ln.Addr().String()
}

func TestTCPTransportReusesConnection(t *testing.T) {
	addr := echoServer(t)
	tr := NewTCPTransport(addr)
	defer tr.Close()

	for i := 0; i < 3; i++ {
		resp, err := tr.Do(context.Background(), protocol.Request{Method: "PUT", Path: "q", Payload: json.RawMessage(`[1]`)})
		require.NoError(t, err)
		require.Equal(t, protocol.StatusOK, resp.Status)
		require.JSONEq(t, `[1]`, string(resp.Payload))
	}
	first := tr.conn
	_, err := tr.Do(context.Background(), protocol.Request{Method: "PUT", Path: "q"})
	require.NoError(t, err)
	require.Same(t, first, tr.conn)
}

func TestTCPTransportContextAbortsAndRedials(t *testing.T) {
	addr := echoServer(t)
	tr := NewTCPTransport(addr)
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := tr.Do(ctx, protocol.Request{Method: "SLOW"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Nil(t, tr.conn)

	resp, err := tr.Do(context.Background(), protocol.Request{Method: "PUT", Path: "q"})
	require.NoError(t, err)
	require.Equal(t, protocol.StatusOK, resp.Status)
}

func TestTCPTransportDialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewTCPTransport(addr).Do(context.Background(), protocol.Request{Method: "PUT"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "dial")
}
