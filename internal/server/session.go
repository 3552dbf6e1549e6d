package server

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/rzbill/rendezq/internal/protocol"
	logpkg "github.com/rzbill/rendezq/pkg/log"
)

// Handler executes one request.
type Handler interface {
	Dispatch(ctx context.Context, req protocol.Request) protocol.Response
}

// Session serves the request/response loop of one connection.
type Session struct {
	ID      uuid.UUID
	conn    io.ReadWriter
	handler Handler
	logger  logpkg.Logger
	// closing, when set, is consulted after each response and on read
	// errors; a true result ends the session quietly.
	closing func() bool
}

// NewSession creates a session over conn.
func NewSession(conn io.ReadWriter, handler Handler, logger logpkg.Logger) *Session {
	id := uuid.New()
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Session{
		ID:      id,
		conn:    conn,
		handler: handler,
		logger:  logger.With(logpkg.Str("session", id.String())),
		closing: func() bool { return false },
	}
}

// Run decodes requests until the peer closes the stream, a document fails
// to decode or the server shuts down. A malformed document is answered with
// one BAD_REQUEST before Run returns the decode error.
//
// Requests reach the handler with a context derived from ctx that ends when
// the peer goes away, so a waiting TRANSFER or TAKE of a departed client
// resolves as cancelled instead of matching a counterpart.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	enc := protocol.NewEncoder(s.conn)
	reads := make(chan readResult)
	done := make(chan struct{})
	defer close(done)
	go s.readLoop(protocol.NewDecoder(s.conn), reads, done, cancel)

	for {
		rr := <-reads
		if rr.err != nil {
			return s.readFailed(enc, rr.err)
		}

		resp := s.handler.Dispatch(ctx, rr.req)
		if err := enc.Encode(resp); err != nil {
			s.logger.Warn("write response", logpkg.Err(err))
			return err
		}
		if s.closing() {
			s.logger.Debug("session ends for shutdown")
			return nil
		}
	}
}

type readResult struct {
	req protocol.Request
	err error
}

// readLoop reads ahead of the dispatch loop. A read error other than a
// malformed document means the peer is gone and cancels the request in
// flight, unless the server is closing and in-flight requests must finish.
func (s *Session) readLoop(dec *protocol.Decoder, out chan<- readResult, done <-chan struct{}, cancel context.CancelFunc) {
	for {
		req, err := dec.ReadRequest()
		if err != nil {
			var de *protocol.DecodeError
			if !errors.As(err, &de) && !s.closing() {
				cancel()
			}
		}
		select {
		case out <- readResult{req: req, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) readFailed(enc *protocol.Encoder, err error) error {
	if errors.Is(err, io.EOF) {
		s.logger.Debug("peer closed")
		return nil
	}
	if s.closing() {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		s.logger.Debug("read failed", logpkg.Err(err))
		return nil
	}

	s.logger.Warn("malformed request", logpkg.Err(err))
	if werr := enc.Encode(protocol.ReplyError(protocol.StatusBadRequest, err)); werr != nil {
		s.logger.Debug("write bad request", logpkg.Err(werr))
	}
	return err
}
