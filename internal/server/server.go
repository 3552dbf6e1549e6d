package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rzbill/rendezq/internal/metrics"
	logpkg "github.com/rzbill/rendezq/pkg/log"
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("server: closed")

// Defaults for Options fields left zero.
const (
	DefaultMaxSessions   = 5
	DefaultAdmissionWait = 4 * time.Second
	DefaultDrainTimeout  = 10 * time.Second
	writeGrace           = time.Second
)

// Options configures a Server.
type Options struct {
	Handler       Handler
	MaxSessions   int
	AdmissionWait time.Duration
	DrainTimeout  time.Duration
	Logger        logpkg.Logger
	Metrics       *metrics.Metrics
	// OnShutdown runs once when shutdown begins, before sessions drain.
	OnShutdown func()
}

// Server accepts connections and runs one Session per admitted connection.
type Server struct {
	handler       Handler
	admission     *Admission
	term          *Terminator
	admissionWait time.Duration
	drainTimeout  time.Duration
	logger        logpkg.Logger
	metrics       *metrics.Metrics
	onShutdown    func()

	// stopCtx ends when shutdown begins; sessCtx ends when pending requests
	// must be abandoned.
	stopCtx    context.Context
	stop       context.CancelFunc
	sessCtx    context.Context
	cancelSess context.CancelFunc

	mu      sync.Mutex
	closing bool
	ln      net.Listener
	conns   map[net.Conn]struct{}
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.AdmissionWait <= 0 {
		opts.AdmissionWait = DefaultAdmissionWait
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = DefaultDrainTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	s := &Server{
		handler:       opts.Handler,
		admission:     NewAdmission(opts.MaxSessions),
		term:          NewTerminator(),
		admissionWait: opts.AdmissionWait,
		drainTimeout:  opts.DrainTimeout,
		logger:        logger.WithComponent("server"),
		metrics:       opts.Metrics,
		onShutdown:    opts.OnShutdown,
		conns:         make(map[net.Conn]struct{}),
	}
	s.stopCtx, s.stop = context.WithCancel(context.Background())
	s.sessCtx, s.cancelSess = context.WithCancel(context.Background())
	return s
}

// Done is closed once shutdown has begun.
func (s *Server) Done() <-chan struct{} { return s.stopCtx.Done() }

// Shutdown begins a graceful shutdown: the listener closes, idle sessions
// end and busy sessions end after their current response. It reports false
// if shutdown had already begun. Serve returns once sessions have drained.
func (s *Server) Shutdown() bool {
	if !s.term.Begin() {
		return false
	}
	s.logger.Info("shutdown requested", logpkg.Int("sessions", s.term.Active()))

	s.mu.Lock()
	s.closing = true
	ln := s.ln
	for c := range s.conns {
		// Unblock sessions waiting for their next request.
		_ = c.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	s.stop()
	if ln != nil {
		_ = ln.Close()
	}
	if s.onShutdown != nil {
		s.onShutdown()
	}
	return true
}

// ListenAndServe binds a TCP listener on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends or Shutdown is called,
// then waits for sessions to drain. Pending requests still waiting after
// the drain timeout resolve as cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	s.mu.Unlock()

	stopWatch := context.AfterFunc(ctx, func() { s.Shutdown() })
	defer stopWatch()

	s.logger.Info("listening",
		logpkg.Str("addr", ln.Addr().String()),
		logpkg.Int("max_sessions", s.admission.Capacity()))

	err := s.acceptLoop(ln)
	s.drain()
	return err
}

func (s *Server) acceptLoop(ln net.Listener) error {
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosing() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("accept error; retrying", logpkg.Err(err), logpkg.Dur("delay", backoff))
				time.Sleep(backoff)
				continue
			}
			s.Shutdown()
			return fmt.Errorf("accept: %w", err)
		}
		backoff = 0

		if err := s.admission.Acquire(s.stopCtx, s.admissionWait); err != nil {
			s.metrics.ConnRejected()
			s.logger.Warn("connection rejected",
				logpkg.Str("remote", conn.RemoteAddr().String()),
				logpkg.Err(err))
			_ = conn.Close()
			continue
		}
		leave, ok := s.term.Enter()
		if !ok {
			s.admission.Release()
			_ = conn.Close()
			return nil
		}
		s.metrics.ConnAccepted()
		s.track(conn)
		go s.serveConn(conn, leave)
	}
}

func (s *Server) serveConn(conn net.Conn, leave func()) {
	defer leave()
	defer s.admission.Release()
	defer s.untrack(conn)
	defer conn.Close()
	defer s.metrics.SessionStarted()()

	sess := NewSession(conn, s.handler, s.logger)
	sess.closing = s.term.Closing
	sess.logger.Debug("session started", logpkg.Str("remote", conn.RemoteAddr().String()))
	if err := sess.Run(s.sessCtx); err != nil {
		sess.logger.Debug("session ended", logpkg.Err(err))
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
	if s.closing {
		_ = conn.SetReadDeadline(time.Now())
	}
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Server) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()
	if err := s.term.Shutdown(ctx); err != nil {
		s.logger.Warn("drain timeout; cancelling pending requests",
			logpkg.Int("sessions", s.term.Active()))
		s.cancelSess()
		s.mu.Lock()
		for c := range s.conns {
			_ = c.SetWriteDeadline(time.Now().Add(writeGrace))
		}
		s.mu.Unlock()
		_ = s.term.Shutdown(context.Background())
	}
	s.cancelSess()
	s.logger.Info("server stopped")
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		d = time.Second
	}
	return d
}
