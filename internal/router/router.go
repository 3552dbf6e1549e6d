// Package router dispatches decoded requests to the queue registry and maps
// results onto wire statuses.
package router

import (
	"context"
	"errors"
	"time"

	"github.com/rzbill/rendezq/internal/metrics"
	"github.com/rzbill/rendezq/internal/protocol"
	"github.com/rzbill/rendezq/internal/registry"
	"github.com/rzbill/rendezq/internal/rendezvous"
	logpkg "github.com/rzbill/rendezq/pkg/log"
)

// ShutdownFunc starts a graceful shutdown. It reports false when one is
// already in progress.
type ShutdownFunc func() bool

// Options configures a Router.
type Options struct {
	Registry *registry.Registry
	Shutdown ShutdownFunc
	// DefaultTimeout applies to TRANSFER and TAKE requests without a timeout
	// header. Zero makes them probes.
	DefaultTimeout time.Duration
	Logger         logpkg.Logger
	Metrics        *metrics.Metrics
}

// Router is stateless apart from its collaborators and safe for concurrent use.
type Router struct {
	registry       *registry.Registry
	shutdown       ShutdownFunc
	defaultTimeout time.Duration
	logger         logpkg.Logger
	metrics        *metrics.Metrics
}

// New creates a Router.
func New(opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Router{
		registry:       opts.Registry,
		shutdown:       opts.Shutdown,
		defaultTimeout: opts.DefaultTimeout,
		logger:         logger.WithComponent("router"),
		metrics:        opts.Metrics,
	}
}

// Dispatch executes req and returns the response to send. ctx is the
// cancellation signal for blocking operations; when it ends, waiting
// TRANSFER and TAKE requests resolve with NO_SERVICE.
func (r *Router) Dispatch(ctx context.Context, req protocol.Request) protocol.Response {
	m, err := ParseMethod(req.Method)
	if err != nil {
		r.metrics.Request("UNKNOWN")
		r.metrics.Response(int(protocol.StatusNoOp))
		return protocol.ReplyError(protocol.StatusNoOp, err)
	}
	r.metrics.Request(m.String())

	resp := r.dispatch(ctx, m, req)
	r.metrics.Response(int(resp.Status))
	r.logger.Debug("dispatched",
		logpkg.Str("method", m.String()),
		logpkg.Str("path", req.Path),
		logpkg.Int("status", int(resp.Status)))
	return resp
}

func (r *Router) dispatch(ctx context.Context, m Method, req protocol.Request) protocol.Response {
	switch m {
	case MethodCreate:
		return r.create(ctx, req.Path)
	case MethodShutdown:
		if r.shutdown == nil || !r.shutdown() {
			return protocol.Reply(protocol.StatusNoService)
		}
		return protocol.Reply(protocol.StatusOK)
	}

	q, err := r.registry.Lookup(req.Path)
	if err != nil {
		return protocol.ReplyError(protocol.StatusNoQueue, err)
	}

	if m == MethodPut {
		q.Put(req.Payload)
		return protocol.Reply(protocol.StatusOK)
	}

	timeout, err := req.Timeout(r.defaultTimeout)
	if err != nil {
		return protocol.ReplyError(protocol.StatusBadRequest, err)
	}

	if m == MethodTransfer {
		res := q.Transfer(req.Payload, timeout, ctx).Result()
		return protocol.Reply(StatusOf(res.Outcome))
	}
	res := q.Take(timeout, ctx).Result()
	resp := protocol.Reply(StatusOf(res.Outcome))
	if res.Outcome == rendezvous.Matched {
		resp.Payload = res.Message
	}
	return resp
}

func (r *Router) create(ctx context.Context, name string) protocol.Response {
	_, err := r.registry.Create(ctx, name)
	switch {
	case err == nil:
		return protocol.Reply(protocol.StatusOK)
	case errors.Is(err, registry.ErrInvalidName), errors.Is(err, registry.ErrQueueExists):
		return protocol.ReplyError(protocol.StatusBadRequest, err)
	default:
		r.logger.Warn("create failed", logpkg.Str("queue", name), logpkg.Err(err))
		return protocol.ReplyError(protocol.StatusServerErr, err)
	}
}

// StatusOf maps a queue outcome to its wire status.
func StatusOf(o rendezvous.Outcome) protocol.Status {
	switch o {
	case rendezvous.Matched:
		return protocol.StatusOK
	case rendezvous.TimedOut:
		return protocol.StatusTimeout
	case rendezvous.Cancelled:
		return protocol.StatusNoService
	default:
		return protocol.StatusServerErr
	}
}
