package rendezvous

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rzbill/rendezq/pkg/id"
	logpkg "github.com/rzbill/rendezq/pkg/log"
)

// Observer is told about every resolved operation.
type Observer interface {
	Observe(queue string, outcome Outcome)
}

type options struct {
	logger   logpkg.Logger
	ids      *id.Generator
	observer Observer
}

// Option configures a Queue.
type Option func(*options)

// WithLogger sets the logger used for request lifecycle records (debug level).
func WithLogger(l logpkg.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIDs shares an ID generator across queues.
func WithIDs(g *id.Generator) Option {
	return func(o *options) { o.ids = g }
}

// WithObserver installs an outcome observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// Queue is a named rendezvous queue. The zero value is not usable; call New.
type Queue[T any] struct {
	name     string
	logger   logpkg.Logger
	ids      *id.Generator
	observer Observer

	// mu guards buffer, transfers and takes. It is never held while a
	// Future is completed.
	mu        sync.Mutex
	buffer    *list.List // of T
	transfers *list.List // of *request[T]
	takes     *list.List // of *request[T]
}

// New creates an empty queue.
func New[T any](name string, opts ...Option) *Queue[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logpkg.NewNopLogger()
	}
	if o.ids == nil {
		o.ids = id.NewGenerator()
	}
	return &Queue[T]{
		name:      name,
		logger:    o.logger.With(logpkg.Str("queue", name)),
		ids:       o.ids,
		observer:  o.observer,
		buffer:    list.New(),
		transfers: list.New(),
		takes:     list.New(),
	}
}

// Name returns the queue's registry key.
func (q *Queue[T]) Name() string { return q.name }

// Stats is a point-in-time view of a queue.
type Stats struct {
	Buffered         int
	PendingTransfers int
	PendingTakes     int
}

// Stats returns the current list lengths.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Buffered:         q.buffer.Len(),
		PendingTransfers: q.transfers.Len(),
		PendingTakes:     q.takes.Len(),
	}
}

// Put delivers msg to the oldest waiting take or appends it to the buffer.
// It never blocks and always resolves Matched.
func (q *Queue[T]) Put(msg T) *Future[T] {
	q.mu.Lock()
	if tk := q.claimFront(q.takes); tk != nil {
		q.mu.Unlock()
		q.finish(tk, Result[T]{Outcome: Matched, Message: msg})
		return q.resolved(Result[T]{Outcome: Matched})
	}
	q.buffer.PushBack(msg)
	q.mu.Unlock()
	return q.resolved(Result[T]{Outcome: Matched})
}

// Transfer offers msg and resolves once a take has claimed it. A timeout
// <= 0 turns the call into a probe that succeeds only if a take is already
// waiting. cancel may be nil.
func (q *Queue[T]) Transfer(msg T, timeout time.Duration, cancel context.Context) *Future[T] {
	q.mu.Lock()
	if tk := q.claimFront(q.takes); tk != nil {
		q.mu.Unlock()
		q.finish(tk, Result[T]{Outcome: Matched, Message: msg})
		return q.resolved(Result[T]{Outcome: Matched})
	}

	node := q.buffer.PushBack(msg)
	if timeout <= 0 {
		q.buffer.Remove(node)
		q.mu.Unlock()
		return q.resolved(Result[T]{Outcome: TimedOut})
	}

	r := q.newRequest(transferRequest)
	r.msg = node
	r.node = q.transfers.PushBack(r)
	q.arm(r, timeout, cancel)
	q.mu.Unlock()

	q.logger.Debug("transfer pending", logpkg.Str("req", r.id.Short()), logpkg.Dur("timeout", timeout))
	return r.future
}

// Take resolves with a message: the oldest waiting transfer's first, then
// the oldest put message. A timeout <= 0 only probes. cancel may be nil.
func (q *Queue[T]) Take(timeout time.Duration, cancel context.Context) *Future[T] {
	q.mu.Lock()
	if q.buffer.Len() > 0 && q.transfers.Len() > 0 {
		if tr := q.claimFront(q.transfers); tr != nil {
			msg := q.buffer.Remove(tr.msg).(T)
			q.mu.Unlock()
			q.finish(tr, Result[T]{Outcome: Matched})
			return q.resolved(Result[T]{Outcome: Matched, Message: msg})
		}
	}
	if q.transfers.Len() == 0 {
		if front := q.buffer.Front(); front != nil {
			msg := q.buffer.Remove(front).(T)
			q.mu.Unlock()
			return q.resolved(Result[T]{Outcome: Matched, Message: msg})
		}
	}

	if timeout <= 0 {
		q.mu.Unlock()
		return q.resolved(Result[T]{Outcome: TimedOut})
	}

	r := q.newRequest(takeRequest)
	r.node = q.takes.PushBack(r)
	q.arm(r, timeout, cancel)
	q.mu.Unlock()

	q.logger.Debug("take pending", logpkg.Str("req", r.id.Short()), logpkg.Dur("timeout", timeout))
	return r.future
}

func (q *Queue[T]) newRequest(kind requestKind) *request[T] {
	return &request[T]{id: q.ids.Next(), kind: kind, future: newFuture[T]()}
}

// arm registers the timeout and cancellation callbacks. Called with mu held,
// so a callback that fires immediately blocks on mu until r is linked.
func (q *Queue[T]) arm(r *request[T], timeout time.Duration, cancel context.Context) {
	r.timer = time.AfterFunc(timeout, func() { q.resolve(r, Expired) })
	if cancel != nil && cancel.Done() != nil {
		r.stopCancel = context.AfterFunc(cancel, func() { q.resolve(r, Cancelled) })
	}
}

// claimFront acquires and unlinks the oldest request of l. It returns nil
// when l is empty or its head is owned by another resolver.
func (q *Queue[T]) claimFront(l *list.List) *request[T] {
	front := l.Front()
	if front == nil {
		return nil
	}
	r := front.Value.(*request[T])
	if !r.acquire() {
		return nil
	}
	l.Remove(front)
	r.dispose()
	return r
}

// resolve is the timer and cancellation callback for a pending request.
func (q *Queue[T]) resolve(r *request[T], outcome Outcome) {
	if r.acquired.Load() {
		return
	}

	q.mu.Lock()
	if !r.acquire() {
		q.mu.Unlock()
		return
	}
	r.dispose()
	if r.kind == transferRequest {
		q.buffer.Remove(r.msg)
		q.transfers.Remove(r.node)
	} else {
		q.takes.Remove(r.node)
	}
	matches := q.sweepLocked()
	q.mu.Unlock()

	q.logger.Debug(r.kind.String()+" "+outcome.String(), logpkg.Str("req", r.id.Short()))
	q.finish(r, Result[T]{Outcome: outcome})
	q.completeMatches(matches)
}

// sweepLocked pairs the oldest pending transfer with the oldest pending take
// for as long as both lists are non-empty.
func (q *Queue[T]) sweepLocked() []match[T] {
	var matches []match[T]
	for q.transfers.Len() > 0 && q.takes.Len() > 0 {
		tr := q.transfers.Front().Value.(*request[T])
		tk := q.takes.Front().Value.(*request[T])
		// Acquisition only happens under mu, so both flags are settled here.
		if tr.acquired.Load() || tk.acquired.Load() {
			break
		}
		tr.acquire()
		tk.acquire()
		q.transfers.Remove(tr.node)
		q.takes.Remove(tk.node)
		msg := q.buffer.Remove(tr.msg).(T)
		tr.dispose()
		tk.dispose()
		matches = append(matches, match[T]{transfer: tr, take: tk, msg: msg})
	}
	return matches
}

func (q *Queue[T]) completeMatches(matches []match[T]) {
	for _, m := range matches {
		q.finish(m.transfer, Result[T]{Outcome: Matched})
		q.finish(m.take, Result[T]{Outcome: Matched, Message: m.msg})
	}
}

func (q *Queue[T]) finish(r *request[T], res Result[T]) {
	if r.future.complete(res) {
		q.observe(res.Outcome)
	}
}

func (q *Queue[T]) resolved(res Result[T]) *Future[T] {
	f := newFuture[T]()
	f.complete(res)
	q.observe(res.Outcome)
	return f
}

func (q *Queue[T]) observe(o Outcome) {
	if q.observer != nil {
		q.observer.Observe(q.name, o)
	}
}
