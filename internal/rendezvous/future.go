package rendezvous

import (
	"context"
	"sync"
)

// Outcome is how a queue operation finished.
type Outcome int

const (
	// Matched means the operation met its counterpart (or was buffered, for Put).
	Matched Outcome = iota
	// TimedOut means a zero-timeout probe found nothing to pair with.
	TimedOut
	// Expired means the request waited its full timeout without a match.
	Expired
	// Cancelled means the request's cancellation context ended first.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case TimedOut:
		return "timed_out"
	case Expired:
		return "expired"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the value a Future resolves to. Message is set only for a
// matched Take.
type Result[T any] struct {
	Outcome Outcome
	Message T
}

// Future is a single-assignment result slot.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	res  Result[T]
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete assigns the result; only the first call has an effect.
func (f *Future[T]) complete(res Result[T]) bool {
	won := false
	f.once.Do(func() {
		f.res = res
		close(f.done)
		won = true
	})
	return won
}

// Done is closed once the result is assigned.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Result blocks until the result is assigned and returns it.
func (f *Future[T]) Result() Result[T] {
	<-f.done
	return f.res
}

// Wait blocks until the result is assigned or ctx ends. Abandoning a wait
// does not withdraw the request; use the cancellation context passed to
// Take/Transfer for that.
func (f *Future[T]) Wait(ctx context.Context) (Result[T], error) {
	select {
	case <-f.done:
		return f.res, nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}
