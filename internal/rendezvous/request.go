package rendezvous

import (
	"container/list"
	"sync/atomic"
	"time"

	"github.com/rzbill/rendezq/pkg/id"
)

type requestKind uint8

const (
	takeRequest requestKind = iota
	transferRequest
)

func (k requestKind) String() string {
	if k == transferRequest {
		return "transfer"
	}
	return "take"
}

// request is one blocked caller.
type request[T any] struct {
	id     id.ID
	kind   requestKind
	future *Future[T]

	// acquired is flipped exactly once by the path that resolves the request.
	acquired atomic.Bool

	timer      *time.Timer
	stopCancel func() bool

	// node is the request's element in its pending list; msg is the
	// buffered message a transfer contributed.
	node *list.Element
	msg  *list.Element
}

func (r *request[T]) acquire() bool { return r.acquired.CompareAndSwap(false, true) }

// dispose stops the timer and the cancellation registration. Either may
// already have fired; their callbacks then observe acquired and return.
func (r *request[T]) dispose() {
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.stopCancel != nil {
		r.stopCancel()
	}
}

// match is a transfer/take pair claimed by the sweep, completed once the
// queue mutex is released.
type match[T any] struct {
	transfer *request[T]
	take     *request[T]
	msg      T
}
