package server

import (
	"context"
	"sync"
)

// Terminator tracks running sessions so shutdown can wait for them.
type Terminator struct {
	mu      sync.Mutex
	closing bool
	active  int
	drained chan struct{}
}

// NewTerminator returns a Terminator accepting sessions.
func NewTerminator() *Terminator {
	return &Terminator{drained: make(chan struct{})}
}

// Enter registers a session. It returns ok=false once shutdown has begun.
// leave must be called exactly once; extra calls are ignored.
func (t *Terminator) Enter() (leave func(), ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closing {
		return nil, false
	}
	t.active++
	var once sync.Once
	return func() { once.Do(t.leave) }, true
}

func (t *Terminator) leave() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active--
	if t.closing && t.active == 0 {
		close(t.drained)
	}
}

// Begin marks shutdown. It reports false if shutdown had already begun.
func (t *Terminator) Begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closing {
		return false
	}
	t.closing = true
	if t.active == 0 {
		close(t.drained)
	}
	return true
}

// Closing reports whether shutdown has begun.
func (t *Terminator) Closing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closing
}

// Active returns the number of registered sessions.
func (t *Terminator) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Shutdown begins shutdown if needed and waits until every session has
// left or ctx ends.
func (t *Terminator) Shutdown(ctx context.Context) error {
	t.Begin()
	select {
	case <-t.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
