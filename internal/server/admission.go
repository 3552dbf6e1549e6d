package server

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrAdmissionTimeout is returned when no slot frees within the wait.
var ErrAdmissionTimeout = errors.New("server: no session slot available")

// Admission caps the number of concurrently served connections.
type Admission struct {
	sem  *semaphore.Weighted
	size int
}

// NewAdmission returns a gate with n slots. n < 1 is treated as 1.
func NewAdmission(n int) *Admission {
	if n < 1 {
		n = 1
	}
	return &Admission{sem: semaphore.NewWeighted(int64(n)), size: n}
}

// Capacity returns the number of slots.
func (a *Admission) Capacity() int { return a.size }

// Acquire takes a slot, waiting at most wait. It returns ErrAdmissionTimeout
// when the wait elapses and ctx's error when ctx ends first.
func (a *Admission) Acquire(ctx context.Context, wait time.Duration) error {
	if a.sem.TryAcquire(1) {
		return nil
	}
	if wait <= 0 {
		return ErrAdmissionTimeout
	}
	wctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := a.sem.Acquire(wctx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrAdmissionTimeout
	}
	return nil
}

// Release returns a slot taken by Acquire.
func (a *Admission) Release() { a.sem.Release(1) }
