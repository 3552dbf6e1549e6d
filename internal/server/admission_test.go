package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdmissionCapacity(t *testing.T) {
	a := NewAdmission(2)
	ctx := context.Background()

	require.NoError(t, a.Acquire(ctx, time.Millisecond))
	require.NoError(t, a.Acquire(ctx, time.Millisecond))

	start := time.Now()
	require.ErrorIs(t, a.Acquire(ctx, 30*time.Millisecond), ErrAdmissionTimeout)
	require.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	go func() {
		time.Sleep(10 * time.Millisecond)
		a.Release()
	}()
	require.NoError(t, a.Acquire(ctx, time.Second))
}

func TestAdmissionContextEnds(t *testing.T) {
	a := NewAdmission(0)
	require.Equal(t, 1, a.Capacity())
	require.NoError(t, a.Acquire(context.Background(), 0))
	require.ErrorIs(t, a.Acquire(context.Background(), 0), ErrAdmissionTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, a.Acquire(ctx, time.Second), context.Canceled)
}

func TestTerminator(t *testing.T) {
	term := NewTerminator()
	leave1, ok := term.Enter()
	require.True(t, ok)
	leave2, ok := term.Enter()
	require.True(t, ok)
	require.Equal(t, 2, term.Active())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, term.Shutdown(ctx), context.DeadlineExceeded)
	require.True(t, term.Closing())
	require.False(t, term.Begin())

	_, ok = term.Enter()
	require.False(t, ok)

	leave1()
	leave1()
	require.Equal(t, 1, term.Active())
	go leave2()
	require.NoError(t, term.Shutdown(context.Background()))
	require.Zero(t, term.Active())
}

func TestTerminatorIdleShutdown(t *testing.T) {
	term := NewTerminator()
	require.NoError(t, term.Shutdown(context.Background()))
}
