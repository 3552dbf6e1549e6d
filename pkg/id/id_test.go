package id

import (
	"sync/atomic"
	"testing"
	"time"
)

func fixedClock(v *atomic.Int64) func() int64 {
	return func() int64 { return v.Load() }
}

func TestOrderingMonotonic(t *testing.T) {
	var now atomic.Int64
	now.Store(1000)
	g := NewGeneratorWithClock(fixedClock(&now))

	a := g.Next()
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a<b")
	}
	if b.Millis() != 1000 || b.Seq() != 1 {
		t.Fatalf("unexpected parts ms=%d seq=%d", b.Millis(), b.Seq())
	}
}

func TestClockRegressionGuard(t *testing.T) {
	var now atomic.Int64
	now.Store(1000)
	g := NewGeneratorWithClock(fixedClock(&now))

	a := g.Next()
	now.Store(900)
	b := g.Next()
	if a.Compare(b) >= 0 {
		t.Fatalf("expected b>a despite clock regression")
	}
}

func TestSequenceOverflowWaitsNextMs(t *testing.T) {
	var now atomic.Int64
	now.Store(2000)
	g := NewGeneratorWithClock(fixedClock(&now))
	g.lastMs = 2000
	g.sequence = ^uint64(0) - 1

	_ = g.Next() // sequence reaches MaxUint64

	done := make(chan ID)
	go func() { done <- g.Next() }()
	time.AfterFunc(10*time.Millisecond, func() { now.Store(2001) })

	select {
	case got := <-done:
		if got.Millis() != 2001 || got.Seq() != 0 {
			t.Fatalf("expected reset at next ms, got ms=%d seq=%d", got.Millis(), got.Seq())
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for overflow handling")
	}
}

func TestShortIsStable(t *testing.T) {
	var now atomic.Int64
	now.Store(1)
	g := NewGeneratorWithClock(fixedClock(&now))
	a := g.Next()
	if a.Short() != a.Short() || a.Short() == "" {
		t.Fatalf("short form unstable")
	}
	if len(a.String()) != 32 {
		t.Fatalf("hex length %d", len(a.String()))
	}
}
