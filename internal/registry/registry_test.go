package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rzbill/rendezq/internal/catalog"
	"github.com/rzbill/rendezq/internal/rendezvous"
	pebblestore "github.com/rzbill/rendezq/internal/storage/pebble"
)

type memCatalog struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (c *memCatalog) Add(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.names = append(c.names, name)
	return nil
}

func (c *memCatalog) Names() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...), c.err
}

func TestCreateAndLookup(t *testing.T) {
	r := New(Options{})

	q, err := r.Create(context.Background(), "orders")
	require.NoError(t, err)
	require.Equal(t, "orders", q.Name())

	got, err := r.Lookup("orders")
	require.NoError(t, err)
	require.Same(t, q, got)

	_, err = r.Lookup("missing")
	require.ErrorIs(t, err, ErrQueueNotFound)
}

func TestCreateRejects(t *testing.T) {
	r := New(Options{})

	_, err := r.Create(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = r.Create(context.Background(), "q")
	require.NoError(t, err)
	_, err = r.Create(context.Background(), "q")
	require.ErrorIs(t, err, ErrQueueExists)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Create(ctx, "late")
	require.ErrorIs(t, err, context.Canceled)
	_, err = r.Lookup("late")
	require.ErrorIs(t, err, ErrQueueNotFound)
}

func TestCatalogFailureDoesNotPublish(t *testing.T) {
	cat := &memCatalog{err: errors.New("disk full")}
	r := New(Options{Catalog: cat})

	_, err := r.Create(context.Background(), "q")
	require.ErrorContains(t, err, "disk full")
	_, err = r.Lookup("q")
	require.ErrorIs(t, err, ErrQueueNotFound)
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	r := New(Options{})
	const n = 32

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Create(context.Background(), "shared"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
	require.Equal(t, []string{"shared"}, r.Names())
}

func TestRestoreFromPebbleCatalog(t *testing.T) {
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)

	r := New(Options{Catalog: catalog.New(db)})
	for i := 0; i < 3; i++ {
		_, err := r.Create(context.Background(), fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	db, err = pebblestore.Open(pebblestore.Options{DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	restored := New(Options{Catalog: catalog.New(db)})
	n, err := restored.Restore()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []string{"q0", "q1", "q2"}, restored.Names())

	// Restored queues are empty and usable.
	q, err := restored.Lookup("q1")
	require.NoError(t, err)
	require.Equal(t, rendezvous.TimedOut, q.Take(0, nil).Result().Outcome)

	n, err = restored.Restore()
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = restored.Create(context.Background(), "q1")
	require.ErrorIs(t, err, ErrQueueExists)
}

func TestQueuesShareObserver(t *testing.T) {
	obs := &outcomeRecorder{}
	r := New(Options{Observer: obs})
	q, err := r.Create(context.Background(), "q")
	require.NoError(t, err)
	q.Take(time.Millisecond, nil).Result()
	require.Equal(t, []string{"q:expired"}, obs.get())
}

type outcomeRecorder struct {
	mu   sync.Mutex
	seen []string
}

func (o *outcomeRecorder) Observe(queue string, outcome rendezvous.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, queue+":"+outcome.String())
}

func (o *outcomeRecorder) get() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.seen...)
}
