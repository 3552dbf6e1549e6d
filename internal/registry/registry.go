// Package registry maps queue names to rendezvous queues.
package registry

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/rzbill/rendezq/internal/rendezvous"
	"github.com/rzbill/rendezq/pkg/id"
	logpkg "github.com/rzbill/rendezq/pkg/log"
)

var (
	// ErrQueueNotFound is returned by Lookup for an unknown name.
	ErrQueueNotFound = errors.New("queue not found")
	// ErrQueueExists is returned by Create for a name already in use.
	ErrQueueExists = errors.New("queue already exists")
	// ErrInvalidName is returned by Create for an empty name.
	ErrInvalidName = errors.New("invalid queue name")
)

// Queue is the queue type served over the wire: payloads stay raw JSON.
type Queue = rendezvous.Queue[json.RawMessage]

// Catalog persists queue names. Optional.
type Catalog interface {
	Add(name string) error
	Names() ([]string, error)
}

// Options configures a Registry.
type Options struct {
	Catalog  Catalog
	Logger   logpkg.Logger
	Observer rendezvous.Observer
}

// Registry is safe for concurrent use.
type Registry struct {
	catalog  Catalog
	logger   logpkg.Logger
	observer rendezvous.Observer
	ids      *id.Generator

	mu     sync.RWMutex
	queues map[string]*Queue
}

// New creates an empty registry.
func New(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Registry{
		catalog:  opts.Catalog,
		logger:   logger.WithComponent("registry"),
		observer: opts.Observer,
		ids:      id.NewGenerator(),
		queues:   make(map[string]*Queue),
	}
}

// Create registers a new empty queue. The name is written to the catalog
// before the queue becomes visible to Lookup.
func (r *Registry) Create(ctx context.Context, name string) (*Queue, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "create %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.queues[name]; ok {
		return nil, errors.Wrapf(ErrQueueExists, "create %q", name)
	}
	if r.catalog != nil {
		if err := r.catalog.Add(name); err != nil {
			return nil, errors.Wrapf(err, "create %q: catalog", name)
		}
	}
	q := r.newQueue(name)
	r.queues[name] = q
	r.logger.Info("queue created", logpkg.Str("queue", name))
	return q, nil
}

// Lookup returns the queue registered under name.
func (r *Registry) Lookup(name string) (*Queue, error) {
	r.mu.RLock()
	q, ok := r.queues[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrQueueNotFound, "%q", name)
	}
	return q, nil
}

// Restore recreates every queue listed by the catalog. Names already
// registered are skipped. It returns the number of queues added.
func (r *Registry) Restore() (int, error) {
	if r.catalog == nil {
		return 0, nil
	}
	names, err := r.catalog.Names()
	if err != nil {
		return 0, errors.Wrap(err, "restore: list catalog")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := r.queues[name]; ok {
			continue
		}
		r.queues[name] = r.newQueue(name)
		n++
	}
	if n > 0 {
		r.logger.Info("queues restored", logpkg.Int("count", n))
	}
	return n, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.queues))
	for name := range r.queues {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *Registry) newQueue(name string) *Queue {
	opts := []rendezvous.Option{rendezvous.WithLogger(r.logger), rendezvous.WithIDs(r.ids)}
	if r.observer != nil {
		opts = append(opts, rendezvous.WithObserver(r.observer))
	}
	return rendezvous.New[json.RawMessage](name, opts...)
}
