package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rzbill/rendezq/internal/catalog"
	cfgpkg "github.com/rzbill/rendezq/internal/config"
	"github.com/rzbill/rendezq/internal/metrics"
	"github.com/rzbill/rendezq/internal/registry"
	pebblestore "github.com/rzbill/rendezq/internal/storage/pebble"
	logpkg "github.com/rzbill/rendezq/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	// DataDir holds the catalog store. Unused when Config.PersistCatalog is false.
	DataDir string
	Fsync   pebblestore.FsyncMode
	Config  cfgpkg.Config
	Logger  logpkg.Logger
	// Metrics is shared with the servers. Nil creates a fresh set.
	Metrics *metrics.Metrics
}

// Runtime wires storage, the queue catalog and the registry for one process.
type Runtime struct {
	db       *pebblestore.DB
	catalog  *catalog.Catalog
	registry *registry.Registry
	metrics  *metrics.Metrics
	closed   atomic.Bool
}

// Open initializes storage (when persistence is on), restores catalogued
// queues and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	rt := &Runtime{metrics: m}

	regOpts := registry.Options{Logger: logger, Observer: m}
	if opts.Config.PersistCatalog {
		if opts.DataDir == "" {
			return nil, errors.New("runtime: DataDir is required when the catalog is persisted")
		}
		db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync, Metrics: m.StorageHook()})
		if err != nil {
			return nil, fmt.Errorf("runtime: open store: %w", err)
		}
		rt.db = db
		rt.catalog = catalog.New(db)
		regOpts.Catalog = rt.catalog
	}
	rt.registry = registry.New(regOpts)

	if _, err := rt.registry.Restore(); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close closes underlying resources. Safe to call more than once.
func (r *Runtime) Close() error {
	if !r.closed.CompareAndSwap(false, true) || r.db == nil {
		return nil
	}
	return r.db.Close()
}

var healthKey = []byte("health/probe")

// CheckHealth verifies the runtime is open and, when persisting, that the
// store takes a write, a read and a delete.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.closed.Load() {
		return errors.New("runtime closed")
	}
	if r.db == nil {
		return nil
	}
	if err := r.db.Set(healthKey, []byte{1}); err != nil {
		return err
	}
	if ok, err := r.db.Has(healthKey); err != nil || !ok {
		return errors.Join(errors.New("runtime: health key not readable"), err)
	}
	return r.db.Delete(healthKey)
}

// Registry returns the queue registry.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Metrics returns the shared metrics set.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// Catalog returns the queue catalog, or nil when persistence is off.
func (r *Runtime) Catalog() *catalog.Catalog { return r.catalog }
