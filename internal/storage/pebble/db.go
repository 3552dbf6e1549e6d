package pebblestore

import (
	"bytes"
	"errors"
	"time"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = pebble.ErrNotFound

// FsyncMode defines durability behavior for write operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways syncs the WAL on every committed write.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble coalesce WAL syncs within FsyncInterval.
	FsyncModeInterval
	// FsyncModeNever leaves syncing entirely to Pebble.
	FsyncModeNever
)

// ParseFsyncMode maps a config string ("always", "interval", "never") to a mode.
func ParseFsyncMode(s string) (FsyncMode, error) {
	switch s {
	case "":
		return FsyncModeUnspecified, nil
	case "always":
		return FsyncModeAlways, nil
	case "interval":
		return FsyncModeInterval, nil
	case "never":
		return FsyncModeNever, nil
	}
	return FsyncModeUnspecified, errors.New("pebble: unknown fsync mode " + s)
}

// Options configures the store.
type Options struct {
	DataDir       string
	Fsync         FsyncMode
	FsyncInterval time.Duration
	// PebbleOptions allows advanced tuning. Nil uses Pebble defaults.
	PebbleOptions *pebble.Options
	// Metrics observes read, write and scan latencies. Optional.
	Metrics MetricsHook
}

// MetricsHook receives storage observations.
type MetricsHook interface {
	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
	ObserveScan(elapsed time.Duration, keys int)
}

// NoopMetrics is used when no hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(time.Duration, int) {}
func (NoopMetrics) ObserveRead(time.Duration, int)  {}
func (NoopMetrics) ObserveScan(time.Duration, int)  {}

// DB wraps a Pebble database with an fsync policy and metrics.
type DB struct {
	inner     *pebble.DB
	writeOpts *pebble.WriteOptions
	metrics   MetricsHook
}

// Open creates or opens the database in opts.DataDir.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	switch opts.Fsync {
	case FsyncModeAlways, FsyncModeNever:
	case FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		interval := opts.FsyncInterval
		po.WALMinSyncInterval = func() time.Duration { return interval }
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, err
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	wo := pebble.NoSync
	if opts.Fsync == FsyncModeAlways {
		wo = pebble.Sync
	}
	return &DB{inner: inner, writeOpts: wo, metrics: metrics}, nil
}

// Close closes the database. Safe on a nil DB.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

// Set writes key=value under the fsync policy.
func (db *DB) Set(key, value []byte) error {
	start := time.Now()
	if err := db.inner.Set(key, value, db.writeOpts); err != nil {
		return err
	}
	db.metrics.ObserveWrite(time.Since(start), len(key)+len(value))
	return nil
}

// Delete removes key under the fsync policy.
func (db *DB) Delete(key []byte) error {
	start := time.Now()
	if err := db.inner.Delete(key, db.writeOpts); err != nil {
		return err
	}
	db.metrics.ObserveWrite(time.Since(start), len(key))
	return nil
}

// Get copies the value for key. A missing key returns ErrNotFound.
func (db *DB) Get(key []byte) ([]byte, error) {
	start := time.Now()
	val, closer, err := db.inner.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	buf := append([]byte(nil), val...)
	db.metrics.ObserveRead(time.Since(start), len(buf))
	return buf, nil
}

// Has reports whether key exists.
func (db *DB) Has(key []byte) (bool, error) {
	_, err := db.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ScanPrefix calls fn for every key starting with prefix, in key order.
// Key and value are only valid during the call. A non-nil error from fn
// stops the scan and is returned.
func (db *DB) ScanPrefix(prefix []byte, fn func(key, value []byte) error) error {
	start := time.Now()
	it, err := db.inner.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	n := 0
	for ok := it.First(); ok; ok = it.Next() {
		if !bytes.HasPrefix(it.Key(), prefix) {
			break
		}
		if err := fn(it.Key(), it.Value()); err != nil {
			_ = it.Close()
			return err
		}
		n++
	}
	err = errors.Join(it.Error(), it.Close())
	db.metrics.ObserveScan(time.Since(start), n)
	return err
}

// prefixEnd returns the smallest key greater than every key with prefix, or
// nil when prefix is all 0xff.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
