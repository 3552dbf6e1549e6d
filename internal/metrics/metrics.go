package metrics

import (
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	gometrics "github.com/rcrowley/go-metrics"

	"github.com/rzbill/rendezq/internal/rendezvous"
	pebblestore "github.com/rzbill/rendezq/internal/storage/pebble"
	logpkg "github.com/rzbill/rendezq/pkg/log"
)

// Metric names.
const (
	ConnAccepted   = "conn.accepted"
	ConnRejected   = "conn.rejected"
	SessionsActive = "sessions.active"
	StorageWrite   = "storage.write"
	StorageRead    = "storage.read"
	StorageScan    = "storage.scan"
	StorageBytes   = "storage.write.bytes"

	requestPrefix  = "requests."
	responsePrefix = "responses."
	outcomePrefix  = "outcomes."
)

// Metrics is the process metrics set.
type Metrics struct {
	registry gometrics.Registry
	active   atomic.Int64

	accepted gometrics.Counter
	rejected gometrics.Counter
	write    gometrics.Timer
	read     gometrics.Timer
	scan     gometrics.Timer
	bytes    gometrics.Histogram
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	r := gometrics.NewRegistry()
	m := &Metrics{
		registry: r,
		accepted: gometrics.NewRegisteredCounter(ConnAccepted, r),
		rejected: gometrics.NewRegisteredCounter(ConnRejected, r),
		write:    gometrics.NewRegisteredTimer(StorageWrite, r),
		read:     gometrics.NewRegisteredTimer(StorageRead, r),
		scan:     gometrics.NewRegisteredTimer(StorageScan, r),
		bytes:    gometrics.NewRegisteredHistogram(StorageBytes, r, gometrics.NewUniformSample(1028)),
	}
	gometrics.NewRegisteredFunctionalGauge(SessionsActive, r, m.active.Load)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() gometrics.Registry { return m.registry }

// ConnAccepted counts an admitted connection.
func (m *Metrics) ConnAccepted() {
	if m != nil {
		m.accepted.Inc(1)
	}
}

// ConnRejected counts a connection closed by the admission gate.
func (m *Metrics) ConnRejected() {
	if m != nil {
		m.rejected.Inc(1)
	}
}

// SessionStarted returns the function that marks the session finished.
func (m *Metrics) SessionStarted() func() {
	if m == nil {
		return func() {}
	}
	m.active.Add(1)
	return func() { m.active.Add(-1) }
}

// Request counts one decoded request by method.
func (m *Metrics) Request(method string) {
	if m != nil {
		gometrics.GetOrRegisterCounter(requestPrefix+method, m.registry).Inc(1)
	}
}

// Response counts one response by status code.
func (m *Metrics) Response(status int) {
	if m != nil {
		gometrics.GetOrRegisterCounter(responsePrefix+strconv.Itoa(status), m.registry).Inc(1)
	}
}

// Observe implements rendezvous.Observer. Outcomes are counted across all
// queues so the registry does not grow with the number of queues.
func (m *Metrics) Observe(_ string, outcome rendezvous.Outcome) {
	if m != nil {
		gometrics.GetOrRegisterCounter(outcomePrefix+outcome.String(), m.registry).Inc(1)
	}
}

// Count returns a counter's value, or 0 if it was never registered.
func (m *Metrics) Count(name string) int64 {
	if c, ok := m.registry.Get(name).(gometrics.Counter); ok {
		return c.Count()
	}
	return 0
}

// RequestCount returns the number of requests seen for method.
func (m *Metrics) RequestCount(method string) int64 { return m.Count(requestPrefix + method) }

// ResponseCount returns the number of responses sent with status.
func (m *Metrics) ResponseCount(status int) int64 {
	return m.Count(responsePrefix + strconv.Itoa(status))
}

// OutcomeCount returns the number of operations that finished with outcome.
func (m *Metrics) OutcomeCount(outcome rendezvous.Outcome) int64 {
	return m.Count(outcomePrefix + outcome.String())
}

// StorageHook adapts m to the pebble store's metrics hook.
func (m *Metrics) StorageHook() pebblestore.MetricsHook { return storageHook{m} }

type storageHook struct{ m *Metrics }

func (h storageHook) ObserveWrite(elapsed time.Duration, bytes int) {
	h.m.write.Update(elapsed)
	h.m.bytes.Update(int64(bytes))
}

func (h storageHook) ObserveRead(elapsed time.Duration, _ int) { h.m.read.Update(elapsed) }

func (h storageHook) ObserveScan(elapsed time.Duration, _ int) { h.m.scan.Update(elapsed) }

// LogSnapshot writes every non-zero metric as one info record.
func (m *Metrics) LogSnapshot(logger logpkg.Logger) {
	if m == nil {
		return
	}
	fields := m.snapshotFields()
	logger.Info("metrics snapshot", fields...)
}

func (m *Metrics) snapshotFields() []logpkg.Field {
	var fields []logpkg.Field
	m.registry.Each(func(name string, i interface{}) {
		switch v := i.(type) {
		case gometrics.Counter:
			if n := v.Count(); n != 0 {
				fields = append(fields, logpkg.Int64(name, n))
			}
		case gometrics.Gauge:
			fields = append(fields, logpkg.Int64(name, v.Value()))
		case gometrics.Timer:
			s := v.Snapshot()
			if s.Count() > 0 {
				fields = append(fields,
					logpkg.Int64(name+".count", s.Count()),
					logpkg.Dur(name+".p99", time.Duration(s.Percentile(0.99))))
			}
		case gometrics.Histogram:
			s := v.Snapshot()
			if s.Count() > 0 {
				fields = append(fields, logpkg.Int64(name+".sum", s.Sum()))
			}
		}
	})
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

// promName converts a dotted registry name to a Prometheus metric name.
func promName(name string) string {
	return "rendezq_" + strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
