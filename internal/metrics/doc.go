// Package metrics keeps process counters in a go-metrics registry.
//
// Connections, requests per method, responses per status, queue outcomes and
// storage latencies are recorded here. The registry can be logged as a
// snapshot (on shutdown) and exported in the Prometheus text format through
// Handler. All recording methods are safe on a nil *Metrics.
package metrics
