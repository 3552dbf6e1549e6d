package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gometrics "github.com/rcrowley/go-metrics"
)

var quantiles = []float64{0.5, 0.9, 0.99}

// collector exposes a go-metrics registry as Prometheus const metrics.
// It is unchecked: the set of names grows as methods and statuses are seen.
type collector struct {
	registry gometrics.Registry
}

func (c collector) Describe(chan<- *prometheus.Desc) {}

func (c collector) Collect(ch chan<- prometheus.Metric) {
	c.registry.Each(func(name string, i interface{}) {
		desc := prometheus.NewDesc(promName(name), name, nil, nil)
		switch v := i.(type) {
		case gometrics.Counter:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v.Count()))
		case gometrics.Gauge:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(v.Value()))
		case gometrics.Timer:
			s := v.Snapshot()
			ch <- prometheus.MustNewConstSummary(desc, uint64(s.Count()),
				time.Duration(s.Sum()).Seconds(), percentiles(s.Percentiles(quantiles), time.Second))
		case gometrics.Histogram:
			s := v.Snapshot()
			ch <- prometheus.MustNewConstSummary(desc, uint64(s.Count()),
				float64(s.Sum()), percentiles(s.Percentiles(quantiles), 1))
		}
	})
}

func percentiles(values []float64, unit time.Duration) map[float64]float64 {
	out := make(map[float64]float64, len(quantiles))
	for i, q := range quantiles {
		out[q] = values[i] / float64(unit)
	}
	return out
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collector{registry: m.registry})
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
