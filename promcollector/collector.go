// Package promcollector exports sampling metrics to Prometheus.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	mc, err := promcollector.New(reg)
//	if err != nil {
//	    return err
//	}
//	s := fps.New(fps.WithMetricsCollector(mc))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package promcollector

import (
	"time"

	"github.com/hupe1980/fps"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "fps"

var _ fps.MetricsCollector = (*Collector)(nil)

// Collector implements fps.MetricsCollector on Prometheus metrics.
type Collector struct {
	sampleLatency     *prometheus.HistogramVec
	pointsSelected    *prometheus.CounterVec
	candidatesScanned *prometheus.CounterVec
	gatherLatency     *prometheus.HistogramVec
	gatheredRows      prometheus.Counter
}

// New creates a collector and registers its metrics with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		sampleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "sample_duration_seconds",
			Help:      "Latency of sampling calls.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
		}, []string{"kernel", "status"}),
		pointsSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "points_selected_total",
			Help:      "Indices written by successful sampling calls.",
		}, []string{"kernel"}),
		candidatesScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "candidates_total",
			Help:      "Candidate points offered to successful sampling calls.",
		}, []string{"kernel"}),
		gatherLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "gather_duration_seconds",
			Help:      "Latency of gather calls.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"status"}),
		gatheredRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "gathered_rows_total",
			Help:      "Rows copied by successful gather calls.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.sampleLatency,
		c.pointsSelected,
		c.candidatesScanned,
		c.gatherLatency,
		c.gatheredRows,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSample implements fps.MetricsCollector.
func (c *Collector) RecordSample(name string, b, n, m int, duration time.Duration, err error) {
	c.sampleLatency.WithLabelValues(name, status(err)).Observe(duration.Seconds())
	if err != nil {
		return
	}
	c.pointsSelected.WithLabelValues(name).Add(float64(b) * float64(m))
	c.candidatesScanned.WithLabelValues(name).Add(float64(b) * float64(n))
}

// RecordGather implements fps.MetricsCollector.
func (c *Collector) RecordGather(b, m int, duration time.Duration, err error) {
	c.gatherLatency.WithLabelValues(status(err)).Observe(duration.Seconds())
	if err == nil {
		c.gatheredRows.Add(float64(b) * float64(m))
	}
}
