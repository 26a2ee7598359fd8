package fps

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/fps/kernel"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Package promcollector provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordSample is called after each sampling call. name is the kernel,
	// b, n and m are the batch size, candidate count and requested samples
	// (zero when the input was rejected before its shape was known).
	RecordSample(name string, b, n, m int, duration time.Duration, err error)

	// RecordGather is called after each gather call.
	RecordGather(b, m int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSample(string, int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordGather(int, int, time.Duration, error)              {}

// MultiMetricsCollector forwards every record to each collector in order.
type MultiMetricsCollector []MetricsCollector

// RecordSample implements MetricsCollector.
func (c MultiMetricsCollector) RecordSample(name string, b, n, m int, duration time.Duration, err error) {
	for _, mc := range c {
		mc.RecordSample(name, b, n, m, duration, err)
	}
}

// RecordGather implements MetricsCollector.
func (c MultiMetricsCollector) RecordGather(b, m int, duration time.Duration, err error) {
	for _, mc := range c {
		mc.RecordGather(b, m, duration, err)
	}
}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SampleCount         atomic.Int64
	SampleErrors        atomic.Int64
	SampleTotalNanos    atomic.Int64
	SampleWithDistCount atomic.Int64
	PointsSelected      atomic.Int64
	CandidatesScanned   atomic.Int64
	GatherCount         atomic.Int64
	GatherErrors        atomic.Int64
}

// RecordSample implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSample(name string, batch, n, m int, duration time.Duration, err error) {
	b.SampleCount.Add(1)
	b.SampleTotalNanos.Add(duration.Nanoseconds())
	if name == kernel.FurthestPointSamplingWithDist {
		b.SampleWithDistCount.Add(1)
	}
	if err != nil {
		b.SampleErrors.Add(1)
		return
	}
	b.PointsSelected.Add(int64(batch) * int64(m))
	b.CandidatesScanned.Add(int64(batch) * int64(n))
}

// RecordGather implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGather(_, _ int, _ time.Duration, err error) {
	b.GatherCount.Add(1)
	if err != nil {
		b.GatherErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SampleCount:         b.SampleCount.Load(),
		SampleErrors:        b.SampleErrors.Load(),
		SampleAvgNanos:      b.getAvgSampleNanos(),
		SampleWithDistCount: b.SampleWithDistCount.Load(),
		PointsSelected:      b.PointsSelected.Load(),
		CandidatesScanned:   b.CandidatesScanned.Load(),
		GatherCount:         b.GatherCount.Load(),
		GatherErrors:        b.GatherErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSampleNanos() int64 {
	count := b.SampleCount.Load()
	if count == 0 {
		return 0
	}
	return b.SampleTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SampleCount         int64
	SampleErrors        int64
	SampleAvgNanos      int64
	SampleWithDistCount int64
	PointsSelected      int64
	CandidatesScanned   int64
	GatherCount         int64
	GatherErrors        int64
}
