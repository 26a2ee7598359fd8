package promcollector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/fps"
	"github.com/hupe1980/fps/kernel"
	"github.com/hupe1980/fps/tensor"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.RecordSample(kernel.FurthestPointSampling, 2, 100, 10, time.Millisecond, nil)
	c.RecordSample(kernel.FurthestPointSampling, 1, 50, 5, time.Millisecond, nil)
	c.RecordSample(kernel.FurthestPointSamplingWithDist, 0, 0, 0, time.Microsecond, errors.New("boom"))
	c.RecordGather(2, 10, time.Microsecond, nil)
	c.RecordGather(0, 0, time.Microsecond, errors.New("boom"))

	assert.InDelta(t, 25, promtest.ToFloat64(c.pointsSelected.WithLabelValues(kernel.FurthestPointSampling)), 0)
	assert.InDelta(t, 250, promtest.ToFloat64(c.candidatesScanned.WithLabelValues(kernel.FurthestPointSampling)), 0)
	assert.InDelta(t, 0, promtest.ToFloat64(c.pointsSelected.WithLabelValues(kernel.FurthestPointSamplingWithDist)), 0)
	assert.InDelta(t, 20, promtest.ToFloat64(c.gatheredRows), 0)

	// Two kernel/status series for sampling and two status series for gather.
	assert.Equal(t, 2, promtest.CollectAndCount(c.sampleLatency))
	assert.Equal(t, 2, promtest.CollectAndCount(c.gatherLatency))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.ElementsMatch(t, []string{
		"fps_sample_duration_seconds",
		"fps_points_selected_total",
		"fps_candidates_total",
		"fps_gather_duration_seconds",
		"fps_gathered_rows_total",
	}, names)
}

func TestCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	var are prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &are)
}

func TestCollectorWithSampler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)
	s := fps.New(fps.WithMetricsCollector(c))

	points, err := tensor.FromFloat32([]float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		5, 5, 5,
	}, 1, 4, 3)
	require.NoError(t, err)

	_, err = s.SampleFurthest(context.Background(), points, 2)
	require.NoError(t, err)
	_, err = s.SampleFurthest(context.Background(), points, 4)
	require.Error(t, err)

	assert.InDelta(t, 2, promtest.ToFloat64(c.pointsSelected.WithLabelValues(kernel.FurthestPointSampling)), 0)
	assert.InDelta(t, 4, promtest.ToFloat64(c.candidatesScanned.WithLabelValues(kernel.FurthestPointSampling)), 0)
	assert.Equal(t, 2, promtest.CollectAndCount(c.sampleLatency))
}
