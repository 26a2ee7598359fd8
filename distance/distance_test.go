package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquaredL2Point(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 27},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1, 0}, []float32{-1, 1, 0}, 8},
		{"Axis", []float32{5, 5, 5}, []float32{0, 0, 0}, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SquaredL2Point(tt.a, tt.b))
			assert.Equal(t, tt.expected, SquaredL2Point(tt.b, tt.a), "symmetric")
		})
	}
}

func TestL2AndL1Point(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{3, 4, 0}
	assert.InDelta(t, float32(5), L2Point(a, b), 1e-6)
	assert.Equal(t, float32(7), L1Point(a, b))
	assert.Equal(t, float32(7), L1Point(b, a))
}

func TestMetric(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "SquaredL2", MetricSquaredL2.String())
		assert.Equal(t, "L2", MetricL2.String())
		assert.Equal(t, "L1", MetricL1.String())
		assert.Equal(t, "Unknown(99)", Metric(99).String())
	})

	t.Run("Parse", func(t *testing.T) {
		for in, want := range map[string]Metric{
			"":          MetricSquaredL2,
			"SquaredL2": MetricSquaredL2,
			"euclidean": MetricL2,
			"L1":        MetricL1,
		} {
			got, err := ParseMetric(in)
			require.NoError(t, err)
			assert.Equal(t, want, got, in)
		}
		_, err := ParseMetric("cosine")
		assert.Error(t, err)
	})

	t.Run("Provider", func(t *testing.T) {
		f, err := Provider(MetricSquaredL2)
		require.NoError(t, err)
		assert.Equal(t, float32(27), f([]float32{1, 2, 3}, []float32{4, 5, 6}))

		_, err = Provider(Metric(99))
		assert.Error(t, err)
	})
}

func TestPairwise(t *testing.T) {
	points := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		5, 5, 5,
	}
	out := make([]float32, 16)
	require.NoError(t, Pairwise(points, 4, MetricSquaredL2, out))

	for i := 0; i < 4; i++ {
		assert.Equal(t, float32(0), out[i*4+i])
		for j := 0; j < 4; j++ {
			assert.Equal(t, out[i*4+j], out[j*4+i])
			assert.Equal(t, SquaredL2Point(points[i*3:], points[j*3:]), out[i*4+j])
		}
	}
	assert.Equal(t, float32(2), out[1*4+2])
	assert.Equal(t, float32(75), out[0*4+3])

	assert.Error(t, Pairwise(points, 5, MetricSquaredL2, make([]float32, 25)))
	assert.Error(t, Pairwise(points, 4, MetricSquaredL2, make([]float32, 15)))
	assert.Error(t, Pairwise(points, 4, Metric(99), out))
}

func TestPairwiseBatch(t *testing.T) {
	points := []float32{
		0, 0, 0, 3, 4, 0,
		1, 1, 1, 1, 1, 2,
	}
	out := make([]float32, 8)
	require.NoError(t, PairwiseBatch(points, 2, 2, MetricL2, out))
	assert.InDelta(t, 5, out[1], 1e-6)
	assert.InDelta(t, 1, out[4+1], 1e-6)
	assert.False(t, math.IsNaN(float64(out[7])))

	assert.Error(t, PairwiseBatch(points, 3, 2, MetricL2, make([]float32, 12)))
	assert.Error(t, PairwiseBatch(points, 2, 2, MetricL2, make([]float32, 7)))
}
