package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniformCloud(t *testing.T) {
	rng := NewRNG(4711)

	points := rng.UniformCloud(2, 16)

	assert.Len(t, points, 2*16*3)
	for _, v := range points {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.GaussianCloud(1, 8)
	rng.Reset()
	b := rng.GaussianCloud(1, 8)
	assert.Equal(t, a, b)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestClusteredCloud(t *testing.T) {
	rng := NewRNG(1)
	points := rng.ClusteredCloud(3, 40, 4, 0.01)
	assert.Len(t, points, 3*40*3)

	// Points i and i+clusters share a centroid.
	d := points[0] - points[4*3]
	assert.Less(t, d*d, float32(0.01))
}

func TestReferenceSample(t *testing.T) {
	points := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		5, 5, 5,
	}
	assert.Equal(t, [][]int32{{0, 3}}, ReferenceSample(points, 1, 4, 2))
	assert.Equal(t, [][]int32{{0, 3, 1, 2}}, ReferenceSample(points, 1, 4, 4))

	dist := []float32{
		0, 1, 10,
		0, 0, 5,
		0, 0, 0,
	}
	assert.Equal(t, [][]int32{{0, 2}}, ReferenceSampleWithDist(dist, 1, 3, 2))
}
