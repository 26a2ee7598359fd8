package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// UniformCloud generates a flattened (b, n, 3) batch with coordinates in [0, 1).
func (r *RNG) UniformCloud(b, n int) []float32 {
	points := make([]float32, b*n*3)
	r.FillUniformRange(points, 0, 1)
	return points
}

// GaussianCloud generates a flattened (b, n, 3) batch from a standard normal.
func (r *RNG) GaussianCloud(b, n int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([]float32, b*n*3)
	for i := range points {
		points[i] = float32(r.rand.NormFloat64())
	}
	return points
}

// ClusteredCloud generates a flattened (b, n, 3) batch clustered around
// random centroids in [-1, 1)^3 with Gaussian noise of the given spread.
// Useful for checking that samples spread across all clusters.
func (r *RNG) ClusteredCloud(b, n, clusters int, spread float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([]float32, b*n*3)
	for k := 0; k < b; k++ {
		centroids := make([]float32, clusters*3)
		for i := range centroids {
			centroids[i] = r.rand.Float32()*2 - 1
		}
		cloud := points[k*n*3 : (k+1)*n*3]
		for i := 0; i < n; i++ {
			c := centroids[(i%clusters)*3:]
			for j := 0; j < 3; j++ {
				cloud[i*3+j] = c[j] + float32(r.rand.NormFloat64())*spread
			}
		}
	}
	return points
}

// ReferenceSample is a deliberately naive furthest-point sampler: every round
// recomputes each candidate's distance to all selected points. It starts at
// index 0, breaks ties by lowest index and never reselects an index.
func ReferenceSample(points []float32, b, n, m int) [][]int32 {
	return referenceSample(b, n, m, func(k, i, j int) float32 {
		a := points[(k*n+i)*3:]
		c := points[(k*n+j)*3:]
		dx, dy, dz := a[0]-c[0], a[1]-c[1], a[2]-c[2]
		return float32(dx*dx) + float32(dy*dy) + float32(dz*dz)
	})
}

// ReferenceSampleWithDist is ReferenceSample over a flattened (b, n, n)
// matrix, reading the distance from selected point j to candidate i at [j][i].
func ReferenceSampleWithDist(dist []float32, b, n, m int) [][]int32 {
	return referenceSample(b, n, m, func(k, i, j int) float32 {
		return dist[k*n*n+j*n+i]
	})
}

func referenceSample(b, n, m int, d func(k, i, j int) float32) [][]int32 {
	const initial = float32(1e10)

	out := make([][]int32, b)
	for k := range out {
		row := []int32{0}
		taken := map[int]bool{0: true}
		for len(row) < m {
			best, bestDist := -1, float32(math.Inf(-1))
			for i := 0; i < n; i++ {
				if taken[i] {
					continue
				}
				nearest := initial
				for _, s := range row {
					if v := d(k, i, int(s)); v < nearest {
						nearest = v
					}
				}
				if best < 0 || nearest > bestDist {
					best, bestDist = i, nearest
				}
			}
			row = append(row, int32(best))
			taken[best] = true
		}
		out[k] = row
	}
	return out
}
