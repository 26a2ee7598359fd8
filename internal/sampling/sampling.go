package sampling

import (
	"math"
	"runtime"

	"github.com/hupe1980/fps/distance"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBlockSize is the number of candidates owned by one block worker.
	DefaultBlockSize = 4096
	// DefaultBlockThreshold is the candidate count from which a batch element
	// is reduced by block workers instead of a single loop.
	DefaultBlockThreshold = 1 << 15
)

// Config controls how the engine spreads work.
type Config struct {
	// Workers bounds the number of batch elements processed concurrently.
	// If 0, defaults to GOMAXPROCS.
	Workers int

	// BlockSize is the candidate count per block worker. If 0, DefaultBlockSize.
	BlockSize int

	// BlockThreshold is the minimum N for block-parallel reduction.
	// If 0, DefaultBlockThreshold. Negative disables block reduction.
	BlockThreshold int

	// Trace, if set, is called for every selection in order: batch element,
	// round, selected index and its nearest distance at selection time
	// (+Inf for the seed).
	// Calls for one batch element are sequential; different batch elements
	// may call concurrently.
	Trace func(batch, round, index int, dist float32)
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.BlockSize <= 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.BlockThreshold == 0 {
		c.BlockThreshold = DefaultBlockThreshold
	}
	return c
}

// updateFunc folds the distances from p into nearest[lo:hi] and returns the
// lowest-index maximum among unselected candidates in that range.
// best is -1 when every candidate in range is selected.
type updateFunc func(lo, hi, p int) (best int, bestDist float32)

// Euclidean runs furthest-point sampling over a flattened (b, n, 3) point
// batch. temp must hold b*n distances initialised by the caller; out receives
// b*m indices.
func Euclidean(points, temp []float32, out []int32, b, n, m int, cfg Config) {
	run(b, n, m, temp, out, cfg, func(k int, nearest []float32, selected []bool) updateFunc {
		cloud := points[k*n*distance.Dim : (k+1)*n*distance.Dim]
		return func(lo, hi, p int) (int, float32) {
			pp := cloud[p*distance.Dim : p*distance.Dim+distance.Dim]
			return reduce(nearest, selected, lo, hi, func(i int) float32 {
				return distance.SquaredL2Point(cloud[i*distance.Dim:i*distance.Dim+distance.Dim], pp)
			})
		}
	})
}

// WithDist runs furthest-point sampling over a flattened (b, n, n) distance
// matrix batch. The distance from candidate i to the selected point p is
// read from row p, matrix[p][i].
func WithDist(dist, temp []float32, out []int32, b, n, m int, cfg Config) {
	run(b, n, m, temp, out, cfg, func(k int, nearest []float32, selected []bool) updateFunc {
		matrix := dist[k*n*n : (k+1)*n*n]
		return func(lo, hi, p int) (int, float32) {
			row := matrix[p*n : (p+1)*n]
			return reduce(nearest, selected, lo, hi, func(i int) float32 {
				return row[i]
			})
		}
	})
}

// reduce is the per-candidate map and the local argmax. Ties keep the
// earlier index because only a strictly greater distance replaces best.
// When no unselected candidate beats -Inf (all NaN or -Inf), the lowest
// unselected index is returned with -Inf.
func reduce(nearest []float32, selected []bool, lo, hi int, d func(i int) float32) (int, float32) {
	negInf := float32(math.Inf(-1))
	best, firstFree := -1, -1
	bestDist := negInf
	for i := lo; i < hi; i++ {
		if v := d(i); v < nearest[i] {
			nearest[i] = v
		}
		if selected[i] {
			continue
		}
		if firstFree < 0 {
			firstFree = i
		}
		if nearest[i] > bestDist {
			best = i
			bestDist = nearest[i]
		}
	}
	if best < 0 {
		return firstFree, negInf
	}
	return best, bestDist
}

func run(b, n, m int, temp []float32, out []int32, cfg Config, bind func(k int, nearest []float32, selected []bool) updateFunc) {
	cfg = cfg.withDefaults()

	// Batch elements share no state; the group only bounds fan-out.
	var g errgroup.Group
	g.SetLimit(cfg.Workers)

	for k := 0; k < b; k++ {
		g.Go(func() error {
			nearest := temp[k*n : (k+1)*n]
			selected := make([]bool, n)
			update := bind(k, nearest, selected)
			row := out[k*m : (k+1)*m]

			var trace func(round, index int, dist float32)
			if cfg.Trace != nil {
				trace = func(round, index int, dist float32) { cfg.Trace(k, round, index, dist) }
			}

			if cfg.BlockThreshold > 0 && n >= cfg.BlockThreshold && n > cfg.BlockSize {
				selectBlocked(n, row, selected, update, cfg.BlockSize, trace)
			} else {
				selectSequential(n, row, selected, update, trace)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func selectSequential(n int, row []int32, selected []bool, update updateFunc, trace func(round, index int, dist float32)) {
	p := 0
	row[0] = 0
	selected[0] = true
	if trace != nil {
		trace(0, 0, float32(math.Inf(1)))
	}

	for r := 1; r < len(row); r++ {
		best, bestDist := update(0, n, p)
		p = best
		row[r] = int32(p)
		selected[p] = true
		if trace != nil {
			trace(r, p, bestDist)
		}
	}
}
