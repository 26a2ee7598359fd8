package distance

import (
	"fmt"
	"math"
	"strings"
)

// Dim is the number of coordinates per point.
const Dim = 3

// SquaredL2Point calculates the squared Euclidean distance between two 3D points.
// Assumes len(a) >= 3 and len(b) >= 3 (caller's responsibility).
//
// Each product is converted to float32 explicitly; the conversions forbid the
// compiler from fusing multiply-adds, which would make results depend on the
// call site.
func SquaredL2Point(a, b []float32) float32 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return float32(dx*dx) + float32(dy*dy) + float32(dz*dz)
}

// L2Point calculates the Euclidean distance between two 3D points.
func L2Point(a, b []float32) float32 {
	return float32(math.Sqrt(float64(SquaredL2Point(a, b))))
}

// L1Point calculates the Manhattan distance between two 3D points.
func L1Point(a, b []float32) float32 {
	return abs(a[0]-b[0]) + abs(a[1]-b[1]) + abs(a[2]-b[2])
}

func abs(v float32) float32 {
	return math.Float32frombits(math.Float32bits(v) &^ (1 << 31))
}

// Metric represents the distance metric used to build distance matrices.
type Metric int

const (
	MetricSquaredL2 Metric = iota
	MetricL2
	MetricL1
)

func (m Metric) String() string {
	switch m {
	case MetricSquaredL2:
		return "SquaredL2"
	case MetricL2:
		return "L2"
	case MetricL1:
		return "L1"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric parses a metric name (case-insensitive).
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "squaredl2", "sql2", "squared_l2", "":
		return MetricSquaredL2, nil
	case "l2", "euclidean":
		return MetricL2, nil
	case "l1", "manhattan":
		return MetricL1, nil
	default:
		return 0, fmt.Errorf("unknown metric: %q", s)
	}
}

// Func is a function type for point distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricSquaredL2:
		return SquaredL2Point, nil
	case MetricL2:
		return L2Point, nil
	case MetricL1:
		return L1Point, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Pairwise fills out (n*n) with the distances between the n points of a
// flattened (n, 3) cloud.
func Pairwise(points []float32, n int, m Metric, out []float32) error {
	if len(points) < n*Dim {
		return fmt.Errorf("pairwise: %d coordinates for %d points", len(points), n)
	}
	if len(out) < n*n {
		return fmt.Errorf("pairwise: output holds %d values, need %d", len(out), n*n)
	}

	fn, err := Provider(m)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		pi := points[i*Dim : i*Dim+Dim]
		row := out[i*n : (i+1)*n]
		row[i] = 0
		for j := i + 1; j < n; j++ {
			d := fn(pi, points[j*Dim:j*Dim+Dim])
			row[j] = d
			out[j*n+i] = d
		}
	}
	return nil
}

// PairwiseBatch fills out (b*n*n) with per-cloud pairwise distances of a
// flattened (b, n, 3) batch.
func PairwiseBatch(points []float32, b, n int, m Metric, out []float32) error {
	if len(points) < b*n*Dim {
		return fmt.Errorf("pairwise: %d coordinates for %d clouds of %d points", len(points), b, n)
	}
	if len(out) < b*n*n {
		return fmt.Errorf("pairwise: output holds %d values, need %d", len(out), b*n*n)
	}
	for k := 0; k < b; k++ {
		cloud := points[k*n*Dim : (k+1)*n*Dim]
		if err := Pairwise(cloud, n, m, out[k*n*n:(k+1)*n*n]); err != nil {
			return err
		}
	}
	return nil
}
