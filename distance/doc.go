// Package distance provides the point-to-point distances used by the samplers.
//
// # Supported Metrics
//
//   - MetricSquaredL2: Squared Euclidean distance (default)
//   - MetricL2: Euclidean distance
//   - MetricL1: Manhattan distance
//
// # Usage
//
//	d := distance.SquaredL2Point(a, b)
//	distance.PairwiseBatch(points, b, n, distance.MetricSquaredL2, out)
//
// SquaredL2Point rounds every intermediate product to float32, so a matrix
// built with MetricSquaredL2 holds exactly the values the Euclidean sampler
// computes on the fly.
package distance
