// Package testutil provides testing utilities for fps.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random point clouds and a brute-force
// reference sampler to check the engine against.
//
// # Random Point Generation
//
//	rng := testutil.NewRNG(seed)
//	points := rng.UniformCloud(b, n)     // (b, n, 3) in [0, 1)
//	points := rng.ClusteredCloud(b, n, 8, 0.05)
//
// # Reference Sampling
//
//	want := testutil.ReferenceSample(points, b, n, m)
package testutil
