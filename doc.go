// Package fps implements furthest-point sampling over batches of 3-D point
// clouds and precomputed distance matrices.
//
// Furthest-point sampling greedily picks M of N points so that each new pick
// is the candidate furthest from everything picked so far. The first pick is
// always index 0. Selection is deterministic: ties go to the lowest index and
// no index is returned twice.
//
// # Quick Start
//
//	points, _ := tensor.FromFloat32(xyz, b, n, 3)
//	idx, _ := fps.SampleFurthest(ctx, points, 512)
//	rows, _ := idx.Int32Rows()
//
// With a precomputed (B, N, N) distance matrix:
//
//	idx, _ := fps.SampleFurthestWithDist(ctx, dist, 512)
//
// The distance from candidate i to a selected point p is read from
// dist[b][p][i], so an upper-triangular matrix is sufficient when rows are
// filled for every point that can be selected.
//
// # Samplers
//
// The package-level functions use a shared CPU sampler. Construct a Sampler
// to bound memory and workers, attach logging or metrics, or register
// additional device backends:
//
//	rc := resource.NewController(resource.Config{MaxWorkers: 8})
//	s := fps.New(
//	    fps.WithResources(rc),
//	    fps.WithLogLevel(slog.LevelDebug),
//	    fps.WithMetricsCollector(&fps.BasicMetricsCollector{}),
//	)
//
// # Errors
//
// All argument checks run before any buffer is allocated. Shape problems are
// reported as *ShapeError, which matches ErrInvalidShape via errors.Is.
//
// The returned index tensor is marked non-differentiable.
package fps
