// Package sampling implements the iterative furthest-point selection engine.
//
// Each batch element starts from index 0 and repeatedly selects the
// unselected candidate whose distance to its nearest selected point is
// largest, breaking ties by the lowest index. The scratch buffer holds those
// nearest distances; callers initialise it before a run.
//
// Batch elements run concurrently. Large batch elements are additionally
// reduced by block workers with a deterministic merge, so results never
// depend on the degree of parallelism.
package sampling
