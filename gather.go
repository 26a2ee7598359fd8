package fps

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/fps/tensor"
)

// Gather returns the rows of a (B, N, C) float32 tensor selected by a
// (B, M) int32 index tensor as a new (B, M, C) tensor on the same device.
// It is the usual follow-up to SampleFurthest.
func (s *Sampler) Gather(ctx context.Context, points, indices *tensor.Tensor) (out *tensor.Tensor, err error) {
	start := time.Now()
	var b, m, c int
	defer func() {
		s.metrics.RecordGather(b, m, time.Since(start), err)
		s.logger.LogGather(ctx, b, m, c, err)
	}()

	if points == nil || indices == nil {
		return nil, fmt.Errorf("%w: nil points or indices", ErrInvalidShape)
	}
	if points.DType() != tensor.Float32 || indices.DType() != tensor.Int32 {
		return nil, fmt.Errorf("%w: want float32 points and int32 indices, got %v and %v",
			ErrInvalidDType, points.DType(), indices.DType())
	}
	if points.Rank() != 3 || indices.Rank() != 2 || points.Dim(0) != indices.Dim(0) {
		return nil, fmt.Errorf("%w: points %v and indices %v do not form (B, N, C) and (B, M)",
			ErrInvalidShape, points.Shape(), indices.Shape())
	}
	if points.Device() != indices.Device() {
		return nil, fmt.Errorf("%w: points on %v, indices on %v", ErrDeviceMismatch, points.Device(), indices.Device())
	}

	b, m, c = indices.Dim(0), indices.Dim(1), points.Dim(2)
	n := points.Dim(1)

	src, _ := points.Contiguous().Float32s()
	rows, err := indices.Contiguous().Int32Rows()
	if err != nil {
		return nil, err
	}

	out, err = tensor.New(tensor.Shape{b, m, c}, tensor.Float32, points.Device())
	if err != nil {
		return nil, err
	}
	dst, _ := out.Float32s()

	for k, row := range rows {
		cloud := src[k*n*c : (k+1)*n*c]
		for j, idx := range row {
			if idx < 0 || int(idx) >= n {
				return nil, fmt.Errorf("%w: batch %d column %d holds %d, want [0, %d)", ErrIndexOutOfRange, k, j, idx, n)
			}
			copy(dst[(k*m+j)*c:(k*m+j+1)*c], cloud[int(idx)*c:(int(idx)+1)*c])
		}
	}

	if points.RequiresGrad() {
		out.SetRequiresGrad(true)
	}
	return out, nil
}

// Gather runs Sampler.Gather on the default sampler.
func Gather(ctx context.Context, points, indices *tensor.Tensor) (*tensor.Tensor, error) {
	return Default().Gather(ctx, points, indices)
}
