package main

import (
	"context"
	"fmt"

	"github.com/hupe1980/fps"
	"github.com/hupe1980/fps/distance"
	"github.com/hupe1980/fps/tensor"
	"github.com/spf13/cobra"
)

func newDistmatCommand(a *app) *cobra.Command {
	var (
		input  string
		output string
		metric string
	)

	cmd := &cobra.Command{
		Use:   "distmat",
		Short: "Build the (B, N, N) pairwise distance matrices of a point cloud batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := distance.ParseMetric(metric)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			points, err := a.readPoints(ctx, input)
			if err != nil {
				return err
			}
			b, n := points.Dim(0), points.Dim(1)

			bytes := int64(b) * int64(n) * int64(n) * int64(tensor.Float32.Size())
			if err := a.rc.AcquireMemory(bytes); err != nil {
				return fmt.Errorf("distmat: %d bytes for %v matrices: %w", bytes, tensor.Shape{b, n, n}, err)
			}
			defer a.rc.ReleaseMemory(bytes)

			src, _ := points.Contiguous().Float32s()
			dst := make([]float32, b*n*n)
			if err := distance.PairwiseBatch(src, b, n, m, dst); err != nil {
				return err
			}

			dist, err := tensor.FromFloat32(dst, b, n, n)
			if err != nil {
				return err
			}
			if err := a.writeTensor(ctx, output, dist); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s %v (%s)\n", output, dist.Shape(), m)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "blob holding a (B, N, 3) float32 tensor")
	f.StringVarP(&output, "output", "o", "", "blob name to write")
	f.StringVar(&metric, "metric", "squaredl2", "squaredl2, l2 or l1")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// readPoints reads a blob and checks it holds a (B, N, 3) float32 batch.
func (a *app) readPoints(ctx context.Context, name string) (*tensor.Tensor, error) {
	t, err := a.readTensor(ctx, name)
	if err != nil {
		return nil, err
	}
	if t.DType() != tensor.Float32 {
		return nil, fmt.Errorf("%s: %w: want float32, got %v", name, fps.ErrInvalidDType, t.DType())
	}
	if t.Rank() != 3 || t.Dim(2) != distance.Dim {
		return nil, fmt.Errorf("%s: %w: want (B, N, 3), got %v", name, fps.ErrInvalidShape, t.Shape())
	}
	return t, nil
}
