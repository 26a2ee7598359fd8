package main

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fps"
	"github.com/hupe1980/fps/tensor"
	"github.com/spf13/cobra"
)

const (
	modePoints = "points"
	modeDist   = "dist"
)

func newSampleCommand(a *app) *cobra.Command {
	var (
		input     string
		output    string
		gather    string
		mode      string
		numPoints int
		printRows bool
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Select the furthest points of every cloud in a batch",
		Long: `Sample runs greedy furthest-point sampling. Each cloud starts at index 0
and repeatedly adds the point furthest from everything selected so far.

In points mode the input is a (B, N, 3) float32 point batch and distances
are squared Euclidean. In dist mode the input is a (B, N, N) float32
distance matrix batch, for example one written by "fps distmat".

The selected indices are written as a (B, M) int32 tensor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var (
				src *tensor.Tensor
				err error
			)
			switch mode {
			case modePoints:
				src, err = a.readPoints(ctx, input)
			case modeDist:
				if gather != "" {
					return errors.New("sample: --gather needs points mode")
				}
				src, err = a.readTensor(ctx, input)
			default:
				return fmt.Errorf("sample: unknown mode %q", mode)
			}
			if err != nil {
				return err
			}

			var indices *tensor.Tensor
			if mode == modePoints {
				indices, err = a.sampler.SampleFurthest(ctx, src, numPoints)
			} else {
				indices, err = a.sampler.SampleFurthestWithDist(ctx, src, numPoints)
			}
			if err != nil {
				return err
			}
			if err := fps.Verify(indices, src.Dim(1)); err != nil {
				return fmt.Errorf("sample: %w", err)
			}

			if output != "" {
				if err := a.writeTensor(ctx, output, indices); err != nil {
					return err
				}
			}
			if gather != "" {
				sampled, err := a.sampler.Gather(ctx, src, indices)
				if err != nil {
					return err
				}
				if err := a.writeTensor(ctx, gather, sampled); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			if printRows {
				rows, _ := indices.Int32Rows()
				for _, row := range rows {
					fmt.Fprintln(w, row)
				}
			}
			if output != "" {
				fmt.Fprintf(w, "wrote %s %v\n", output, indices.Shape())
			}
			if gather != "" {
				fmt.Fprintf(w, "wrote %s %v\n", gather, tensor.Shape{indices.Dim(0), indices.Dim(1), src.Dim(2)})
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "blob holding the input tensor")
	f.StringVarP(&output, "output", "o", "", "blob name for the (B, M) index tensor")
	f.StringVar(&gather, "gather", "", "blob name for the (B, M, 3) sampled points")
	f.StringVar(&mode, "mode", modePoints, "points or dist")
	f.IntVarP(&numPoints, "num-points", "m", 0, "points to select per cloud")
	f.BoolVar(&printRows, "print", false, "print the selected indices")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("num-points")
	return cmd
}
