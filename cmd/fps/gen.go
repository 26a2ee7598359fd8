package main

import (
	"fmt"

	"github.com/hupe1980/fps/tensor"
	"github.com/hupe1980/fps/testutil"
	"github.com/spf13/cobra"
)

func newGenCommand(a *app) *cobra.Command {
	var (
		output       string
		batch        int
		points       int
		seed         int64
		distribution string
		clusters     int
		spread       float32
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic (B, N, 3) point cloud batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if batch < 0 || points <= 0 {
				return fmt.Errorf("gen: need --batch >= 0 and --points > 0, got %d and %d", batch, points)
			}

			rng := testutil.NewRNG(seed)
			var data []float32
			switch distribution {
			case "uniform":
				data = rng.UniformCloud(batch, points)
			case "gaussian":
				data = rng.GaussianCloud(batch, points)
			case "clustered":
				if clusters <= 0 {
					return fmt.Errorf("gen: --clusters must be positive, got %d", clusters)
				}
				data = rng.ClusteredCloud(batch, points, clusters, spread)
			default:
				return fmt.Errorf("gen: unknown distribution %q", distribution)
			}

			t, err := tensor.FromFloat32(data, batch, points, 3)
			if err != nil {
				return err
			}
			if err := a.writeTensor(cmd.Context(), output, t); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s %v (%s, seed %d)\n", output, t.Shape(), distribution, seed)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "blob name to write")
	f.IntVarP(&batch, "batch", "b", 1, "number of clouds")
	f.IntVarP(&points, "points", "n", 1024, "points per cloud")
	f.Int64Var(&seed, "seed", 4711, "random seed")
	f.StringVar(&distribution, "distribution", "uniform", "uniform, gaussian or clustered")
	f.IntVar(&clusters, "clusters", 8, "cluster count for the clustered distribution")
	f.Float32Var(&spread, "spread", 0.05, "cluster spread for the clustered distribution")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
