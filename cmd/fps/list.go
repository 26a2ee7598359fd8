package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/hupe1980/fps/pointio"
	"github.com/spf13/cobra"
)

func newListCommand(a *app) *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List stored tensors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}

			names, err := a.store.List(ctx, prefix)
			if err != nil {
				return err
			}
			if !long {
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDTYPE\tSHAPE\tCOMPRESSION")
			for _, name := range names {
				h, err := a.readHeader(cmd, name)
				if err != nil {
					fmt.Fprintf(tw, "%s\t-\t-\t-\n", name)
					a.logger.WarnContext(ctx, "unreadable blob", "name", name, "error", err)
					continue
				}
				fmt.Fprintf(tw, "%s\t%v\t%v\t%v\n", name, h.DType, h.Shape, h.Compression)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "show dtype, shape and compression")
	return cmd
}

func (a *app) readHeader(cmd *cobra.Command, name string) (*pointio.Header, error) {
	rc, err := a.store.Open(cmd.Context(), name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return pointio.ReadHeader(rc)
}
