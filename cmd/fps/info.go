package main

import (
	"fmt"
	"strings"

	"github.com/hupe1980/fps/device"
	"github.com/spf13/cobra"
)

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show backends, kernels and host CPU features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			fmt.Fprintf(w, "store:       %s\n", a.cfg.Store.Kind)
			fmt.Fprintf(w, "compression: %s\n", a.comp)
			fmt.Fprintf(w, "workers:     %d\n", a.rc.MaxWorkers())
			if limit := a.rc.MemoryLimit(); limit > 0 {
				fmt.Fprintf(w, "memory:      %d bytes\n", limit)
			} else {
				fmt.Fprintln(w, "memory:      unlimited")
			}

			for _, b := range a.sampler.Registry().Backends() {
				fmt.Fprintf(w, "backend:     %s (%s)\n", b.Name(), b.DeviceType())
				if cpu, ok := b.(*device.CPU); ok {
					fmt.Fprintf(w, "  cpu:       %s, %d cores\n", cpu.Capabilities(), cpu.Capabilities().NumCPU)
					fmt.Fprintf(w, "  kernels:   %s\n", strings.Join(cpu.Kernels(), ", "))
				}
			}
			return nil
		},
	}
}
