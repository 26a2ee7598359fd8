package device

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/hupe1980/fps/internal/sampling"
	"github.com/hupe1980/fps/kernel"
	"github.com/hupe1980/fps/resource"
	"github.com/hupe1980/fps/tensor"
)

// CPUOptions configures the CPU backend.
type CPUOptions struct {
	// Workers bounds the batch elements one launch processes concurrently.
	// If 0, defaults to GOMAXPROCS.
	Workers int

	// BlockSize and BlockThreshold control intra-element block reduction.
	// Zero values use the engine defaults; a negative threshold disables it.
	BlockSize      int
	BlockThreshold int

	// Resources, if set, bounds buffer memory and concurrent workers across
	// launches.
	Resources *resource.Controller

	// Logger receives debug output. If nil, output is discarded.
	Logger *slog.Logger
}

// CPU is the host backend.
type CPU struct {
	opts    CPUOptions
	caps    Capabilities
	kernels *kernel.Table
}

// NewCPU creates the CPU backend with both sampling kernels registered.
func NewCPU(optFns ...func(o *CPUOptions)) *CPU {
	opts := CPUOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	c := &CPU{
		opts:    opts,
		caps:    DetectCapabilities(),
		kernels: kernel.NewTable(),
	}
	c.kernels.Register(kernel.FurthestPointSampling, c.launch(kernel.FurthestPointSampling, sampling.Euclidean))
	c.kernels.Register(kernel.FurthestPointSamplingWithDist, c.launch(kernel.FurthestPointSamplingWithDist, sampling.WithDist))

	opts.Logger.Debug("cpu backend ready",
		"workers", opts.Workers,
		"capabilities", c.caps.String(),
	)
	return c
}

// Name implements Backend.
func (c *CPU) Name() string { return "cpu" }

// DeviceType implements Backend.
func (c *CPU) DeviceType() tensor.DeviceType { return tensor.CPU }

// Capabilities returns the detected host CPU features.
func (c *CPU) Capabilities() Capabilities { return c.caps }

// Workers returns the per-launch worker bound.
func (c *CPU) Workers() int { return c.opts.Workers }

// Alloc implements Backend. The allocation is charged to the memory budget.
func (c *CPU) Alloc(shape tensor.Shape, dtype tensor.DType, dev tensor.Device) (*tensor.Tensor, error) {
	if dev.Type != tensor.CPU {
		return nil, fmt.Errorf("%w: cpu backend cannot allocate on %v", kernel.ErrUnsupportedDevice, dev)
	}
	bytes := int64(shape.NumElements()) * int64(dtype.Size())
	if err := c.opts.Resources.AcquireMemory(bytes); err != nil {
		return nil, err
	}
	t, err := tensor.New(shape, dtype, dev)
	if err != nil {
		c.opts.Resources.ReleaseMemory(bytes)
		return nil, err
	}
	return t, nil
}

// Free implements Backend.
func (c *CPU) Free(t *tensor.Tensor) {
	if t == nil {
		return
	}
	c.opts.Resources.ReleaseMemory(t.Bytes())
}

// Kernel implements Backend.
func (c *CPU) Kernel(name string) (kernel.Func, error) {
	return c.kernels.Lookup(name)
}

// Kernels lists the registered kernel names.
func (c *CPU) Kernels() []string { return c.kernels.Names() }

type runFunc func(input, temp []float32, out []int32, b, n, m int, cfg sampling.Config)

func (c *CPU) launch(name string, run runFunc) kernel.Func {
	return func(ctx context.Context, args kernel.Args) error {
		if err := kernel.Validate(name, args); err != nil {
			return err
		}
		if dev := args.Input.Device(); dev.Type != tensor.CPU {
			return fmt.Errorf("%w: cpu backend cannot run on %v", kernel.ErrUnsupportedDevice, dev)
		}

		input, err := args.Input.Float32s()
		if err != nil {
			return err
		}
		temp, err := args.Temp.Float32s()
		if err != nil {
			return err
		}
		out, err := args.Output.Int32s()
		if err != nil {
			return err
		}

		workers, err := c.opts.Resources.AcquireWorkers(ctx, min(args.B, c.opts.Workers))
		if err != nil {
			return err
		}
		defer c.opts.Resources.ReleaseWorkers(workers)

		c.opts.Logger.DebugContext(ctx, "launching kernel",
			"kernel", name,
			"b", args.B,
			"n", args.N,
			"m", args.M,
			"workers", workers,
		)

		// Started kernels run to completion; ctx only gates worker acquisition.
		run(input, temp, out, args.B, args.N, args.M, sampling.Config{
			Workers:        workers,
			BlockSize:      c.opts.BlockSize,
			BlockThreshold: c.opts.BlockThreshold,
		})
		return nil
	}
}
