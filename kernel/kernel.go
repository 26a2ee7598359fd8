// Package kernel defines the named-kernel dispatch contract shared by the
// device backends and the public sampler.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/fps/tensor"
)

// Kernel names.
const (
	FurthestPointSampling         = "furthest_point_sampling_forward"
	FurthestPointSamplingWithDist = "furthest_point_sampling_with_dist_forward"
)

// InitialDistance is the value the scratch buffer holds before a launch.
// It stands in for +infinity so the first update is unconstrained.
const InitialDistance float32 = 1e10

var (
	// ErrInvalidShape is returned when the input shape or the sample count is invalid.
	ErrInvalidShape = errors.New("invalid shape")
	// ErrNonContiguousInput is returned when a buffer is not laid out contiguously.
	ErrNonContiguousInput = errors.New("non-contiguous input")
	// ErrDeviceMismatch is returned when buffers live on different devices.
	ErrDeviceMismatch = errors.New("device mismatch")
	// ErrUnsupportedDevice is returned when no backend serves the input's device.
	ErrUnsupportedDevice = errors.New("unsupported device")
	// ErrInvalidDType is returned when a buffer has the wrong element type.
	ErrInvalidDType = errors.New("invalid dtype")
	// ErrUnknownKernel is returned when a kernel name is not registered.
	ErrUnknownKernel = errors.New("unknown kernel")
)

// Args are the buffers and sizes passed to a kernel launch.
type Args struct {
	Input   *tensor.Tensor // (B, N, 3) points or (B, N, N) distances
	Temp    *tensor.Tensor // (B, N) scratch distances
	Output  *tensor.Tensor // (B, M) int32 indices
	B, N, M int
}

// Func is a launchable kernel. It runs to completion once started.
type Func func(ctx context.Context, args Args) error

// Table maps kernel names to implementations. Safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewTable creates an empty kernel table.
func NewTable() *Table {
	return &Table{funcs: make(map[string]Func)}
}

// Register adds or replaces the kernel registered under name.
func (t *Table) Register(name string, fn Func) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.funcs[name] = fn
}

// Lookup returns the kernel registered under name.
func (t *Table) Lookup(name string) (Func, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
	}
	return fn, nil
}

// Names returns the registered kernel names in sorted order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InputShape checks an input tensor against the kernel's expected layout and
// returns its batch size and candidate count.
func InputShape(name string, input *tensor.Tensor, m int) (b, n int, err error) {
	if input == nil {
		return 0, 0, fmt.Errorf("%w: nil input", ErrInvalidShape)
	}
	if input.DType() != tensor.Float32 {
		return 0, 0, fmt.Errorf("%w: input must be float32, got %v", ErrInvalidDType, input.DType())
	}

	shape := input.Shape()
	if len(shape) != 3 {
		return 0, 0, fmt.Errorf("%w: input must be rank 3, got %v", ErrInvalidShape, shape)
	}
	b, n = shape[0], shape[1]

	switch name {
	case FurthestPointSampling:
		if shape[2] != 3 {
			return 0, 0, fmt.Errorf("%w: points must be (B, N, 3), got %v", ErrInvalidShape, shape)
		}
	case FurthestPointSamplingWithDist:
		if shape[2] != n {
			return 0, 0, fmt.Errorf("%w: distance matrix must be (B, N, N), got %v", ErrInvalidShape, shape)
		}
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
	}

	if m <= 0 {
		return 0, 0, fmt.Errorf("%w: num_points must be positive, got %d", ErrInvalidShape, m)
	}
	if n <= m {
		return 0, 0, fmt.Errorf("%w: need N > num_points, got N=%d num_points=%d", ErrInvalidShape, n, m)
	}
	if !input.IsContiguous() {
		return 0, 0, fmt.Errorf("%w: input %v", ErrNonContiguousInput, shape)
	}
	return b, n, nil
}

// Validate checks every precondition of a launch before any buffer is touched.
func Validate(name string, args Args) error {
	b, n, err := InputShape(name, args.Input, args.M)
	if err != nil {
		return err
	}
	if args.B != b || args.N != n {
		return fmt.Errorf("%w: sizes b=%d n=%d disagree with input %v", ErrInvalidShape, args.B, args.N, args.Input.Shape())
	}

	if args.Temp == nil || args.Output == nil {
		return fmt.Errorf("%w: missing scratch or output buffer", ErrInvalidShape)
	}
	if args.Temp.DType() != tensor.Float32 {
		return fmt.Errorf("%w: scratch must be float32, got %v", ErrInvalidDType, args.Temp.DType())
	}
	if args.Output.DType() != tensor.Int32 {
		return fmt.Errorf("%w: output must be int32, got %v", ErrInvalidDType, args.Output.DType())
	}
	if !args.Temp.Shape().Equal(tensor.Shape{b, n}) {
		return fmt.Errorf("%w: scratch must be (%d, %d), got %v", ErrInvalidShape, b, n, args.Temp.Shape())
	}
	if !args.Output.Shape().Equal(tensor.Shape{b, args.M}) {
		return fmt.Errorf("%w: output must be (%d, %d), got %v", ErrInvalidShape, b, args.M, args.Output.Shape())
	}
	if !args.Temp.IsContiguous() || !args.Output.IsContiguous() {
		return fmt.Errorf("%w: scratch and output must be contiguous", ErrNonContiguousInput)
	}

	dev := args.Input.Device()
	if args.Temp.Device() != dev || args.Output.Device() != dev {
		return fmt.Errorf("%w: input on %v, scratch on %v, output on %v",
			ErrDeviceMismatch, dev, args.Temp.Device(), args.Output.Device())
	}
	return nil
}
