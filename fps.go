package fps

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/fps/device"
	"github.com/hupe1980/fps/kernel"
	"github.com/hupe1980/fps/tensor"
)

// Sampler runs furthest-point sampling on the backend that serves each
// input's device. A Sampler is safe for concurrent use.
type Sampler struct {
	registry *device.Registry
	logger   *Logger
	metrics  MetricsCollector
}

// New creates a Sampler. Without WithRegistry it serves host tensors through
// a CPU backend.
func New(optFns ...Option) *Sampler {
	o := applyOptions(optFns)

	reg := o.registry
	if reg == nil {
		cpuOpts := append([]func(*device.CPUOptions){func(c *device.CPUOptions) {
			c.Resources = o.resources
			c.Logger = o.logger.Logger
		}}, o.cpuOptions...)
		reg = device.NewRegistry(device.NewCPU(cpuOpts...))
	}
	for _, b := range o.backends {
		reg.Register(b)
	}

	return &Sampler{
		registry: reg,
		logger:   o.logger,
		metrics:  o.metricsCollector,
	}
}

// Registry returns the backend registry.
func (s *Sampler) Registry() *device.Registry { return s.registry }

// SampleFurthest selects numPoints indices from each (N, 3) cloud of a
// (B, N, 3) float32 tensor using squared Euclidean distance. The result is a
// (B, numPoints) int32 tensor on the input's device whose first column is 0.
//
// N must exceed numPoints and numPoints must be positive.
func (s *Sampler) SampleFurthest(ctx context.Context, points *tensor.Tensor, numPoints int) (*tensor.Tensor, error) {
	return s.sample(ctx, kernel.FurthestPointSampling, points, numPoints)
}

// SampleFurthestWithDist selects numPoints indices from each (N, N) distance
// matrix of a (B, N, N) float32 tensor. The distance from candidate i to a
// selected point p is read from row p.
func (s *Sampler) SampleFurthestWithDist(ctx context.Context, dist *tensor.Tensor, numPoints int) (*tensor.Tensor, error) {
	return s.sample(ctx, kernel.FurthestPointSamplingWithDist, dist, numPoints)
}

func (s *Sampler) sample(ctx context.Context, name string, input *tensor.Tensor, m int) (out *tensor.Tensor, err error) {
	start := time.Now()
	var b, n int
	defer func() {
		s.metrics.RecordSample(name, b, n, m, time.Since(start), err)
		s.logger.LogSample(ctx, name, b, n, m, err)
	}()

	b, n, err = kernel.InputShape(name, input, m)
	if err != nil {
		return nil, translateError(name, input, m, err)
	}

	dev := input.Device()
	backend, err := s.registry.Lookup(dev)
	if err != nil {
		return nil, translateError(name, input, m, err)
	}
	fn, err := backend.Kernel(name)
	if err != nil {
		return nil, translateError(name, input, m, err)
	}

	temp, err := backend.Alloc(tensor.Shape{b, n}, tensor.Float32, dev)
	if err != nil {
		return nil, translateError(name, input, m, err)
	}
	defer backend.Free(temp)
	temp.Fill(kernel.InitialDistance)

	out, err = backend.Alloc(tensor.Shape{b, m}, tensor.Int32, dev)
	if err != nil {
		return nil, translateError(name, input, m, err)
	}
	// The caller owns the result; only the launch is charged for it.
	defer backend.Free(out)

	if err = fn(ctx, kernel.Args{Input: input, Temp: temp, Output: out, B: b, N: n, M: m}); err != nil {
		return nil, translateError(name, input, m, err)
	}

	out.MarkNonDifferentiable()
	return out, nil
}

// Forward launches the named kernel on caller-provided buffers: input is
// (B, N, 3) or (B, N, N) float32, temp is a (B, N) float32 scratch buffer and
// output a (B, M) int32 buffer. All three must live on the same device.
//
// Unlike SampleFurthest, Forward does not initialise temp; callers set it to
// kernel.InitialDistance before the launch. On return temp holds each
// candidate's nearest distance to the selected set, excluding the last pick.
func (s *Sampler) Forward(ctx context.Context, name string, input, temp, output *tensor.Tensor) (err error) {
	start := time.Now()
	var b, n, m int
	defer func() {
		s.metrics.RecordSample(name, b, n, m, time.Since(start), err)
		s.logger.LogSample(ctx, name, b, n, m, err)
	}()

	if output == nil || output.Rank() != 2 {
		return translateError(name, input, 0, fmt.Errorf("%w: output must be (B, M)", ErrInvalidShape))
	}
	m = output.Dim(1)

	b, n, err = kernel.InputShape(name, input, m)
	if err != nil {
		return translateError(name, input, m, err)
	}

	backend, err := s.registry.Lookup(input.Device())
	if err != nil {
		return translateError(name, input, m, err)
	}
	fn, err := backend.Kernel(name)
	if err != nil {
		return translateError(name, input, m, err)
	}

	if err = fn(ctx, kernel.Args{Input: input, Temp: temp, Output: output, B: b, N: n, M: m}); err != nil {
		return translateError(name, input, m, err)
	}

	output.MarkNonDifferentiable()
	return nil
}

var defaultSampler = sync.OnceValue(func() *Sampler { return New() })

// Default returns the shared CPU sampler used by the package-level functions.
func Default() *Sampler { return defaultSampler() }

// SampleFurthest runs Sampler.SampleFurthest on the default sampler.
func SampleFurthest(ctx context.Context, points *tensor.Tensor, numPoints int) (*tensor.Tensor, error) {
	return Default().SampleFurthest(ctx, points, numPoints)
}

// SampleFurthestWithDist runs Sampler.SampleFurthestWithDist on the default sampler.
func SampleFurthestWithDist(ctx context.Context, dist *tensor.Tensor, numPoints int) (*tensor.Tensor, error) {
	return Default().SampleFurthestWithDist(ctx, dist, numPoints)
}
