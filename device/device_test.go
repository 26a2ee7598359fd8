package device

import (
	"context"
	"testing"

	"github.com/hupe1980/fps/kernel"
	"github.com/hupe1980/fps/resource"
	"github.com/hupe1980/fps/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simulated serves a non-host device family from host memory.
type simulated struct {
	*CPU
	typ tensor.DeviceType
}

func (s *simulated) Name() string                  { return "simulated-" + s.typ.String() }
func (s *simulated) DeviceType() tensor.DeviceType { return s.typ }

func TestRegistry(t *testing.T) {
	cpu := NewCPU()
	reg := NewRegistry(cpu)

	b, err := reg.Lookup(tensor.Host)
	require.NoError(t, err)
	assert.Same(t, cpu, b)

	b, err = reg.Lookup(tensor.Device{Type: tensor.CPU, Index: 3})
	require.NoError(t, err)
	assert.Equal(t, "cpu", b.Name())

	_, err = reg.Lookup(tensor.Device{Type: tensor.CUDA})
	assert.ErrorIs(t, err, kernel.ErrUnsupportedDevice)

	sim := &simulated{CPU: cpu, typ: tensor.NPU}
	reg.Register(sim)
	b, err = reg.Lookup(tensor.Device{Type: tensor.NPU, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, "simulated-npu", b.Name())

	backends := reg.Backends()
	require.Len(t, backends, 2)
	assert.Equal(t, tensor.CPU, backends[0].DeviceType())
	assert.Equal(t, tensor.NPU, backends[1].DeviceType())
}

func TestCPU_Alloc(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64})
	cpu := NewCPU(func(o *CPUOptions) { o.Resources = rc })

	x, err := cpu.Alloc(tensor.Shape{4, 4}, tensor.Float32, tensor.Host)
	require.NoError(t, err)
	assert.Equal(t, int64(64), rc.MemoryUsage())
	assert.True(t, x.IsContiguous())

	_, err = cpu.Alloc(tensor.Shape{1}, tensor.Int32, tensor.Host)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	cpu.Free(x)
	assert.Equal(t, int64(0), rc.MemoryUsage())
	cpu.Free(nil)

	_, err = cpu.Alloc(tensor.Shape{1}, tensor.Int32, tensor.Device{Type: tensor.CUDA})
	assert.ErrorIs(t, err, kernel.ErrUnsupportedDevice)

	_, err = cpu.Alloc(tensor.Shape{1}, tensor.DType(0), tensor.Host)
	assert.Error(t, err)
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func launchArgs(t *testing.T, input *tensor.Tensor, m int) kernel.Args {
	t.Helper()
	b, n := input.Dim(0), input.Dim(1)
	temp, err := tensor.Full(tensor.Shape{b, n}, kernel.InitialDistance, input.Device())
	require.NoError(t, err)
	out, err := tensor.New(tensor.Shape{b, m}, tensor.Int32, input.Device())
	require.NoError(t, err)
	return kernel.Args{Input: input, Temp: temp, Output: out, B: b, N: n, M: m}
}

func TestCPU_Kernels(t *testing.T) {
	cpu := NewCPU(func(o *CPUOptions) { o.Workers = 2 })
	assert.Equal(t, 2, cpu.Workers())
	assert.Equal(t, tensor.CPU, cpu.DeviceType())
	assert.Equal(t, []string{kernel.FurthestPointSampling, kernel.FurthestPointSamplingWithDist}, cpu.Kernels())

	t.Run("Euclidean", func(t *testing.T) {
		points, err := tensor.FromFloat32([]float32{
			0, 0, 0,
			1, 0, 0,
			0, 1, 0,
			5, 5, 5,
		}, 1, 4, 3)
		require.NoError(t, err)

		fn, err := cpu.Kernel(kernel.FurthestPointSampling)
		require.NoError(t, err)
		args := launchArgs(t, points, 2)
		require.NoError(t, fn(context.Background(), args))

		rows, err := args.Output.Int32Rows()
		require.NoError(t, err)
		assert.Equal(t, [][]int32{{0, 3}}, rows)
	})

	t.Run("WithDist", func(t *testing.T) {
		dist, err := tensor.FromFloat32([]float32{
			0, 1, 10,
			1, 0, 5,
			10, 5, 0,
		}, 1, 3, 3)
		require.NoError(t, err)

		fn, err := cpu.Kernel(kernel.FurthestPointSamplingWithDist)
		require.NoError(t, err)
		args := launchArgs(t, dist, 2)
		require.NoError(t, fn(context.Background(), args))

		rows, err := args.Output.Int32Rows()
		require.NoError(t, err)
		assert.Equal(t, [][]int32{{0, 2}}, rows)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := cpu.Kernel("ball_query_forward")
		assert.ErrorIs(t, err, kernel.ErrUnknownKernel)
	})

	t.Run("ValidatesBeforeRunning", func(t *testing.T) {
		points, err := tensor.New(tensor.Shape{1, 3, 3}, tensor.Float32, tensor.Host)
		require.NoError(t, err)
		out, err := tensor.New(tensor.Shape{1, 5}, tensor.Int32, tensor.Host)
		require.NoError(t, err)
		out.Fill(-1)
		temp, err := tensor.Full(tensor.Shape{1, 3}, kernel.InitialDistance, tensor.Host)
		require.NoError(t, err)

		fn, err := cpu.Kernel(kernel.FurthestPointSampling)
		require.NoError(t, err)
		err = fn(context.Background(), kernel.Args{Input: points, Temp: temp, Output: out, B: 1, N: 3, M: 5})
		assert.ErrorIs(t, err, kernel.ErrInvalidShape)

		data, _ := out.Int32s()
		assert.Equal(t, []int32{-1, -1, -1, -1, -1}, data, "output untouched")
	})

	t.Run("RejectsForeignDevice", func(t *testing.T) {
		points, err := tensor.New(tensor.Shape{1, 4, 3}, tensor.Float32, tensor.Device{Type: tensor.CUDA})
		require.NoError(t, err)
		fn, err := cpu.Kernel(kernel.FurthestPointSampling)
		require.NoError(t, err)
		err = fn(context.Background(), launchArgs(t, points, 2))
		assert.ErrorIs(t, err, kernel.ErrUnsupportedDevice)
	})

	t.Run("DeviceMismatch", func(t *testing.T) {
		points, err := tensor.New(tensor.Shape{1, 4, 3}, tensor.Float32, tensor.Host)
		require.NoError(t, err)
		args := launchArgs(t, points, 2)
		args.Temp = args.Temp.To(tensor.Device{Type: tensor.CUDA})
		fn, err := cpu.Kernel(kernel.FurthestPointSampling)
		require.NoError(t, err)
		assert.ErrorIs(t, fn(context.Background(), args), kernel.ErrDeviceMismatch)
	})
}

func TestCPU_WorkerBudget(t *testing.T) {
	rc := resource.NewController(resource.Config{MaxWorkers: 1})
	cpu := NewCPU(func(o *CPUOptions) {
		o.Resources = rc
		o.Workers = 4
	})

	// Hold the only slot so the launch cannot start.
	n, err := rc.AcquireWorkers(context.Background(), 1)
	require.NoError(t, err)

	points, err := tensor.New(tensor.Shape{2, 4, 3}, tensor.Float32, tensor.Host)
	require.NoError(t, err)
	fn, err := cpu.Kernel(kernel.FurthestPointSampling)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, fn(ctx, launchArgs(t, points, 2)), context.Canceled)

	rc.ReleaseWorkers(n)
	require.NoError(t, fn(context.Background(), launchArgs(t, points, 2)))
}

func TestCapabilities(t *testing.T) {
	c := DetectCapabilities()
	assert.NotEmpty(t, c.Arch)
	assert.Positive(t, c.NumCPU)
	assert.Contains(t, c.String(), c.Arch)

	generic := Capabilities{Arch: "riscv64"}
	assert.Empty(t, generic.Features())
	assert.Equal(t, "riscv64 (generic)", generic.String())

	x86 := Capabilities{Arch: "amd64", AVX2: true, FMA: true}
	assert.Equal(t, []string{"avx2", "fma"}, x86.Features())
	assert.Equal(t, "amd64 (avx2,fma)", x86.String())
}
