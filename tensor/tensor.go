// Package tensor provides the typed, device-tagged multi-dimensional arrays
// that the samplers consume and produce.
//
// Storage is always host memory; the Device tag records where a backend
// expects the data to live and is what the dispatch layer checks for
// colocation. Strides are expressed in elements.
package tensor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDTypeMismatch is returned when typed storage is requested for a tensor of another dtype.
var ErrDTypeMismatch = errors.New("tensor: dtype mismatch")

// DType is the element type of a tensor.
type DType uint8

const (
	// Float32 is a 32-bit IEEE-754 float.
	Float32 DType = iota + 1
	// Int32 is a 32-bit signed integer.
	Int32
)

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	default:
		return 0
	}
}

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// DeviceType identifies a compute device family.
type DeviceType uint8

const (
	CPU DeviceType = iota
	CUDA
	MUSA
	NPU
)

func (t DeviceType) String() string {
	switch t {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	case MUSA:
		return "musa"
	case NPU:
		return "npu"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// Device is a concrete compute device: a family plus an ordinal.
type Device struct {
	Type  DeviceType
	Index int
}

// Host is the default CPU device.
var Host = Device{Type: CPU}

func (d Device) String() string {
	if d.Type == CPU && d.Index == 0 {
		return "cpu"
	}
	return d.Type.String() + ":" + strconv.Itoa(d.Index)
}

// ParseDevice parses strings such as "cpu", "cuda" or "cuda:1".
func ParseDevice(s string) (Device, error) {
	name, idx, hasIdx := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")

	var dev Device
	switch name {
	case "cpu":
		dev.Type = CPU
	case "cuda":
		dev.Type = CUDA
	case "musa":
		dev.Type = MUSA
	case "npu":
		dev.Type = NPU
	default:
		return Device{}, fmt.Errorf("tensor: unknown device %q", s)
	}

	if hasIdx {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return Device{}, fmt.Errorf("tensor: invalid device index in %q", s)
		}
		dev.Index = n
	}
	return dev, nil
}

// Shape is the extent of each dimension, outermost first.
type Shape []int

// NumElements returns the product of all dimensions.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether two shapes have the same rank and extents.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// rowMajorStrides returns the contiguous strides for a shape.
func rowMajorStrides(shape Shape) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// Tensor is a strided view over host storage.
type Tensor struct {
	shape   Shape
	strides []int
	offset  int
	dtype   DType
	device  Device

	f32 []float32
	i32 []int32

	requiresGrad      bool
	nonDifferentiable bool
}

// New allocates a zeroed, contiguous tensor.
func New(shape Shape, dtype DType, dev Device) (*Tensor, error) {
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("tensor: negative dimension in %v", shape)
		}
	}

	t := &Tensor{
		shape:   append(Shape(nil), shape...),
		strides: rowMajorStrides(shape),
		dtype:   dtype,
		device:  dev,
	}

	switch dtype {
	case Float32:
		t.f32 = make([]float32, shape.NumElements())
	case Int32:
		t.i32 = make([]int32, shape.NumElements())
	default:
		return nil, fmt.Errorf("tensor: unsupported dtype %v", dtype)
	}
	return t, nil
}

// Full allocates a contiguous Float32 tensor filled with v.
func Full(shape Shape, v float32, dev Device) (*Tensor, error) {
	t, err := New(shape, Float32, dev)
	if err != nil {
		return nil, err
	}
	t.Fill(v)
	return t, nil
}

// FromFloat32 wraps data as a contiguous host tensor without copying.
func FromFloat32(data []float32, shape ...int) (*Tensor, error) {
	s := Shape(shape)
	if s.NumElements() != len(data) {
		return nil, fmt.Errorf("tensor: %d elements do not fit shape %v", len(data), s)
	}
	return &Tensor{
		shape:   s,
		strides: rowMajorStrides(s),
		dtype:   Float32,
		device:  Host,
		f32:     data,
	}, nil
}

// FromInt32 wraps data as a contiguous host tensor without copying.
func FromInt32(data []int32, shape ...int) (*Tensor, error) {
	s := Shape(shape)
	if s.NumElements() != len(data) {
		return nil, fmt.Errorf("tensor: %d elements do not fit shape %v", len(data), s)
	}
	return &Tensor{
		shape:   s,
		strides: rowMajorStrides(s),
		dtype:   Int32,
		device:  Host,
		i32:     data,
	}, nil
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() Shape { return append(Shape(nil), t.shape...) }

// Dim returns the extent of dimension i.
func (t *Tensor) Dim(i int) int { return t.shape[i] }

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return len(t.shape) }

// Strides returns a copy of the element strides.
func (t *Tensor) Strides() []int { return append([]int(nil), t.strides...) }

// DType returns the element type.
func (t *Tensor) DType() DType { return t.dtype }

// Device returns the device the tensor is placed on.
func (t *Tensor) Device() Device { return t.device }

// To returns a shallow copy tagged with dev. Storage is shared.
func (t *Tensor) To(dev Device) *Tensor {
	c := *t
	c.shape = t.Shape()
	c.strides = t.Strides()
	c.device = dev
	return &c
}

// IsContiguous reports whether the tensor is laid out row-major with no gaps.
func (t *Tensor) IsContiguous() bool {
	if t.offset != 0 {
		return false
	}
	expected := 1
	for i := len(t.shape) - 1; i >= 0; i-- {
		if t.shape[i] != 1 && t.strides[i] != expected {
			return false
		}
		expected *= t.shape[i]
	}
	return true
}

// Transpose returns a view with dimensions d0 and d1 swapped.
func (t *Tensor) Transpose(d0, d1 int) (*Tensor, error) {
	if d0 < 0 || d1 < 0 || d0 >= len(t.shape) || d1 >= len(t.shape) {
		return nil, fmt.Errorf("tensor: transpose dims (%d, %d) out of range for rank %d", d0, d1, len(t.shape))
	}
	v := *t
	v.shape = t.Shape()
	v.strides = t.Strides()
	v.shape[d0], v.shape[d1] = v.shape[d1], v.shape[d0]
	v.strides[d0], v.strides[d1] = v.strides[d1], v.strides[d0]
	return &v, nil
}

// Contiguous returns t if it is already contiguous, otherwise a packed copy.
func (t *Tensor) Contiguous() *Tensor {
	if t.IsContiguous() {
		return t
	}

	c, _ := New(t.shape, t.dtype, t.device)
	c.requiresGrad = t.requiresGrad
	c.nonDifferentiable = t.nonDifferentiable

	n := t.shape.NumElements()
	idx := make([]int, len(t.shape))
	for flat := 0; flat < n; flat++ {
		src := t.offsetOf(idx)
		switch t.dtype {
		case Float32:
			c.f32[flat] = t.f32[src]
		case Int32:
			c.i32[flat] = t.i32[src]
		}
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < t.shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return c
}

func (t *Tensor) offsetOf(idx []int) int {
	off := t.offset
	for i, v := range idx {
		off += v * t.strides[i]
	}
	return off
}

// Float32s returns the backing storage of a Float32 tensor.
// Flat indexing into it is only meaningful for contiguous tensors.
func (t *Tensor) Float32s() ([]float32, error) {
	if t.dtype != Float32 {
		return nil, fmt.Errorf("%w: want float32, have %v", ErrDTypeMismatch, t.dtype)
	}
	return t.f32, nil
}

// Int32s returns the backing storage of an Int32 tensor.
func (t *Tensor) Int32s() ([]int32, error) {
	if t.dtype != Int32 {
		return nil, fmt.Errorf("%w: want int32, have %v", ErrDTypeMismatch, t.dtype)
	}
	return t.i32, nil
}

// Int32Rows returns per-row slices of a contiguous rank-2 Int32 tensor.
func (t *Tensor) Int32Rows() ([][]int32, error) {
	if t.dtype != Int32 || len(t.shape) != 2 || !t.IsContiguous() {
		return nil, fmt.Errorf("%w: want contiguous rank-2 int32, have %v %v", ErrDTypeMismatch, t.dtype, t.shape)
	}
	rows := make([][]int32, t.shape[0])
	cols := t.shape[1]
	for r := range rows {
		rows[r] = t.i32[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return rows, nil
}

// At returns the element at idx converted to float64.
func (t *Tensor) At(idx ...int) float64 {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: At with %d indices on rank %d", len(idx), len(t.shape)))
	}
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dim %d (%d)", v, i, t.shape[i]))
		}
	}
	off := t.offsetOf(idx)
	if t.dtype == Int32 {
		return float64(t.i32[off])
	}
	return float64(t.f32[off])
}

// Fill sets every element of the underlying storage to v.
func (t *Tensor) Fill(v float32) {
	switch t.dtype {
	case Float32:
		for i := range t.f32 {
			t.f32[i] = v
		}
	case Int32:
		iv := int32(v)
		for i := range t.i32 {
			t.i32[i] = iv
		}
	}
}

// SetRequiresGrad marks the tensor as a gradient-tracked leaf.
// It has no effect on tensors marked non-differentiable.
func (t *Tensor) SetRequiresGrad(v bool) *Tensor {
	if !t.nonDifferentiable {
		t.requiresGrad = v
	}
	return t
}

// RequiresGrad reports whether gradients flow into this tensor.
func (t *Tensor) RequiresGrad() bool { return t.requiresGrad }

// MarkNonDifferentiable excludes the tensor from gradient computation.
func (t *Tensor) MarkNonDifferentiable() {
	t.nonDifferentiable = true
	t.requiresGrad = false
}

// IsDifferentiable reports whether the tensor may participate in gradient computation.
func (t *Tensor) IsDifferentiable() bool { return !t.nonDifferentiable }

// Bytes returns the tensor's logical size in bytes.
func (t *Tensor) Bytes() int64 {
	return int64(t.shape.NumElements()) * int64(t.dtype.Size())
}
