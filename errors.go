package fps

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fps/kernel"
	"github.com/hupe1980/fps/resource"
	"github.com/hupe1980/fps/tensor"
)

var (
	// ErrInvalidShape is returned when an input shape or the sample count is invalid.
	ErrInvalidShape = kernel.ErrInvalidShape
	// ErrNonContiguousInput is returned when a buffer is not contiguous.
	ErrNonContiguousInput = kernel.ErrNonContiguousInput
	// ErrDeviceMismatch is returned when buffers live on different devices.
	ErrDeviceMismatch = kernel.ErrDeviceMismatch
	// ErrUnsupportedDevice is returned when no backend serves the input's device.
	ErrUnsupportedDevice = kernel.ErrUnsupportedDevice
	// ErrInvalidDType is returned when a buffer has the wrong element type.
	ErrInvalidDType = kernel.ErrInvalidDType
	// ErrUnknownKernel is returned when a kernel name is not registered.
	ErrUnknownKernel = kernel.ErrUnknownKernel
	// ErrMemoryLimitExceeded is returned when buffers would exceed the memory budget.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded

	// ErrIndexOutOfRange is returned when an index lies outside [0, N).
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrDuplicateIndex is returned when a row repeats an index.
	ErrDuplicateIndex = errors.New("duplicate index")
)

// ShapeError describes a rejected input shape.
//
// It matches ErrInvalidShape via errors.Is; the underlying error can be
// accessed via errors.Unwrap.
type ShapeError struct {
	Op        string
	Shape     tensor.Shape
	NumPoints int
	cause     error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: input %v with num_points=%d: %v", e.Op, e.Shape, e.NumPoints, e.cause)
}

func (e *ShapeError) Unwrap() error { return e.cause }

func translateError(op string, input *tensor.Tensor, numPoints int, err error) error {
	if err == nil {
		return nil
	}

	var se *ShapeError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, kernel.ErrInvalidShape) {
		var shape tensor.Shape
		if input != nil {
			shape = input.Shape()
		}
		return &ShapeError{Op: op, Shape: shape, NumPoints: numPoints, cause: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}
