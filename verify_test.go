package fps

import (
	"testing"

	"github.com/hupe1980/fps/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	indices := func(data []int32, b, m int) *tensor.Tensor {
		idx, err := tensor.FromInt32(data, b, m)
		require.NoError(t, err)
		return idx
	}

	tests := []struct {
		name    string
		indices *tensor.Tensor
		n       int
		want    error
	}{
		{"Valid", indices([]int32{0, 3, 1, 0, 2, 4}, 2, 3), 5, nil},
		{"RowsIndependent", indices([]int32{0, 1, 0, 1}, 2, 2), 2, nil},
		{"OutOfRange", indices([]int32{0, 5}, 1, 2), 5, ErrIndexOutOfRange},
		{"Negative", indices([]int32{0, -1}, 1, 2), 5, ErrIndexOutOfRange},
		{"Duplicate", indices([]int32{0, 2, 2}, 1, 3), 5, ErrDuplicateIndex},
		{"Nil", nil, 2, ErrInvalidShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.indices, tt.n)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("WrongDType", func(t *testing.T) {
		f, err := tensor.New(tensor.Shape{1, 2}, tensor.Float32, tensor.Host)
		require.NoError(t, err)
		assert.ErrorIs(t, Verify(f, 4), ErrInvalidDType)
	})

	t.Run("Rank3", func(t *testing.T) {
		idx, err := tensor.New(tensor.Shape{1, 2, 1}, tensor.Int32, tensor.Host)
		require.NoError(t, err)
		assert.ErrorIs(t, Verify(idx, 4), ErrInvalidShape)
	})
}
