package fps

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/fps/tensor"
)

var bitmapPool = sync.Pool{
	New: func() any { return roaring.New() },
}

// Verify checks that indices is a (B, M) int32 tensor whose entries lie in
// [0, n) and are distinct within each row, the guarantees every sampling
// result carries.
func Verify(indices *tensor.Tensor, n int) error {
	if indices == nil || indices.Rank() != 2 {
		return fmt.Errorf("%w: indices must be (B, M)", ErrInvalidShape)
	}
	if indices.DType() != tensor.Int32 {
		return fmt.Errorf("%w: indices must be int32, got %v", ErrInvalidDType, indices.DType())
	}

	rows, err := indices.Contiguous().Int32Rows()
	if err != nil {
		return err
	}

	seen := bitmapPool.Get().(*roaring.Bitmap)
	defer func() {
		seen.Clear()
		bitmapPool.Put(seen)
	}()

	for b, row := range rows {
		seen.Clear()
		for j, idx := range row {
			if idx < 0 || int(idx) >= n {
				return fmt.Errorf("%w: row %d column %d holds %d, want [0, %d)", ErrIndexOutOfRange, b, j, idx, n)
			}
			if !seen.CheckedAdd(uint32(idx)) {
				return fmt.Errorf("%w: row %d repeats %d at column %d", ErrDuplicateIndex, b, idx, j)
			}
		}
	}
	return nil
}
