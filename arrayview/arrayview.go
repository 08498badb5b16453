// Package arrayview adapts a flat element buffer and its shape into a
// github.com/gomlx/gomlx tensor, for callers that want to hand a subarray
// read straight to an ML pipeline instead of consuming the raw slice
// (spec §6, the array-view adapter — out of the core's scope but wired
// here the way the teacher wires its own NextBatch result).
package arrayview

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/arrayfs/nstore/types"
)

// Tensor builds a *tensors.Tensor from a flat, C-order element buffer and
// its logical shape, the same reshape the teacher's NextBatch performs on
// its decoded batch.
func Tensor[T types.Elem](data []T, shape types.Shape) (*tensors.Tensor, error) {
	dims := make([]int, len(shape))
	copy(dims, shape)
	if shape.Product() != len(data) {
		return nil, fmt.Errorf("arrayview: data length %d does not match shape %v", len(data), shape)
	}
	return tensors.FromFlatDataAndDimensions(data, dims...), nil
}

// TensorFromBytes is the dtype-erased entry point: it dispatches on d and
// reinterprets raw (host-native order, as produced by dataset.ReadChunkBytes
// or subarray.ReadSubarray's underlying buffer) as the matching tensor
// element type, mirroring the teacher's switch over decoded Go slice types.
func TensorFromBytes(raw []byte, d types.Dtype, shape types.Shape) (*tensors.Tensor, error) {
	switch d {
	case types.Int8:
		return Tensor(types.BytesToSlice[int8](raw), shape)
	case types.Int16:
		return Tensor(types.BytesToSlice[int16](raw), shape)
	case types.Int32:
		return Tensor(types.BytesToSlice[int32](raw), shape)
	case types.Int64:
		return Tensor(types.BytesToSlice[int64](raw), shape)
	case types.Uint8:
		return Tensor(types.BytesToSlice[uint8](raw), shape)
	case types.Uint16:
		return Tensor(types.BytesToSlice[uint16](raw), shape)
	case types.Uint32:
		return Tensor(types.BytesToSlice[uint32](raw), shape)
	case types.Uint64:
		return Tensor(types.BytesToSlice[uint64](raw), shape)
	case types.Float32:
		return Tensor(types.BytesToSlice[float32](raw), shape)
	case types.Float64:
		return Tensor(types.BytesToSlice[float64](raw), shape)
	default:
		return nil, fmt.Errorf("arrayview: unsupported dtype %v", d)
	}
}
