package arrayview_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arrayfs/nstore/arrayview"
	"github.com/arrayfs/nstore/types"
)

func TestTensor_Float32(t *testing.T) {
	data := []float32{0, 1, 2, 3, 4, 5}
	tensor, err := arrayview.Tensor(data, types.Shape{3, 2})
	require.NoError(t, err)
	require.Equal(t, []int{3, 2}, tensor.Shape().Dimensions)
	require.Equal(t, [][]float32{{0, 1}, {2, 3}, {4, 5}}, tensor.Value().([][]float32))
}

func TestTensor_ShapeMismatch(t *testing.T) {
	_, err := arrayview.Tensor([]int32{1, 2, 3}, types.Shape{2, 2})
	require.Error(t, err)
}

func TestTensorFromBytes_Int32(t *testing.T) {
	raw := types.SliceToBytes([]int32{10, 20, 30, 40})
	tensor, err := arrayview.TensorFromBytes(raw, types.Int32, types.Shape{2, 2})
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, tensor.Shape().Dimensions)
	require.Equal(t, [][]int32{{10, 20}, {30, 40}}, tensor.Value().([][]int32))
}
