package subarray_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	_ "gocloud.dev/blob/fileblob"

	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/codec"
	"github.com/arrayfs/nstore/dataset"
	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/subarray"
	"github.com/arrayfs/nstore/types"
)

func newDataset(t *testing.T, shape, chunkShape types.Shape, isZarr bool, fill float64) *dataset.Dataset {
	t.Helper()
	dir := t.TempDir()
	b, err := backend.Open(context.Background(), "file://"+dir, backend.ModeCreateNew)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	h := backend.NewHandle(b, "")
	ds, err := dataset.Create(context.Background(), h, types.Int32, shape, chunkShape, isZarr, codec.RawConfig(), fill)
	require.NoError(t, err)
	return ds
}

func iota32(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i)
	}
	return out
}

func TestWriteReadSubarray_FullArray(t *testing.T) {
	for _, numThreads := range []int{1, 4} {
		for _, isZarr := range []bool{true, false} {
			ds := newDataset(t, types.Shape{6, 5}, types.Shape{4, 3}, isZarr, 0)
			ctx := context.Background()
			want := iota32(30)

			require.NoError(t, subarray.WriteSubarray(ctx, ds, types.Shape{0, 0}, types.Shape{6, 5}, want, numThreads))
			got, err := subarray.ReadSubarray[int32](ctx, ds, types.Shape{0, 0}, types.Shape{6, 5}, numThreads)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}
}

func TestWriteReadSubarray_IrregularROI(t *testing.T) {
	ds := newDataset(t, types.Shape{10, 10}, types.Shape{4, 4}, true, -1)
	ctx := context.Background()

	full := iota32(100)
	require.NoError(t, subarray.WriteSubarray(ctx, ds, types.Shape{0, 0}, types.Shape{10, 10}, full, 2))

	// ROI straddles multiple chunk boundaries and is not chunk-aligned.
	roiBegin := types.Shape{2, 3}
	roiShape := types.Shape{5, 4}
	got, err := subarray.ReadSubarray[int32](ctx, ds, roiBegin, roiShape, 3)
	require.NoError(t, err)

	want := make([]int32, roiShape.Product())
	idx := 0
	for r := 0; r < roiShape[0]; r++ {
		for c := 0; c < roiShape[1]; c++ {
			row := roiBegin[0] + r
			col := roiBegin[1] + c
			want[idx] = full[row*10+col]
			idx++
		}
	}
	require.Equal(t, want, got)
}

func TestWriteSubarray_PartialChunkIsReadModifyWrite(t *testing.T) {
	ds := newDataset(t, types.Shape{4, 4}, types.Shape{4, 4}, true, 0)
	ctx := context.Background()

	base := iota32(16)
	require.NoError(t, subarray.WriteSubarray(ctx, ds, types.Shape{0, 0}, types.Shape{4, 4}, base, 1))

	// Overwrite a single interior cell; the rest of the chunk must survive.
	require.NoError(t, subarray.WriteSubarray(ctx, ds, types.Shape{1, 1}, types.Shape{1, 1}, []int32{777}, 1))

	got, err := subarray.ReadSubarray[int32](ctx, ds, types.Shape{0, 0}, types.Shape{4, 4}, 1)
	require.NoError(t, err)
	want := append([]int32(nil), base...)
	want[1*4+1] = 777
	require.Equal(t, want, got)
}

func TestWriteScalar_FillsROI(t *testing.T) {
	ds := newDataset(t, types.Shape{4, 4}, types.Shape{2, 2}, false, 0)
	ctx := context.Background()

	require.NoError(t, subarray.WriteScalar[int32](ctx, ds, types.Shape{0, 0}, types.Shape{4, 4}, 5, 1))
	got, err := subarray.ReadSubarray[int32](ctx, ds, types.Shape{0, 0}, types.Shape{4, 4}, 1)
	require.NoError(t, err)
	for _, v := range got {
		require.Equal(t, int32(5), v)
	}
}

func TestReadSubarray_OutOfBoundsROI(t *testing.T) {
	ds := newDataset(t, types.Shape{4, 4}, types.Shape{2, 2}, true, 0)
	_, err := subarray.ReadSubarray[int32](context.Background(), ds, types.Shape{0, 0}, types.Shape{5, 4}, 1)
	require.True(t, nstoreerr.Is(err, nstoreerr.ShapeError))
}

func TestReadSubarray_ZeroSizedAxisROI(t *testing.T) {
	ds := newDataset(t, types.Shape{4, 4}, types.Shape{2, 2}, true, 0)
	_, err := subarray.ReadSubarray[int32](context.Background(), ds, types.Shape{0, 0}, types.Shape{0, 4}, 1)
	require.True(t, nstoreerr.Is(err, nstoreerr.ShapeError))
}
