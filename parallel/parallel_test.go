package parallel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	_ "gocloud.dev/blob/fileblob"

	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/chunkio"
	"github.com/arrayfs/nstore/codec"
	"github.com/arrayfs/nstore/dataset"
	"github.com/arrayfs/nstore/parallel"
	"github.com/arrayfs/nstore/subarray"
	"github.com/arrayfs/nstore/types"
)

func newDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	dir := t.TempDir()
	b, err := backend.Open(context.Background(), "file://"+dir, backend.ModeCreateNew)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	h := backend.NewHandle(b, "")
	ds, err := dataset.Create(context.Background(), h, types.Int32, types.Shape{8, 8}, types.Shape{4, 4}, true, codec.RawConfig(), 0)
	require.NoError(t, err)
	return ds
}

func TestUnique_AndUniqueWithCounts(t *testing.T) {
	ds := newDataset(t)
	ctx := context.Background()

	data := make([]int32, 64)
	for i := range data {
		data[i] = int32(i % 4) // four distinct values, 16 occurrences each
	}
	require.NoError(t, subarray.WriteSubarray(ctx, ds, types.Shape{0, 0}, types.Shape{8, 8}, data, 2))

	vals, err := parallel.Unique[int32](ctx, ds, 2)
	require.NoError(t, err)
	require.Equal(t, []int32{0, 1, 2, 3}, vals)

	vals2, counts, err := parallel.UniqueWithCounts[int32](ctx, ds, 2)
	require.NoError(t, err)
	require.Equal(t, []int32{0, 1, 2, 3}, vals2)
	for _, c := range counts {
		require.Equal(t, int64(16), c)
	}
}

func TestRemoveTrivialChunks_AnyUniformValue(t *testing.T) {
	ds := newDataset(t)
	ctx := context.Background()

	// {0,0}: real varied data, not uniform, must survive.
	require.NoError(t, dataset.WriteChunk(ctx, ds, types.Shape{0, 0}, []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}))
	// {0,1}: uniformly 7 — not the dataset's fill value (0) at all, which is
	// exactly the case a fill-value-only check would miss.
	require.NoError(t, dataset.WriteChunk(ctx, ds, types.Shape{0, 1}, uniform32(16, 7)))
	// {1,1}: uniformly the fill value, written directly through chunkio to
	// simulate a chunk placed by another tool that never elides all-fill
	// blobs, bypassing dataset.WriteChunk's own elision.
	require.NoError(t, chunkio.Write(ctx, ds.Handle(), types.Shape{1, 1}, ds.IsZarr(), nil, false, 0, types.SliceToBytes(uniform32(16, 0))))

	removed, err := parallel.RemoveTrivialChunks[int32](ctx, ds, 2, false, 0)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	_, exists, err := chunkio.Read(ctx, ds.Handle(), types.Shape{0, 0}, ds.IsZarr())
	require.NoError(t, err)
	require.True(t, exists, "chunk with varied data must survive")
}

func TestRemoveTrivialChunks_SpecificValue(t *testing.T) {
	ds := newDataset(t)
	ctx := context.Background()

	require.NoError(t, dataset.WriteChunk(ctx, ds, types.Shape{0, 0}, uniform32(16, 7)))
	require.NoError(t, dataset.WriteChunk(ctx, ds, types.Shape{0, 1}, uniform32(16, 3)))

	removed, err := parallel.RemoveTrivialChunks[int32](ctx, ds, 2, true, 7)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, exists, err := chunkio.Read(ctx, ds.Handle(), types.Shape{0, 0}, ds.IsZarr())
	require.NoError(t, err)
	require.False(t, exists, "chunk uniformly equal to the requested value must be removed")

	_, exists, err = chunkio.Read(ctx, ds.Handle(), types.Shape{0, 1}, ds.IsZarr())
	require.NoError(t, err)
	require.True(t, exists, "chunk uniformly equal to a different value must survive")
}

func uniform32(n int, v int32) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestRemoveDataset(t *testing.T) {
	ds := newDataset(t)
	ctx := context.Background()
	require.NoError(t, dataset.WriteChunk(ctx, ds, types.Shape{0, 0}, make([]int32, 16)))

	require.NoError(t, parallel.RemoveDataset(ctx, ds))
	exists, err := ds.Handle().Exists(ctx)
	require.NoError(t, err)
	require.False(t, exists)
}
