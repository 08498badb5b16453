package dataset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	_ "gocloud.dev/blob/fileblob"

	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/chunkio"
	"github.com/arrayfs/nstore/codec"
	"github.com/arrayfs/nstore/dataset"
	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/types"
)

func openRootHandle(t *testing.T, mode backend.Mode) backend.Handle {
	t.Helper()
	dir := t.TempDir()
	b, err := backend.Open(context.Background(), "file://"+dir, mode)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return backend.NewHandle(b, "")
}

func TestCreateOpen_RoundTrip(t *testing.T) {
	for _, isZarr := range []bool{true, false} {
		h := openRootHandle(t, backend.ModeCreateNew)
		ctx := context.Background()

		ds, err := dataset.Create(ctx, h, types.Int32, types.Shape{4, 4}, types.Shape{3, 3}, isZarr, codec.RawConfig(), 0)
		require.NoError(t, err)
		require.Equal(t, types.Int32, ds.Dtype())
		require.Equal(t, types.Shape{4, 4}, ds.Shape())

		// Creating again at the same handle must fail with AlreadyExists.
		_, err = dataset.Create(ctx, h, types.Int32, types.Shape{4, 4}, types.Shape{3, 3}, isZarr, codec.RawConfig(), 0)
		require.True(t, nstoreerr.Is(err, nstoreerr.AlreadyExists))

		reopened, err := dataset.Open(ctx, h)
		require.NoError(t, err)
		require.Equal(t, ds.ChunkShape(), reopened.ChunkShape())
		require.Equal(t, isZarr, reopened.IsZarr())
	}
}

func TestOpen_MissingDataset(t *testing.T) {
	h := openRootHandle(t, backend.ModeRead)
	_, err := dataset.Open(context.Background(), h)
	require.True(t, nstoreerr.Is(err, nstoreerr.NotFound))
}

func TestWriteReadChunk_Typed(t *testing.T) {
	for _, tc := range []struct {
		name   string
		isZarr bool
		cfg    codec.Config
	}{
		{"zarr-raw", true, codec.RawConfig()},
		{"n5-raw", false, codec.RawConfig()},
		{"zarr-zlib", true, codec.Config{Name: codec.Zlib, Zlib: codec.ZlibOptions{Level: 5, UseZlib: true}}},
		{"n5-gzip", false, codec.Config{Name: codec.Zlib, Zlib: codec.ZlibOptions{Level: 5, UseZlib: false}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := openRootHandle(t, backend.ModeCreateNew)
			ctx := context.Background()
			ds, err := dataset.Create(ctx, h, types.Int32, types.Shape{6, 4}, types.Shape{4, 4}, tc.isZarr, tc.cfg, 0)
			require.NoError(t, err)

			want := []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
			require.NoError(t, dataset.WriteChunk(ctx, ds, types.Shape{0, 0}, want))

			got, err := dataset.ReadChunk[int32](ctx, ds, types.Shape{0, 0})
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestReadChunk_AbsentReturnsFillValue(t *testing.T) {
	h := openRootHandle(t, backend.ModeCreateNew)
	ctx := context.Background()
	ds, err := dataset.Create(ctx, h, types.Float64, types.Shape{6, 4}, types.Shape{4, 4}, true, codec.RawConfig(), 7.5)
	require.NoError(t, err)

	got, err := dataset.ReadChunk[float64](ctx, ds, types.Shape{0, 0})
	require.NoError(t, err)
	for _, v := range got {
		require.Equal(t, 7.5, v)
	}
}

func TestWriteChunk_AllFillElidesBlob(t *testing.T) {
	h := openRootHandle(t, backend.ModeCreateNew)
	ctx := context.Background()
	ds, err := dataset.Create(ctx, h, types.Int32, types.Shape{4, 4}, types.Shape{4, 4}, true, codec.RawConfig(), 0)
	require.NoError(t, err)

	data := make([]int32, 16)
	for i := range data {
		data[i] = 9
	}
	require.NoError(t, dataset.WriteChunk(ctx, ds, types.Shape{0, 0}, data))

	allFill := make([]int32, 16)
	require.NoError(t, dataset.WriteChunk(ctx, ds, types.Shape{0, 0}, allFill))

	_, exists, err := chunkio.Read(ctx, ds.Handle(), types.Shape{0, 0}, ds.IsZarr())
	require.NoError(t, err)
	require.False(t, exists, "an all-fill write must leave no chunk blob")

	got, err := dataset.ReadChunk[int32](ctx, ds, types.Shape{0, 0})
	require.NoError(t, err)
	require.Equal(t, allFill, got)
}

func TestReadChunk_TypeMismatch(t *testing.T) {
	h := openRootHandle(t, backend.ModeCreateNew)
	ctx := context.Background()
	ds, err := dataset.Create(ctx, h, types.Int32, types.Shape{4}, types.Shape{4}, true, codec.RawConfig(), 0)
	require.NoError(t, err)

	_, err = dataset.ReadChunk[float32](ctx, ds, types.Shape{0})
	require.True(t, nstoreerr.Is(err, nstoreerr.TypeError))
}

func TestWriteChunk_RejectsVarlenOnZarr(t *testing.T) {
	h := openRootHandle(t, backend.ModeCreateNew)
	ctx := context.Background()
	ds, err := dataset.Create(ctx, h, types.Int32, types.Shape{4}, types.Shape{4}, true, codec.RawConfig(), 0)
	require.NoError(t, err)

	err = dataset.WriteVarlenChunk(ctx, ds, types.Shape{0}, []byte{1, 2, 3, 4}, 1)
	require.True(t, nstoreerr.Is(err, nstoreerr.VarlenError))
}

func TestEdgeChunk_N5BoundedShape(t *testing.T) {
	h := openRootHandle(t, backend.ModeCreateNew)
	ctx := context.Background()
	// Shape 5 with chunk size 4 leaves a size-1 edge chunk at coord {1}.
	ds, err := dataset.Create(ctx, h, types.Int32, types.Shape{5}, types.Shape{4}, false, codec.RawConfig(), 0)
	require.NoError(t, err)

	edge := []int32{42}
	require.NoError(t, dataset.WriteChunk(ctx, ds, types.Shape{1}, edge))

	got, err := dataset.ReadChunk[int32](ctx, ds, types.Shape{1})
	require.NoError(t, err)
	require.Equal(t, edge, got)
}

func TestEdgeChunk_ZarrPadsToFullShape(t *testing.T) {
	h := openRootHandle(t, backend.ModeCreateNew)
	ctx := context.Background()
	ds, err := dataset.Create(ctx, h, types.Int32, types.Shape{5}, types.Shape{4}, true, codec.RawConfig(), -1)
	require.NoError(t, err)

	// A zarr edge chunk must be written at the full declared chunk size,
	// padded with fill value beyond the logical bound.
	full := []int32{99, -1, -1, -1}
	require.NoError(t, dataset.WriteChunk(ctx, ds, types.Shape{1}, full))

	got, err := dataset.ReadChunk[int32](ctx, ds, types.Shape{1})
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.Equal(t, int32(99), got[0])
}
