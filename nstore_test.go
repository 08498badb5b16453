package nstore_test

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "gocloud.dev/blob/fileblob"

	"github.com/arrayfs/nstore"
	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/codec"
	"github.com/arrayfs/nstore/dataset"
	"github.com/arrayfs/nstore/subarray"
	"github.com/arrayfs/nstore/types"
)

func newFile(t *testing.T, isZarr bool) *nstore.File {
	t.Helper()
	dir := t.TempDir()
	f, err := nstore.CreateFile(context.Background(), "file://"+dir, isZarr)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// Scenario 1: Zarr raw i4, shape [100,100,100], chunks [10,10,10], fill
// 42. Write a [20,20,20] block of 7s at offset [0,0,0]. Read back
// [40,40,40] at [0,0,0]. Expect: 7 inside [0,20)^3, 42 outside.
func TestScenario_ZarrRawEdgeFill(t *testing.T) {
	f := newFile(t, true)
	ctx := context.Background()
	ds, err := f.CreateDataset(ctx, "vol", dataset.Options{
		Dtype:      types.Int32,
		Shape:      types.Shape{100, 100, 100},
		ChunkShape: types.Shape{10, 10, 10},
		Compressor: codec.RawConfig(),
		FillValue:  42,
	})
	require.NoError(t, err)

	block := make([]int32, 20*20*20)
	for i := range block {
		block[i] = 7
	}
	require.NoError(t, subarray.WriteSubarray(ctx, ds, types.Shape{0, 0, 0}, types.Shape{20, 20, 20}, block, 4))

	got, err := subarray.ReadSubarray[int32](ctx, ds, types.Shape{0, 0, 0}, types.Shape{40, 40, 40}, 4)
	require.NoError(t, err)

	strides := types.Shape{40, 40, 40}.Strides()
	for z := 0; z < 40; z++ {
		for y := 0; y < 40; y++ {
			for x := 0; x < 40; x++ {
				want := int32(42)
				if z < 20 && y < 20 && x < 20 {
					want = 7
				}
				idx := z*strides[0] + y*strides[1] + x*strides[2]
				require.Equalf(t, want, got[idx], "at (%d,%d,%d)", z, y, x)
			}
		}
	}
}

// Scenario 2: N5 gzip f8, shape [100,100,100], chunks [10,10,10], level
// 5, fill 0. Write the full array of pi. Read arbitrary sub-ROI. Expect:
// all pi.
func TestScenario_N5GzipFullArrayPi(t *testing.T) {
	f := newFile(t, false)
	ctx := context.Background()
	ds, err := f.CreateDataset(ctx, "vol", dataset.Options{
		Dtype:      types.Float64,
		Shape:      types.Shape{100, 100, 100},
		ChunkShape: types.Shape{10, 10, 10},
		Compressor: codec.Config{Name: codec.Zlib, Zlib: codec.ZlibOptions{Level: 5, UseZlib: false}},
	})
	require.NoError(t, err)

	full := make([]float64, 100*100*100)
	for i := range full {
		full[i] = math.Pi
	}
	require.NoError(t, subarray.WriteSubarray(ctx, ds, types.Shape{0, 0, 0}, types.Shape{100, 100, 100}, full, 4))

	got, err := subarray.ReadSubarray[float64](ctx, ds, types.Shape{13, 27, 41}, types.Shape{30, 17, 22}, 4)
	require.NoError(t, err)
	for _, v := range got {
		require.Equal(t, math.Pi, v)
	}
}

// Scenario 3: Zarr blosc (lz4, level 5, shuffle 1) u2, irregular chunks
// [23,17,11], shape [100,100,100]. 25 random ROIs (which may overlap),
// each written and then read back before the next one is written.
// Expect: each ROI reads back exactly what was written.
func TestScenario_ZarrBloscIrregularChunksRandomROI(t *testing.T) {
	f := newFile(t, true)
	ctx := context.Background()
	ds, err := f.CreateDataset(ctx, "vol", dataset.Options{
		Dtype:      types.Uint16,
		Shape:      types.Shape{100, 100, 100},
		ChunkShape: types.Shape{23, 17, 11},
		Compressor: codec.Config{Name: codec.Blosc, Blosc: codec.BloscOptions{Cname: "lz4", Clevel: 5, Shuffle: 1}},
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 25; i++ {
		offset := types.Shape{rng.Intn(70), rng.Intn(70), rng.Intn(70)}
		shape := types.Shape{1 + rng.Intn(30), 1 + rng.Intn(30), 1 + rng.Intn(30)}
		for d := 0; d < 3; d++ {
			if offset[d]+shape[d] > 100 {
				shape[d] = 100 - offset[d]
			}
		}
		n := shape.Product()
		data := make([]uint16, n)
		for j := range data {
			data[j] = uint16(i*1000 + j%2000)
		}
		require.NoError(t, subarray.WriteSubarray(ctx, ds, offset, shape, data, 2))
		got, err := subarray.ReadSubarray[uint16](ctx, ds, offset, shape, 2)
		require.NoError(t, err)
		require.Equalf(t, data, got, "roi #%d offset=%v shape=%v", i, offset, shape)
	}
}

// Scenario 4: N5 raw i1, shape [7,5,3], chunks [4,4,4]. Write all zeros,
// then read. Expect: no chunk files exist on disk (trivial-chunk
// elision); read returns zeros.
func TestScenario_N5RawTrivialChunkElision(t *testing.T) {
	dir := t.TempDir()
	f, err := nstore.CreateFile(context.Background(), "file://"+dir, false)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	ctx := context.Background()

	ds, err := f.CreateDataset(ctx, "vol", dataset.Options{
		Dtype:      types.Int8,
		Shape:      types.Shape{7, 5, 3},
		ChunkShape: types.Shape{4, 4, 4},
		Compressor: codec.RawConfig(),
	})
	require.NoError(t, err)

	zeros := make([]int8, 7*5*3)
	require.NoError(t, subarray.WriteSubarray(ctx, ds, types.Shape{0, 0, 0}, types.Shape{7, 5, 3}, zeros, 1))

	got, err := subarray.ReadSubarray[int8](ctx, ds, types.Shape{0, 0, 0}, types.Shape{7, 5, 3}, 1)
	require.NoError(t, err)
	require.Equal(t, zeros, got)

	// No chunk file should exist anywhere under the dataset directory
	// beyond the metadata file itself.
	var dataFiles int
	err = filepath.Walk(filepath.Join(dir, "vol"), func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if filepath.Base(path) != "attributes.json" {
			dataFiles++
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, dataFiles)
}

// Scenario 5: Zarr zlib f4, write then open a second handle and read.
// The compressor field in .zarray is {"id":"zlib","level":5}; data
// round-trips.
func TestScenario_ZarrZlibReopenSecondHandle(t *testing.T) {
	dir := t.TempDir()
	f, err := nstore.CreateFile(context.Background(), "file://"+dir, true)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	ctx := context.Background()

	ds, err := f.CreateDataset(ctx, "vol", dataset.Options{
		Dtype:      types.Float32,
		Shape:      types.Shape{8, 8},
		ChunkShape: types.Shape{4, 4},
		Compressor: codec.Config{Name: codec.Zlib, Zlib: codec.ZlibOptions{Level: 5, UseZlib: true}},
	})
	require.NoError(t, err)

	data := make([]float32, 64)
	for i := range data {
		data[i] = float32(i) * 0.5
	}
	require.NoError(t, subarray.WriteSubarray(ctx, ds, types.Shape{0, 0}, types.Shape{8, 8}, data, 1))

	raw, err := os.ReadFile(filepath.Join(dir, "vol", ".zarray"))
	require.NoError(t, err)
	var j map[string]any
	require.NoError(t, json.Unmarshal(raw, &j))
	compressor := j["compressor"].(map[string]any)
	require.Equal(t, "zlib", compressor["id"])
	require.Equal(t, float64(5), compressor["level"])

	f2, err := nstore.OpenFile(context.Background(), "file://"+dir, backend.ModeRead)
	require.NoError(t, err)
	defer f2.Close()
	ds2, err := f2.OpenDataset(ctx, "vol")
	require.NoError(t, err)

	got, err := subarray.ReadSubarray[float32](ctx, ds2, types.Shape{0, 0}, types.Shape{8, 8}, 1)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

// Scenario 6: N5 u8, small array where chunk payload byte length <= 22.
// Gzip-configured; chunk is framed as zlib (small-input exception).
// Another tool reading N5 must still decode; the test reads back and
// compares.
func TestScenario_N5SmallInputZlibFramingException(t *testing.T) {
	f := newFile(t, false)
	ctx := context.Background()
	ds, err := f.CreateDataset(ctx, "vol", dataset.Options{
		Dtype:      types.Uint8,
		Shape:      types.Shape{4, 4},
		ChunkShape: types.Shape{4, 4},
		Compressor: codec.Config{Name: codec.Zlib, Zlib: codec.ZlibOptions{Level: 5, UseZlib: false}},
	})
	require.NoError(t, err)

	// 16 bytes of uint8 <= the 22-byte small-input threshold.
	data := []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	require.NoError(t, subarray.WriteSubarray(ctx, ds, types.Shape{0, 0}, types.Shape{4, 4}, data, 1))

	got, err := subarray.ReadSubarray[uint8](ctx, ds, types.Shape{0, 0}, types.Shape{4, 4}, 1)
	require.NoError(t, err)
	require.Equal(t, data, got)
}
