package dataset

import (
	"context"

	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/types"
)

// ReadChunk is the typed wrapper over ReadChunkBytes: it reinterprets the
// chunk's native-order bytes as []T without copying. T must match the
// dataset's own element type. Reading a variable-length chunk (N5 only)
// through the typed API fails with VarlenError — a caller that wants
// fixed-width elements cannot receive a byte blob of unknown shape; use
// ReadChunkBytes directly for varlen chunks.
func ReadChunk[T types.Elem](ctx context.Context, d *Dataset, coord types.Shape) ([]T, error) {
	if types.DtypeOf[T]() != d.Dtype() {
		return nil, nstoreerr.Wrapf(nstoreerr.TypeError, "dataset.ReadChunk", "element type mismatch: dataset dtype is %v", d.Dtype())
	}
	raw, isVarlen, _, err := d.ReadChunkBytes(ctx, coord)
	if err != nil {
		return nil, err
	}
	if isVarlen {
		return nil, nstoreerr.Wrapf(nstoreerr.VarlenError, "dataset.ReadChunk", "chunk at %v is variable-length; use ReadChunkBytes", coord)
	}
	return types.BytesToSlice[T](raw), nil
}

// WriteChunk is the typed wrapper over WriteChunkBytes. data's length must
// equal the chunk's expected element count (the full declared chunk shape
// for Zarr, the edge-clipped bounded shape for N5); callers building
// subarray writes get this from blocking.BlockBeginAndShape.
func WriteChunk[T types.Elem](ctx context.Context, d *Dataset, coord types.Shape, data []T) error {
	if types.DtypeOf[T]() != d.Dtype() {
		return nstoreerr.Wrapf(nstoreerr.TypeError, "dataset.WriteChunk", "element type mismatch: dataset dtype is %v", d.Dtype())
	}
	return d.WriteChunkBytes(ctx, coord, types.SliceToBytes(data), false, 0)
}

// ReadVarlenChunk reads an N5 variable-length chunk as raw bytes, together
// with the element count recorded in its header. Unlike ReadChunk it does
// not reject variable-length chunks; the bytes are decoded to
// numElements*dtype size and callers interpret them themselves.
func ReadVarlenChunk(ctx context.Context, d *Dataset, coord types.Shape) (data []byte, numElements int, err error) {
	raw, _, numElements, err := d.ReadChunkBytes(ctx, coord)
	if err != nil {
		return nil, 0, err
	}
	return raw, numElements, nil
}

// WriteVarlenChunk writes an N5 variable-length chunk: data is the raw
// byte payload and numElements is the logical element count recorded in
// the chunk header, independent of len(data) (spec §4.5).
func WriteVarlenChunk(ctx context.Context, d *Dataset, coord types.Shape, data []byte, numElements int) error {
	if d.IsZarr() {
		return nstoreerr.Wrapf(nstoreerr.VarlenError, "dataset.WriteVarlenChunk", "variable-length chunks are not valid for a zarr dataset")
	}
	return d.WriteChunkBytes(ctx, coord, data, true, numElements)
}
