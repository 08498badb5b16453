// Package dataset implements spec §4.6, the per-chunk engine: validating a
// chunk coordinate, testing for the all-fill elision case, running bytes
// through the resolved codec, and flipping N5's big-endian on-disk
// encoding back to the host's native order. It exposes both a byte-level,
// dtype-erased API and (in generic.go) a typed wrapper built on top of it —
// Design Notes §9's "monomorphize the codec inner loop via generics, keep
// the dataset object dtype-erased at the boundary".
package dataset

import (
	"bytes"
	"context"

	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/blocking"
	"github.com/arrayfs/nstore/chunkio"
	"github.com/arrayfs/nstore/codec"
	"github.com/arrayfs/nstore/metadata"
	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/types"
)

// Dataset is an open handle to one chunked array, holding everything
// derived from its metadata that per-chunk operations need: the blocking
// grid and the resolved codec.
type Dataset struct {
	handle   backend.Handle
	meta     *metadata.DatasetMetadata
	blocking *blocking.Blocking
	codec    codec.Codec
}

// Create writes fresh metadata at h and returns the open Dataset. Fails
// with AlreadyExists if a dataset already lives at h (spec §3 lifecycle).
func Create(ctx context.Context, h backend.Handle, dtype types.Dtype, shape, chunkShape types.Shape, isZarr bool, compressor codec.Config, fillValue float64) (*Dataset, error) {
	if !h.Mode().CanCreate() {
		return nil, nstoreerr.Wrapf(nstoreerr.PermissionDenied, "dataset.Create", "mode %q forbids dataset creation", h.Mode())
	}
	if exists, err := h.Exists(ctx); err != nil {
		return nil, err
	} else if exists {
		return nil, nstoreerr.Wrapf(nstoreerr.AlreadyExists, "dataset.Create", "dataset already exists at %q", h.Path())
	}
	m, err := metadata.NewDatasetMetadata(dtype, shape, chunkShape, isZarr, compressor, fillValue)
	if err != nil {
		return nil, err
	}
	if err := metadata.WriteDatasetMetadata(ctx, h, m); err != nil {
		return nil, err
	}
	return open(h, m)
}

// Open reads the metadata already at h. Fails with NotFound if no dataset
// lives there.
func Open(ctx context.Context, h backend.Handle) (*Dataset, error) {
	if exists, err := h.Exists(ctx); err != nil {
		return nil, err
	} else if !exists {
		return nil, nstoreerr.Wrapf(nstoreerr.NotFound, "dataset.Open", "no dataset at %q", h.Path())
	}
	m, err := metadata.ReadDatasetMetadata(ctx, h)
	if err != nil {
		return nil, err
	}
	return open(h, m)
}

func open(h backend.Handle, m *metadata.DatasetMetadata) (*Dataset, error) {
	b, err := blocking.New(m.Shape, m.ChunkShape)
	if err != nil {
		return nil, nstoreerr.New(nstoreerr.ShapeError, "dataset.open", err)
	}
	c, err := codec.New(m.Compressor)
	if err != nil {
		return nil, err
	}
	return &Dataset{handle: h, meta: m, blocking: b, codec: c}, nil
}

func (d *Dataset) Handle() backend.Handle       { return d.handle }
func (d *Dataset) Dtype() types.Dtype           { return d.meta.Dtype }
func (d *Dataset) Shape() types.Shape           { return d.meta.Shape }
func (d *Dataset) ChunkShape() types.Shape      { return d.meta.ChunkShape }
func (d *Dataset) IsZarr() bool                 { return d.meta.IsZarr }
func (d *Dataset) FillValue() float64           { return d.meta.FillValue }
func (d *Dataset) Blocking() *blocking.Blocking { return d.blocking }
func (d *Dataset) Compressor() codec.Config     { return d.meta.Compressor }

func (d *Dataset) fillPattern() []byte { return types.FillPattern(d.meta.Dtype, d.meta.FillValue) }

// nElemsForChunk returns how many elements a non-varlength chunk at coord
// is expected to carry on disk: the full (unbounded) chunk shape for Zarr
// — which always pads boundary chunks out to the declared chunk size — or
// the edge-clipped bounded shape for N5, whose per-chunk header carries
// that bounded shape explicitly (spec §4.3/§4.5).
func (d *Dataset) nElemsForChunk(coord types.Shape) (int, error) {
	if d.meta.IsZarr {
		return d.meta.MaxChunkSize(), nil
	}
	_, bounded, err := d.blocking.BlockBeginAndShape(coord)
	if err != nil {
		return 0, nstoreerr.New(nstoreerr.ShapeError, "dataset.nElemsForChunk", err)
	}
	return bounded.Product(), nil
}

// ReadChunkBytes loads the raw element bytes for the chunk at coord, in
// the host's native byte order (little-endian) regardless of on-disk
// dialect. An absent chunk reads back as the dataset's fill value repeated
// across the chunk's element count — it is not an error (spec §4.6).
func (d *Dataset) ReadChunkBytes(ctx context.Context, coord types.Shape) (data []byte, isVarlen bool, numElements int, err error) {
	if _, err := d.blocking.CoordToID(coord); err != nil {
		return nil, false, 0, nstoreerr.New(nstoreerr.ShapeError, "dataset.ReadChunkBytes", err)
	}

	blob, exists, err := chunkio.Read(ctx, d.handle, coord, d.meta.IsZarr)
	if err != nil {
		return nil, false, 0, err
	}
	if !exists {
		n, err := d.nElemsForChunk(coord)
		if err != nil {
			return nil, false, 0, err
		}
		return fillBuffer(d.fillPattern(), n), false, 0, nil
	}

	if blob.IsVarlen && d.meta.IsZarr {
		return nil, false, 0, nstoreerr.Wrapf(nstoreerr.VarlenError, "dataset.ReadChunkBytes", "variable-length chunk is not valid for a zarr dataset")
	}

	var nElems int
	if blob.IsVarlen {
		nElems = blob.NumElements
	} else if d.meta.IsZarr {
		nElems = d.meta.MaxChunkSize()
	} else {
		nElems = blob.BoundedShape.Product()
	}

	raw, err := d.codec.Decompress(blob.Payload, d.meta.Dtype, nElems)
	if err != nil {
		return nil, false, 0, nstoreerr.New(nstoreerr.CodecError, "dataset.ReadChunkBytes", err)
	}

	if !d.meta.IsZarr && d.meta.Dtype.NeedsByteSwap() {
		types.SwapBytes(raw, d.meta.Dtype)
	}

	return raw, blob.IsVarlen, blob.NumElements, nil
}

// WriteChunkBytes persists element bytes (host-native order) for the
// chunk at coord. A chunk whose contents equal the fill value everywhere
// is elided: any existing blob is removed and nothing is written, per
// spec §4.6's all-fill rule. isVarlen chunks (N5 only) carry numElements
// explicitly since their byte length alone cannot determine element count.
func (d *Dataset) WriteChunkBytes(ctx context.Context, coord types.Shape, data []byte, isVarlen bool, numElements int) error {
	if !d.handle.Mode().CanWrite() && !d.handle.Mode().CanCreate() {
		return nstoreerr.Wrapf(nstoreerr.PermissionDenied, "dataset.WriteChunkBytes", "mode %q forbids writes", d.handle.Mode())
	}
	if _, err := d.blocking.CoordToID(coord); err != nil {
		return nstoreerr.New(nstoreerr.ShapeError, "dataset.WriteChunkBytes", err)
	}
	if isVarlen && d.meta.IsZarr {
		return nstoreerr.Wrapf(nstoreerr.VarlenError, "dataset.WriteChunkBytes", "variable-length chunks are not valid for a zarr dataset")
	}

	_, bounded, err := d.blocking.BlockBeginAndShape(coord)
	if err != nil {
		return nstoreerr.New(nstoreerr.ShapeError, "dataset.WriteChunkBytes", err)
	}

	var nElems int
	switch {
	case isVarlen:
		nElems = numElements
	case d.meta.IsZarr:
		nElems = d.meta.MaxChunkSize()
	default:
		nElems = bounded.Product()
	}

	if !isVarlen && isAllFill(data, d.fillPattern()) {
		return chunkio.Remove(ctx, d.handle, coord, d.meta.IsZarr)
	}

	payload := data
	if !d.meta.IsZarr && d.meta.Dtype.NeedsByteSwap() {
		payload = append([]byte(nil), data...)
		types.SwapBytes(payload, d.meta.Dtype)
	}

	compressed, err := d.codec.Compress(payload, d.meta.Dtype, nElems)
	if err != nil {
		return nstoreerr.New(nstoreerr.CodecError, "dataset.WriteChunkBytes", err)
	}
	return chunkio.Write(ctx, d.handle, coord, d.meta.IsZarr, bounded, isVarlen, numElements, compressed)
}

// RemoveChunk deletes the chunk blob at coord, if present.
func (d *Dataset) RemoveChunk(ctx context.Context, coord types.Shape) error {
	return chunkio.Remove(ctx, d.handle, coord, d.meta.IsZarr)
}

func fillBuffer(pattern []byte, nElems int) []byte {
	if len(pattern) == 0 || nElems == 0 {
		return nil
	}
	out := make([]byte, nElems*len(pattern))
	for i := 0; i < nElems; i++ {
		copy(out[i*len(pattern):], pattern)
	}
	return out
}

func isAllFill(data, pattern []byte) bool {
	if len(pattern) == 0 || len(data) == 0 || len(data)%len(pattern) != 0 {
		return false
	}
	for i := 0; i < len(data); i += len(pattern) {
		if !bytes.Equal(data[i:i+len(pattern)], pattern) {
			return false
		}
	}
	return true
}

