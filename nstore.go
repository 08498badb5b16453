// Package nstore is the public entry point: File/Group/Dataset lifecycle,
// typed subarray and chunk I/O, attributes, and the dataset-wide
// utilities, wiring together the backend/metadata/codec/chunkio/dataset/
// subarray/parallel/attrs packages per spec §6.
package nstore

import (
	"context"

	"github.com/arrayfs/nstore/attrs"
	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/dataset"
	"github.com/arrayfs/nstore/metadata"
	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/parallel"
	"github.com/arrayfs/nstore/subarray"
	"github.com/arrayfs/nstore/types"
)

// Group is a node in the Zarr/N5 hierarchy that can hold child groups and
// datasets. File is the root group, opened from a backend URL.
type Group struct {
	handle backend.Handle
	isZarr bool
}

// File is the root of one store.
type File struct {
	Group
}

// Handle exposes the underlying backend.Handle, e.g. for attribute or
// enumeration operations that work on any node.
func (g *Group) Handle() backend.Handle { return g.handle }

// IsZarr reports this file/group's on-disk dialect.
func (g *Group) IsZarr() bool { return g.isZarr }

// CreateFile opens backend urlstr and initializes it as a fresh store
// root in the given dialect. Fails with AlreadyExists if a format marker
// is already present.
func CreateFile(ctx context.Context, urlstr string, isZarr bool) (*File, error) {
	b, err := backend.Open(ctx, urlstr, backend.ModeCreateNew)
	if err != nil {
		return nil, err
	}
	h := backend.NewHandle(b, "")
	if exists, err := h.Exists(ctx); err != nil {
		b.Close()
		return nil, err
	} else if exists {
		b.Close()
		return nil, nstoreerr.Wrapf(nstoreerr.AlreadyExists, "nstore.CreateFile", "a store already exists at %q", urlstr)
	}
	if err := metadata.WriteFileMarker(ctx, h, isZarr); err != nil {
		b.Close()
		return nil, err
	}
	return &File{Group{handle: h, isZarr: isZarr}}, nil
}

// OpenFile opens an existing store root at urlstr under mode, detecting
// its dialect from the format marker already on disk.
func OpenFile(ctx context.Context, urlstr string, mode backend.Mode) (*File, error) {
	b, err := backend.Open(ctx, urlstr, mode)
	if err != nil {
		return nil, err
	}
	h := backend.NewHandle(b, "")
	isZarr, err := h.IsZarrFile(ctx)
	if err != nil {
		b.Close()
		return nil, err
	}
	return &File{Group{handle: h, isZarr: isZarr}}, nil
}

// Close releases the file's backend connection.
func (f *File) Close() error { return f.handle.Backend().Close() }

// CreateGroup creates a child group named key beneath g.
func (g *Group) CreateGroup(ctx context.Context, key string) (*Group, error) {
	child := g.handle.Child(key)
	if exists, err := child.Exists(ctx); err != nil {
		return nil, err
	} else if exists {
		return nil, nstoreerr.Wrapf(nstoreerr.AlreadyExists, "nstore.CreateGroup", "a group or dataset already exists at %q", child.Path())
	}
	if err := metadata.WriteGroupMarker(ctx, child, g.isZarr); err != nil {
		return nil, err
	}
	return &Group{handle: child, isZarr: g.isZarr}, nil
}

// OpenGroup opens the existing child group named key beneath g.
func (g *Group) OpenGroup(ctx context.Context, key string) (*Group, error) {
	child := g.handle.Child(key)
	exists, err := child.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nstoreerr.Wrapf(nstoreerr.NotFound, "nstore.OpenGroup", "no group at %q", child.Path())
	}
	return &Group{handle: child, isZarr: g.isZarr}, nil
}

// CreateDataset creates a new dataset named key beneath g, in g's dialect.
func (g *Group) CreateDataset(ctx context.Context, key string, opts dataset.Options) (*dataset.Dataset, error) {
	child := g.handle.Child(key)
	return dataset.Create(ctx, child, opts.Dtype, opts.Shape, opts.ChunkShape, g.isZarr, opts.Compressor, opts.FillValue)
}

// OpenDataset opens the existing dataset named key beneath g.
func (g *Group) OpenDataset(ctx context.Context, key string) (*dataset.Dataset, error) {
	return dataset.Open(ctx, g.handle.Child(key))
}

// ReadSubarray reads the ROI [offset, offset+shape) of ds into out, which
// must already be sized to shape.Product().
func ReadSubarray[T types.Elem](ctx context.Context, ds *dataset.Dataset, out []T, shape, offset types.Shape, threads int) error {
	got, err := subarray.ReadSubarray[T](ctx, ds, offset, shape, threads)
	if err != nil {
		return err
	}
	if len(out) != len(got) {
		return nstoreerr.Wrapf(nstoreerr.ShapeError, "nstore.ReadSubarray", "out has length %d, want %d", len(out), len(got))
	}
	copy(out, got)
	return nil
}

// WriteSubarray writes in (shaped shape, C-order) into the ROI
// [offset, offset+shape) of ds.
func WriteSubarray[T types.Elem](ctx context.Context, ds *dataset.Dataset, in []T, shape, offset types.Shape, threads int) error {
	return subarray.WriteSubarray(ctx, ds, offset, shape, in, threads)
}

// WriteScalar fills the ROI [offset, offset+shape) of ds with value.
func WriteScalar[T types.Elem](ctx context.Context, ds *dataset.Dataset, offset, shape types.Shape, value T, threads int) error {
	return subarray.WriteScalar(ctx, ds, offset, shape, value, threads)
}

// ReadChunk reads the single chunk at coord into out. isVarlen reports
// whether the on-disk chunk is N5 variable-length; when true, out is left
// untouched and the caller should fall back to dataset.ReadVarlenChunk.
func ReadChunk[T types.Elem](ctx context.Context, ds *dataset.Dataset, coord types.Shape, out []T) (isVarlen bool, err error) {
	if types.DtypeOf[T]() != ds.Dtype() {
		return false, nstoreerr.Wrapf(nstoreerr.TypeError, "nstore.ReadChunk", "element type mismatch: dataset dtype is %v", ds.Dtype())
	}
	raw, isVarlen, _, err := ds.ReadChunkBytes(ctx, coord)
	if err != nil {
		return false, err
	}
	if isVarlen {
		return true, nil
	}
	typed := types.BytesToSlice[T](raw)
	if len(out) != len(typed) {
		return false, nstoreerr.Wrapf(nstoreerr.ShapeError, "nstore.ReadChunk", "out has length %d, want %d", len(out), len(typed))
	}
	copy(out, typed)
	return false, nil
}

// WriteChunk writes the single chunk at coord from in. isVarlen (N5 only)
// carries varSize, the logical element count the chunk header should
// record independent of len(in).
func WriteChunk[T types.Elem](ctx context.Context, ds *dataset.Dataset, coord types.Shape, in []T, isVarlen bool, varSize int) error {
	if isVarlen {
		return dataset.WriteVarlenChunk(ctx, ds, coord, types.SliceToBytes(in), varSize)
	}
	return dataset.WriteChunk(ctx, ds, coord, in)
}

// ReadAttributes reads the JSON attribute set at h.
func ReadAttributes(ctx context.Context, h backend.Handle) (map[string]any, error) {
	isZarr, err := h.IsZarr(ctx)
	if err != nil {
		return nil, err
	}
	return attrs.Read(ctx, h, isZarr)
}

// WriteAttributes merges attrs into the existing attribute set at h.
func WriteAttributes(ctx context.Context, h backend.Handle, attributes map[string]any) error {
	isZarr, err := h.IsZarr(ctx)
	if err != nil {
		return err
	}
	return attrs.Write(ctx, h, isZarr, attributes)
}

// RemoveAttribute deletes key from the attribute set at h.
func RemoveAttribute(ctx context.Context, h backend.Handle, key string) error {
	isZarr, err := h.IsZarr(ctx)
	if err != nil {
		return err
	}
	return attrs.Remove(ctx, h, isZarr, key)
}

// RemoveDataset deletes ds entirely (chunks and metadata).
func RemoveDataset(ctx context.Context, ds *dataset.Dataset, threads int) error {
	return parallel.RemoveDataset(ctx, ds)
}

// RemoveTrivialChunks deletes every on-disk chunk of ds whose distinct
// element-value set has size 1 (spec §4.9), not just chunks uniformly equal
// to the dataset's fill value — a chunk written by another tool can be
// uniformly some other background value. value is optional: pass nil to
// remove every such uniform chunk regardless of what its value is, or a
// concrete value of the dataset's element type (e.g. int32(7)) to remove
// only chunks uniformly equal to that value. Either way value's concrete
// type (or ds.Dtype() when nil) selects the generic instantiation to
// dispatch to, since this entry point is dtype-erased at the boundary like
// the rest of the public API (Design Notes §9).
func RemoveTrivialChunks(ctx context.Context, ds *dataset.Dataset, threads int, value any) (int, error) {
	if value == nil {
		switch ds.Dtype() {
		case types.Int8:
			return parallel.RemoveTrivialChunks[int8](ctx, ds, threads, false, 0)
		case types.Int16:
			return parallel.RemoveTrivialChunks[int16](ctx, ds, threads, false, 0)
		case types.Int32:
			return parallel.RemoveTrivialChunks[int32](ctx, ds, threads, false, 0)
		case types.Int64:
			return parallel.RemoveTrivialChunks[int64](ctx, ds, threads, false, 0)
		case types.Uint8:
			return parallel.RemoveTrivialChunks[uint8](ctx, ds, threads, false, 0)
		case types.Uint16:
			return parallel.RemoveTrivialChunks[uint16](ctx, ds, threads, false, 0)
		case types.Uint32:
			return parallel.RemoveTrivialChunks[uint32](ctx, ds, threads, false, 0)
		case types.Uint64:
			return parallel.RemoveTrivialChunks[uint64](ctx, ds, threads, false, 0)
		case types.Float32:
			return parallel.RemoveTrivialChunks[float32](ctx, ds, threads, false, 0)
		case types.Float64:
			return parallel.RemoveTrivialChunks[float64](ctx, ds, threads, false, 0)
		default:
			return 0, nstoreerr.Wrapf(nstoreerr.TypeError, "nstore.RemoveTrivialChunks", "unsupported dataset element type %v", ds.Dtype())
		}
	}
	switch v := value.(type) {
	case int8:
		return parallel.RemoveTrivialChunks(ctx, ds, threads, true, v)
	case int16:
		return parallel.RemoveTrivialChunks(ctx, ds, threads, true, v)
	case int32:
		return parallel.RemoveTrivialChunks(ctx, ds, threads, true, v)
	case int64:
		return parallel.RemoveTrivialChunks(ctx, ds, threads, true, v)
	case uint8:
		return parallel.RemoveTrivialChunks(ctx, ds, threads, true, v)
	case uint16:
		return parallel.RemoveTrivialChunks(ctx, ds, threads, true, v)
	case uint32:
		return parallel.RemoveTrivialChunks(ctx, ds, threads, true, v)
	case uint64:
		return parallel.RemoveTrivialChunks(ctx, ds, threads, true, v)
	case float32:
		return parallel.RemoveTrivialChunks(ctx, ds, threads, true, v)
	case float64:
		return parallel.RemoveTrivialChunks(ctx, ds, threads, true, v)
	default:
		return 0, nstoreerr.Wrapf(nstoreerr.TypeError, "nstore.RemoveTrivialChunks", "unsupported element type %T", value)
	}
}

// Unique returns the distinct element values across every chunk of ds.
func Unique[T types.Elem](ctx context.Context, ds *dataset.Dataset, threads int) (map[T]struct{}, error) {
	vals, err := parallel.Unique[T](ctx, ds, threads)
	if err != nil {
		return nil, err
	}
	out := make(map[T]struct{}, len(vals))
	for _, v := range vals {
		out[v] = struct{}{}
	}
	return out, nil
}

// UniqueWithCounts returns, for each distinct element value across every
// chunk of ds, how many times it occurs.
func UniqueWithCounts[T types.Elem](ctx context.Context, ds *dataset.Dataset, threads int) (map[T]int64, error) {
	vals, counts, err := parallel.UniqueWithCounts[T](ctx, ds, threads)
	if err != nil {
		return nil, err
	}
	out := make(map[T]int64, len(vals))
	for i, v := range vals {
		out[v] = counts[i]
	}
	return out, nil
}
