// Package subarray implements spec §4.7: decomposing a region of interest
// (ROI) into the chunks it overlaps, copying between chunk-local and
// ROI-local buffers, and the read-modify-write rule for chunks a write
// only partially covers. Multiple chunks are processed concurrently
// through a bounded worker pool; since each goroutine owns a distinct,
// non-overlapping chunk coordinate, no synchronization is needed between
// them (callers remain responsible for not issuing two concurrent calls
// over overlapping ROIs, per spec §4.7).
package subarray

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/arrayfs/nstore/dataset"
	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/types"
)

// ReadSubarray reads the ROI [roiBegin, roiBegin+roiShape) into a freshly
// allocated, roiShape-shaped, C-order buffer. numThreads bounds how many
// chunks are decoded concurrently; numThreads == 1 decodes one chunk at a
// time and numThreads <= 0 sets no bound.
func ReadSubarray[T types.Elem](ctx context.Context, d *dataset.Dataset, roiBegin, roiShape types.Shape, numThreads int) ([]T, error) {
	if types.DtypeOf[T]() != d.Dtype() {
		return nil, nstoreerr.Wrapf(nstoreerr.TypeError, "subarray.ReadSubarray", "element type mismatch: dataset dtype is %v", d.Dtype())
	}
	if err := validateROI(d.Shape(), roiBegin, roiShape); err != nil {
		return nil, err
	}

	out := make([]T, roiShape.Product())
	blocks, err := d.Blocking().BlocksOverlappingRoi(roiBegin, roiShape)
	if err != nil {
		return nil, nstoreerr.New(nstoreerr.ShapeError, "subarray.ReadSubarray", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if numThreads > 0 {
		g.SetLimit(numThreads)
	}
	for _, coord := range blocks {
		coord := coord
		g.Go(func() error {
			ov, err := d.Blocking().CoordinatesInRoi(coord, roiBegin, roiShape)
			if err != nil {
				return nstoreerr.New(nstoreerr.ShapeError, "subarray.ReadSubarray", err)
			}
			if ov.Shape.Product() == 0 {
				return nil
			}
			chunkData, err := dataset.ReadChunk[T](gctx, d, coord)
			if err != nil {
				return err
			}
			copyBlock(out, roiShape, ov.OffsetInRequest, chunkData, chunkShapeFor(d, coord), ov.OffsetInChunk, ov.Shape)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteSubarray writes data (roiShape-shaped, C-order) into the ROI
// [roiBegin, roiBegin+roiShape). A chunk the ROI covers completely is
// written directly; a chunk the ROI only partially covers is read,
// merged, and written back whole (spec §4.7's read-modify-write rule).
func WriteSubarray[T types.Elem](ctx context.Context, d *dataset.Dataset, roiBegin, roiShape types.Shape, data []T, numThreads int) error {
	if types.DtypeOf[T]() != d.Dtype() {
		return nstoreerr.Wrapf(nstoreerr.TypeError, "subarray.WriteSubarray", "element type mismatch: dataset dtype is %v", d.Dtype())
	}
	if err := validateROI(d.Shape(), roiBegin, roiShape); err != nil {
		return err
	}
	if len(data) != roiShape.Product() {
		return nstoreerr.Wrapf(nstoreerr.ShapeError, "subarray.WriteSubarray", "data length %d does not match roi element count %d", len(data), roiShape.Product())
	}

	blocks, err := d.Blocking().BlocksOverlappingRoi(roiBegin, roiShape)
	if err != nil {
		return nstoreerr.New(nstoreerr.ShapeError, "subarray.WriteSubarray", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if numThreads > 0 {
		g.SetLimit(numThreads)
	}
	for _, coord := range blocks {
		coord := coord
		g.Go(func() error {
			return writeOneChunk(gctx, d, coord, roiBegin, roiShape, data)
		})
	}
	return g.Wait()
}

// WriteScalar fills the ROI with a single repeated value.
func WriteScalar[T types.Elem](ctx context.Context, d *dataset.Dataset, roiBegin, roiShape types.Shape, value T, numThreads int) error {
	data := make([]T, roiShape.Product())
	for i := range data {
		data[i] = value
	}
	return WriteSubarray(ctx, d, roiBegin, roiShape, data, numThreads)
}

func writeOneChunk[T types.Elem](ctx context.Context, d *dataset.Dataset, coord, roiBegin, roiShape types.Shape, data []T) error {
	ov, err := d.Blocking().CoordinatesInRoi(coord, roiBegin, roiShape)
	if err != nil {
		return nstoreerr.New(nstoreerr.ShapeError, "subarray.writeOneChunk", err)
	}
	if ov.Shape.Product() == 0 {
		return nil
	}
	chunkShape := chunkShapeFor(d, coord)

	if ov.CompleteOverlap && ov.Shape.Product() == chunkShape.Product() {
		full := make([]T, chunkShape.Product())
		zeroOffset := make(types.Shape, len(chunkShape))
		copyBlock(full, chunkShape, zeroOffset, data, roiShape, ov.OffsetInRequest, ov.Shape)
		return dataset.WriteChunk(ctx, d, coord, full)
	}

	existing, err := dataset.ReadChunk[T](ctx, d, coord)
	if err != nil {
		return err
	}
	merged := make([]T, len(existing))
	copy(merged, existing)
	copyBlock(merged, chunkShape, ov.OffsetInChunk, data, roiShape, ov.OffsetInRequest, ov.Shape)
	return dataset.WriteChunk(ctx, d, coord, merged)
}

// chunkShapeFor returns the shape a chunk's typed buffer actually carries:
// the full declared chunk shape for Zarr (always padded), or the
// edge-clipped bounded shape for N5.
func chunkShapeFor(d *dataset.Dataset, coord types.Shape) types.Shape {
	if d.IsZarr() {
		return d.ChunkShape()
	}
	_, bounded, err := d.Blocking().BlockBeginAndShape(coord)
	if err != nil {
		// coord was already validated by BlocksOverlappingRoi; unreachable.
		return d.ChunkShape()
	}
	return bounded
}

func validateROI(shape, roiBegin, roiShape types.Shape) error {
	if len(roiBegin) != len(shape) || len(roiShape) != len(shape) {
		return nstoreerr.Wrapf(nstoreerr.ShapeError, "subarray.validateROI", "roi dimensionality mismatch")
	}
	if err := roiShape.Validate(); err != nil {
		return nstoreerr.New(nstoreerr.ShapeError, "subarray.validateROI", err)
	}
	for d := range shape {
		if roiBegin[d] < 0 || roiBegin[d]+roiShape[d] > shape[d] {
			return nstoreerr.Wrapf(nstoreerr.ShapeError, "subarray.validateROI", "roi axis %d [%d,%d) out of bounds [0,%d)", d, roiBegin[d], roiBegin[d]+roiShape[d], shape[d])
		}
	}
	return nil
}
