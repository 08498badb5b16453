// Package blocking maps between linear chunk ids and chunk coordinates, and
// answers the "which chunks overlap this ROI" and "what part of this chunk
// overlaps this ROI" questions the subarray engine needs. It is pure
// arithmetic over shapes; see spec §4.1.
package blocking

import (
	"fmt"

	"github.com/arrayfs/nstore/types"
)

// Blocking precomputes the chunk grid for an array shape S and default
// chunk shape C (both length N, chunkShape already clamped to shape).
type Blocking struct {
	shape        types.Shape
	chunkShape   types.Shape
	blocksPerDim types.Shape
	numBlocks    int
	blockStrides types.Shape
}

// New builds a Blocking for the given array shape and default chunk shape.
func New(shape, chunkShape types.Shape) (*Blocking, error) {
	if len(shape) != len(chunkShape) {
		return nil, fmt.Errorf("blocking: dimension mismatch shape=%d chunkShape=%d", len(shape), len(chunkShape))
	}
	blocksPerDim := make(types.Shape, len(shape))
	numBlocks := 1
	for d := range shape {
		blocksPerDim[d] = (shape[d] + chunkShape[d] - 1) / chunkShape[d]
		numBlocks *= blocksPerDim[d]
	}
	strides := blocksPerDim.Strides()
	return &Blocking{
		shape:        shape,
		chunkShape:   chunkShape,
		blocksPerDim: blocksPerDim,
		numBlocks:    numBlocks,
		blockStrides: strides,
	}, nil
}

func (b *Blocking) Shape() types.Shape        { return b.shape }
func (b *Blocking) ChunkShape() types.Shape   { return b.chunkShape }
func (b *Blocking) BlocksPerDim() types.Shape { return b.blocksPerDim }
func (b *Blocking) NumBlocks() int            { return b.numBlocks }

// IDToCoord decodes a linear chunk id into a per-axis coordinate, standard
// row-major (C-order) decode.
func (b *Blocking) IDToCoord(id int) (types.Shape, error) {
	if id < 0 || id >= b.numBlocks {
		return nil, fmt.Errorf("blocking: chunk id %d out of range [0,%d)", id, b.numBlocks)
	}
	coord := make(types.Shape, len(b.shape))
	rem := id
	for d := range b.shape {
		coord[d] = rem / b.blockStrides[d]
		rem -= coord[d] * b.blockStrides[d]
	}
	return coord, nil
}

// CoordToID encodes a chunk coordinate into its linear id.
func (b *Blocking) CoordToID(coord types.Shape) (int, error) {
	if len(coord) != len(b.shape) {
		return 0, fmt.Errorf("blocking: coordinate dimension mismatch")
	}
	id := 0
	for d := range coord {
		if coord[d] < 0 || coord[d] >= b.blocksPerDim[d] {
			return 0, fmt.Errorf("blocking: chunk coordinate %v out of range at axis %d", coord, d)
		}
		id += coord[d] * b.blockStrides[d]
	}
	return id, nil
}

// BlockBeginAndShape returns the global offset of the chunk's first
// element and its bounded (edge-clipped) shape.
func (b *Blocking) BlockBeginAndShape(coord types.Shape) (begin, boundedShape types.Shape, err error) {
	if len(coord) != len(b.shape) {
		return nil, nil, fmt.Errorf("blocking: coordinate dimension mismatch")
	}
	begin = make(types.Shape, len(coord))
	boundedShape = make(types.Shape, len(coord))
	for d := range coord {
		begin[d] = coord[d] * b.chunkShape[d]
		remaining := b.shape[d] - begin[d]
		if remaining < b.chunkShape[d] {
			boundedShape[d] = remaining
		} else {
			boundedShape[d] = b.chunkShape[d]
		}
	}
	return begin, boundedShape, nil
}

// BlocksOverlappingRoi returns every chunk coordinate whose extent
// intersects [roiBegin, roiBegin+roiShape).
func (b *Blocking) BlocksOverlappingRoi(roiBegin, roiShape types.Shape) ([]types.Shape, error) {
	if len(roiBegin) != len(b.shape) || len(roiShape) != len(b.shape) {
		return nil, fmt.Errorf("blocking: ROI dimension mismatch")
	}
	lo := make(types.Shape, len(b.shape))
	hi := make(types.Shape, len(b.shape))
	for d := range b.shape {
		lo[d] = roiBegin[d] / b.chunkShape[d]
		hi[d] = (roiBegin[d] + roiShape[d] - 1) / b.chunkShape[d]
	}

	if len(b.shape) == 0 {
		return []types.Shape{{}}, nil
	}

	var out []types.Shape
	coord := make(types.Shape, len(b.shape))
	copy(coord, lo)
	for {
		cp := make(types.Shape, len(coord))
		copy(cp, coord)
		out = append(out, cp)

		d := len(coord) - 1
		for ; d >= 0; d-- {
			coord[d]++
			if coord[d] <= hi[d] {
				break
			}
			coord[d] = lo[d]
		}
		if d < 0 {
			break
		}
	}
	return out, nil
}

// Overlap describes how a chunk intersects an ROI.
type Overlap struct {
	OffsetInRequest types.Shape // offset of the intersection within the ROI
	OffsetInChunk   types.Shape // offset of the intersection within the chunk
	Shape           types.Shape // extent of the intersection
	CompleteOverlap bool        // true iff the intersection equals the block's default (unbounded) shape
}

// CoordinatesInRoi intersects the block at blockCoord with the ROI
// [roiBegin, roiBegin+roiShape) and reports the offsets needed to copy
// between the two buffers.
func (b *Blocking) CoordinatesInRoi(blockCoord, roiBegin, roiShape types.Shape) (*Overlap, error) {
	begin, bounded, err := b.BlockBeginAndShape(blockCoord)
	if err != nil {
		return nil, err
	}
	n := len(b.shape)
	offsetInRequest := make(types.Shape, n)
	offsetInChunk := make(types.Shape, n)
	shape := make(types.Shape, n)
	complete := true
	for d := 0; d < n; d++ {
		blockEnd := begin[d] + bounded[d]
		reqBegin := roiBegin[d]
		reqEnd := roiBegin[d] + roiShape[d]

		start := max(begin[d], reqBegin)
		end := min(blockEnd, reqEnd)
		if start >= end {
			shape[d] = 0
			continue
		}
		shape[d] = end - start
		offsetInChunk[d] = start - begin[d]
		offsetInRequest[d] = start - reqBegin
		if shape[d] != b.chunkShape[d] {
			complete = false
		}
	}
	return &Overlap{
		OffsetInRequest: offsetInRequest,
		OffsetInChunk:   offsetInChunk,
		Shape:           shape,
		CompleteOverlap: complete,
	}, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
