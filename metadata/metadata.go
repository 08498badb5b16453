// Package metadata implements spec §4.3: parsing and emitting Zarr
// ".zarray"/".zgroup" and N5 "attributes.json", including the N5 axis-order
// reversal. It is the single place the core reasons about F-order vs
// C-order (Design Notes §9: "centralize the F<->C reversal in the metadata
// codec").
package metadata

import (
	"github.com/arrayfs/nstore/codec"
	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/types"
)

// DatasetMetadata is the dialect-agnostic, always-C-order view of a
// dataset's persisted metadata (spec §3 "Dataset metadata").
type DatasetMetadata struct {
	Dtype      types.Dtype
	Shape      types.Shape
	ChunkShape types.Shape
	IsZarr     bool
	Compressor codec.Config
	FillValue  float64
}

// NewDatasetMetadata validates and constructs metadata for a new dataset,
// clamping the chunk shape to the array shape per spec §3.
func NewDatasetMetadata(dtype types.Dtype, shape, chunkShape types.Shape, isZarr bool, compressor codec.Config, fillValue float64) (*DatasetMetadata, error) {
	if len(shape) != len(chunkShape) {
		return nil, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.NewDatasetMetadata", "dim(shape)=%d != dim(chunkShape)=%d", len(shape), len(chunkShape))
	}
	if err := shape.Validate(); err != nil {
		return nil, nstoreerr.New(nstoreerr.ShapeError, "metadata.NewDatasetMetadata", err)
	}
	clamped := types.ClampChunkShape(shape, chunkShape)
	if err := clamped.Validate(); err != nil {
		return nil, nstoreerr.New(nstoreerr.ShapeError, "metadata.NewDatasetMetadata", err)
	}
	if isZarr && compressor.Name == codec.Xz {
		return nil, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.NewDatasetMetadata", "xz is not a valid zarr compressor id")
	}
	return &DatasetMetadata{
		Dtype:      dtype,
		Shape:      shape.Clone(),
		ChunkShape: clamped,
		IsZarr:     isZarr,
		Compressor: compressor,
		FillValue:  fillValue,
	}, nil
}

// MaxChunkSize is the element count of the (unbounded) default chunk
// shape — spec's "maxChunkSize".
func (m *DatasetMetadata) MaxChunkSize() int { return m.ChunkShape.Product() }
