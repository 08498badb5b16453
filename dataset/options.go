package dataset

import (
	"github.com/arrayfs/nstore/codec"
	"github.com/arrayfs/nstore/types"
)

// Options bundles the parameters needed to create a dataset. The dialect
// (Zarr vs N5) is not part of Options: it is inherited from the enclosing
// File/Group, which is why Group.CreateDataset passes it to Create as a
// separate argument.
type Options struct {
	Dtype      types.Dtype
	Shape      types.Shape
	ChunkShape types.Shape
	Compressor codec.Config
	FillValue  float64
}
