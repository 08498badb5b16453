package metadata

import (
	"context"
	"encoding/json"
	"io"

	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/codec"
	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/types"
)

// n5CompressionJSON is the N5 "compression" object (new-style). Old-style
// datasets instead carry a bare "compressionType" string, handled
// separately in readN5DatasetMetadata.
type n5CompressionJSON struct {
	Type      string `json:"type"`
	Level     int    `json:"level,omitempty"`     // gzip
	BlockSize int    `json:"blockSize,omitempty"` // bzip2 (block size) and lz4 (block size)
	Preset    int    `json:"preset,omitempty"`    // xz
	Codec     string `json:"codec,omitempty"`     // blosc
	Shuffle   int    `json:"shuffle,omitempty"`   // blosc
}

// n5AttributesJSON is the full attributes.json payload for an N5 dataset:
// the reserved metadata keys. Arbitrary user attributes are folded in
// alongside them by mergeN5Attributes.
type n5AttributesJSON struct {
	Dimensions      []int               `json:"dimensions"`
	BlockSize       []int               `json:"blockSize"`
	DataType        string              `json:"dataType"`
	Compression     *n5CompressionJSON  `json:"compression,omitempty"`
	CompressionType string              `json:"compressionType,omitempty"`
}

func compressorToN5JSON(cfg codec.Config) (*n5CompressionJSON, error) {
	switch cfg.Name {
	case codec.Raw:
		return &n5CompressionJSON{Type: "raw"}, nil
	case codec.Blosc:
		return &n5CompressionJSON{Type: "blosc", Codec: cfg.Blosc.Cname, Level: cfg.Blosc.Clevel, Shuffle: cfg.Blosc.Shuffle}, nil
	case codec.Zlib:
		return &n5CompressionJSON{Type: "gzip", Level: cfg.Zlib.Level}, nil
	case codec.Bzip2:
		return &n5CompressionJSON{Type: "bzip2", BlockSize: cfg.Bzip2.Level}, nil
	case codec.Lz4:
		return &n5CompressionJSON{Type: "lz4", BlockSize: cfg.Lz4.Level}, nil
	case codec.Xz:
		return &n5CompressionJSON{Type: "xz", Preset: cfg.Xz.Preset}, nil
	default:
		return nil, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.compressorToN5JSON", "unknown compressor %v", cfg.Name)
	}
}

func compressorFromN5JSON(comp *n5CompressionJSON, legacyType string) (codec.Config, error) {
	if comp == nil {
		// Legacy encoding: bare "compressionType" string, gzip-zlib
		// defaults per spec §4.3.
		switch legacyType {
		case "raw":
			return codec.RawConfig(), nil
		case "gzip":
			return codec.Config{Name: codec.Zlib, Zlib: codec.ZlibOptions{Level: 5, UseZlib: false}}, nil
		case "bzip2":
			return codec.Config{Name: codec.Bzip2, Bzip2: codec.Bzip2Options{Level: 5}}, nil
		case "lz4":
			return codec.Config{Name: codec.Lz4}, nil
		case "xz":
			return codec.Config{Name: codec.Xz, Xz: codec.XzOptions{Preset: 6}}, nil
		default:
			return codec.Config{}, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.compressorFromN5JSON", "unsupported legacy compressionType %q", legacyType)
		}
	}
	switch comp.Type {
	case "raw":
		return codec.RawConfig(), nil
	case "gzip":
		return codec.Config{Name: codec.Zlib, Zlib: codec.ZlibOptions{Level: comp.Level, UseZlib: false}}, nil
	case "bzip2":
		return codec.Config{Name: codec.Bzip2, Bzip2: codec.Bzip2Options{Level: comp.BlockSize}}, nil
	case "lz4":
		return codec.Config{Name: codec.Lz4, Lz4: codec.Lz4Options{Level: comp.BlockSize}}, nil
	case "xz":
		return codec.Config{Name: codec.Xz, Xz: codec.XzOptions{Preset: comp.Preset}}, nil
	case "blosc":
		return codec.Config{Name: codec.Blosc, Blosc: codec.BloscOptions{Cname: comp.Codec, Clevel: comp.Level, Shuffle: comp.Shuffle}}, nil
	default:
		return codec.Config{}, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.compressorFromN5JSON", "unsupported N5 compression type %q", comp.Type)
	}
}

func readN5DatasetMetadata(r io.Reader) (*DatasetMetadata, error) {
	var j n5AttributesJSON
	if err := json.NewDecoder(r).Decode(&j); err != nil {
		return nil, nstoreerr.New(nstoreerr.MetadataError, "metadata.readN5DatasetMetadata", err)
	}
	if len(j.Dimensions) != len(j.BlockSize) {
		return nil, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.readN5DatasetMetadata", "dim(dimensions) != dim(blockSize)")
	}
	dtype, err := types.DtypeFromN5String(j.DataType)
	if err != nil {
		return nil, nstoreerr.New(nstoreerr.MetadataError, "metadata.readN5DatasetMetadata", err)
	}
	compressor, err := compressorFromN5JSON(j.Compression, j.CompressionType)
	if err != nil {
		return nil, err
	}
	// N5 axis order is reversed on disk relative to the in-memory C-order
	// view (spec §3/§4.3) — reverse on read.
	shape := types.Shape(j.Dimensions).Reversed()
	chunkShape := types.Shape(j.BlockSize).Reversed()
	return &DatasetMetadata{
		Dtype:      dtype,
		Shape:      shape,
		ChunkShape: types.ClampChunkShape(shape, chunkShape),
		IsZarr:     false,
		Compressor: compressor,
		FillValue:  0, // N5 has no fill_value field; fill is always the dtype zero value.
	}, nil
}

func writeN5DatasetMetadata(ctx context.Context, h backend.Handle, w io.Writer, m *DatasetMetadata) error {
	dtypeStr, err := types.N5DtypeString(m.Dtype)
	if err != nil {
		return nstoreerr.New(nstoreerr.MetadataError, "metadata.writeN5DatasetMetadata", err)
	}
	compJSON, err := compressorToN5JSON(m.Compressor)
	if err != nil {
		return err
	}
	j := n5AttributesJSON{
		Dimensions:  []int(m.Shape.Reversed()),
		BlockSize:   []int(m.ChunkShape.Reversed()),
		DataType:    dtypeStr,
		Compression: compJSON,
	}
	// N5 shares attributes.json between metadata and free-form attributes
	// (spec §4.8); merge any existing user attributes back in rather than
	// clobbering them, mirroring the original z5 writeMetadata.
	existing, _ := readRawAttrsIgnoringMetadata(ctx, h)
	merged, err := mergeN5Attributes(j, existing)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(merged); err != nil {
		return nstoreerr.New(nstoreerr.IoError, "metadata.writeN5DatasetMetadata", err)
	}
	return nil
}

// mergeN5Attributes folds arbitrary user attribute keys into the JSON
// object alongside the reserved metadata keys, without letting user keys
// shadow the reserved ones (spec §4.8 reserved-key protection).
func mergeN5Attributes(meta n5AttributesJSON, extra map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, nstoreerr.New(nstoreerr.IoError, "metadata.mergeN5Attributes", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, nstoreerr.New(nstoreerr.IoError, "metadata.mergeN5Attributes", err)
	}
	for k, v := range extra {
		if IsReservedN5Key(k) {
			continue
		}
		out[k] = v
	}
	return out, nil
}

// reservedN5Keys are the metadata keys an N5 attributes-API write must not
// overwrite (spec §3 "Attributes").
var reservedN5Keys = map[string]bool{
	"dimensions":      true,
	"blockSize":       true,
	"dataType":        true,
	"compressionType": true,
	"compression":     true,
	"n5":              true,
}

// IsReservedN5Key reports whether key is one of N5's reserved metadata
// keys that the attribute API must not overwrite.
func IsReservedN5Key(key string) bool { return reservedN5Keys[key] }

// readRawAttrsIgnoringMetadata reads the existing attributes.json (if any)
// as a raw map, for merge-on-write. Returns an empty map if absent or
// unparsable — matching the original z5's "catch and ignore" read.
func readRawAttrsIgnoringMetadata(ctx context.Context, h backend.Handle) (map[string]any, error) {
	r, err := h.MetadataReader(ctx, "attributes.json")
	if err != nil {
		return map[string]any{}, nil
	}
	defer r.Close()
	var m map[string]any
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return map[string]any{}, nil
	}
	return m, nil
}
