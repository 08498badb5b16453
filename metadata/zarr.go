package metadata

import (
	"context"
	"encoding/json"
	"io"
	"math"

	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/codec"
	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/types"
)

// zarrCompressorJSON is the ".zarray" "compressor" object. Only the fields
// relevant to the selected id are populated on write; all are optional on
// read since different ids use different subsets (spec §4.3).
type zarrCompressorJSON struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
	Level   int    `json:"level,omitempty"`
}

type zarrayJSON struct {
	ZarrFormat int                 `json:"zarr_format"`
	Shape      []int               `json:"shape"`
	Chunks     []int               `json:"chunks"`
	DType      string              `json:"dtype"`
	Compressor *zarrCompressorJSON `json:"compressor"`
	FillValue  any                 `json:"fill_value"`
	Filters    any                 `json:"filters"`
	Order      string              `json:"order"`
}

func compressorToZarrJSON(cfg codec.Config) (*zarrCompressorJSON, error) {
	switch cfg.Name {
	case codec.Raw:
		return nil, nil
	case codec.Blosc:
		return &zarrCompressorJSON{ID: "blosc", Cname: cfg.Blosc.Cname, Clevel: cfg.Blosc.Clevel, Shuffle: cfg.Blosc.Shuffle}, nil
	case codec.Zlib:
		id := "gzip"
		if cfg.Zlib.UseZlib {
			id = "zlib"
		}
		return &zarrCompressorJSON{ID: id, Level: cfg.Zlib.Level}, nil
	case codec.Bzip2:
		return &zarrCompressorJSON{ID: "bz2", Level: cfg.Bzip2.Level}, nil
	case codec.Lz4:
		return &zarrCompressorJSON{ID: "lz4", Level: cfg.Lz4.Level}, nil
	default:
		return nil, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.compressorToZarrJSON", "compressor %v is not valid for zarr", cfg.Name)
	}
}

func compressorFromZarrJSON(j *zarrCompressorJSON) (codec.Config, error) {
	if j == nil {
		return codec.RawConfig(), nil
	}
	switch j.ID {
	case "blosc":
		return codec.Config{Name: codec.Blosc, Blosc: codec.BloscOptions{Cname: j.Cname, Clevel: j.Clevel, Shuffle: j.Shuffle}}, nil
	case "zlib":
		return codec.Config{Name: codec.Zlib, Zlib: codec.ZlibOptions{Level: j.Level, UseZlib: true}}, nil
	case "gzip":
		return codec.Config{Name: codec.Zlib, Zlib: codec.ZlibOptions{Level: j.Level, UseZlib: false}}, nil
	case "bz2":
		return codec.Config{Name: codec.Bzip2, Bzip2: codec.Bzip2Options{Level: j.Level}}, nil
	case "lz4":
		return codec.Config{Name: codec.Lz4, Lz4: codec.Lz4Options{Level: j.Level}}, nil
	default:
		return codec.Config{}, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.compressorFromZarrJSON", "unsupported zarr compressor id %q", j.ID)
	}
}

func readZarrDatasetMetadata(r io.Reader) (*DatasetMetadata, error) {
	var j zarrayJSON
	if err := json.NewDecoder(r).Decode(&j); err != nil {
		return nil, nstoreerr.New(nstoreerr.MetadataError, "metadata.readZarrDatasetMetadata", err)
	}
	if j.ZarrFormat != 2 {
		return nil, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.readZarrDatasetMetadata", "unsupported zarr_format %d, expected 2", j.ZarrFormat)
	}
	if j.Order != "" && j.Order != "C" {
		return nil, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.readZarrDatasetMetadata", "order %q unsupported, only C-order", j.Order)
	}
	if j.Filters != nil {
		return nil, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.readZarrDatasetMetadata", "filters are not supported")
	}
	dtype, err := types.DtypeFromZarrString(j.DType)
	if err != nil {
		return nil, nstoreerr.New(nstoreerr.MetadataError, "metadata.readZarrDatasetMetadata", err)
	}
	if len(j.Shape) != len(j.Chunks) {
		return nil, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.readZarrDatasetMetadata", "dim(shape) != dim(chunks)")
	}
	compressor, err := compressorFromZarrJSON(j.Compressor)
	if err != nil {
		return nil, err
	}
	fill, err := narrowFillValue(j.FillValue)
	if err != nil {
		return nil, nstoreerr.New(nstoreerr.MetadataError, "metadata.readZarrDatasetMetadata", err)
	}
	return &DatasetMetadata{
		Dtype:      dtype,
		Shape:      types.Shape(j.Shape),
		ChunkShape: types.ClampChunkShape(types.Shape(j.Shape), types.Shape(j.Chunks)),
		IsZarr:     true,
		Compressor: compressor,
		FillValue:  fill,
	}, nil
}

func writeZarrDatasetMetadata(w io.Writer, m *DatasetMetadata) error {
	dtypeStr, err := types.ZarrDtypeString(m.Dtype)
	if err != nil {
		return nstoreerr.New(nstoreerr.MetadataError, "metadata.writeZarrDatasetMetadata", err)
	}
	compressorJSON, err := compressorToZarrJSON(m.Compressor)
	if err != nil {
		return err
	}
	j := zarrayJSON{
		ZarrFormat: 2,
		Shape:      []int(m.Shape),
		Chunks:     []int(m.ChunkShape),
		DType:      dtypeStr,
		Compressor: compressorJSON,
		FillValue:  fillValueToJSON(m.FillValue),
		Filters:    nil,
		Order:      "C",
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(&j); err != nil {
		return nstoreerr.New(nstoreerr.IoError, "metadata.writeZarrDatasetMetadata", err)
	}
	return nil
}

// ReadDatasetMetadata resolves the dialect at h and parses its metadata.
func ReadDatasetMetadata(ctx context.Context, h backend.Handle) (*DatasetMetadata, error) {
	isZarr, err := h.IsZarrDataset(ctx)
	if err != nil {
		return nil, err
	}
	if isZarr {
		r, err := h.MetadataReader(ctx, ".zarray")
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return readZarrDatasetMetadata(r)
	}
	r, err := h.MetadataReader(ctx, "attributes.json")
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readN5DatasetMetadata(r)
}

// WriteDatasetMetadata writes m's metadata at h in its own dialect.
func WriteDatasetMetadata(ctx context.Context, h backend.Handle, m *DatasetMetadata) error {
	name := ".zarray"
	if !m.IsZarr {
		name = "attributes.json"
	}
	w, err := h.MetadataWriter(ctx, name)
	if err != nil {
		return err
	}
	var writeErr error
	if m.IsZarr {
		writeErr = writeZarrDatasetMetadata(w, m)
	} else {
		writeErr = writeN5DatasetMetadata(ctx, h, w, m)
	}
	if closeErr := w.Close(); writeErr == nil {
		writeErr = closeErr
	}
	return writeErr
}

// narrowFillValue converts a decoded JSON number (float64, or nil meaning
// 0) to the float64 carrier DatasetMetadata stores it as. Per-dtype
// narrowing with NaN/Inf preservation happens later in types.FillPattern,
// which the dataset package calls with the concrete dtype.
func narrowFillValue(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return t, nil
	case string:
		// JSON has no NaN/Infinity literal; Zarr encodes non-finite
		// float fill values as these three sentinel strings.
		switch t {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		default:
			return 0, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.narrowFillValue", "unrecognized fill_value string %q", t)
		}
	default:
		return 0, nstoreerr.Wrapf(nstoreerr.MetadataError, "metadata.narrowFillValue", "fill_value %v is not a number", v)
	}
}

// fillValueToJSON is the inverse of narrowFillValue: it renders a float64
// back to whatever JSON shape Zarr expects (sentinel strings for non-
// finite floats, a plain number otherwise).
func fillValueToJSON(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}
