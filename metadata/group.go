package metadata

import (
	"context"
	"encoding/json"

	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/nstoreerr"
)

// WriteFileMarker writes the root format marker: ".zgroup" with
// zarr_format:2 for Zarr, or "attributes.json" with "n5":"2.0.0" for N5
// (merged with any existing attributes, since N5 shares the file).
func WriteFileMarker(ctx context.Context, h backend.Handle, isZarr bool) error {
	if isZarr {
		return writeZgroupMarker(ctx, h)
	}
	existing, _ := readRawAttrsIgnoringMetadata(ctx, h)
	if existing == nil {
		existing = map[string]any{}
	}
	existing["n5"] = "2.0.0"
	w, err := h.MetadataWriter(ctx, "attributes.json")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	encErr := enc.Encode(existing)
	closeErr := w.Close()
	if encErr != nil {
		return nstoreerr.New(nstoreerr.IoError, "metadata.WriteFileMarker", encErr)
	}
	return closeErr
}

// WriteGroupMarker writes the group-level format marker. Zarr groups carry
// ".zgroup"; N5 groups carry no marker at all (spec §4.3 "N5 groups have
// no marker").
func WriteGroupMarker(ctx context.Context, h backend.Handle, isZarr bool) error {
	if !isZarr {
		return nil
	}
	return writeZgroupMarker(ctx, h)
}

func writeZgroupMarker(ctx context.Context, h backend.Handle) error {
	w, err := h.MetadataWriter(ctx, ".zgroup")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	encErr := enc.Encode(map[string]any{"zarr_format": 2})
	closeErr := w.Close()
	if encErr != nil {
		return nstoreerr.New(nstoreerr.IoError, "metadata.WriteGroupMarker", encErr)
	}
	return closeErr
}
