// Package attrs implements spec §4.8: arbitrary JSON attribute storage per
// group/dataset. In Zarr these live in ".zattrs"; in N5 they share
// "attributes.json" with the reserved metadata keys, which this package
// refuses to let the attribute API touch.
package attrs

import (
	"context"
	"encoding/json"

	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/metadata"
	"github.com/arrayfs/nstore/nstoreerr"
)

// Read returns the attributes at h. Absent attributes are not an error —
// they read back as an empty object, per spec §4.8.
func Read(ctx context.Context, h backend.Handle, isZarr bool) (map[string]any, error) {
	name := ".zattrs"
	if !isZarr {
		name = "attributes.json"
	}
	r, err := h.MetadataReader(ctx, name)
	if err != nil {
		if nstoreerr.Is(err, nstoreerr.NotFound) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	defer r.Close()
	var m map[string]any
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, nstoreerr.New(nstoreerr.MetadataError, "attrs.Read", err)
	}
	if !isZarr {
		for k := range m {
			if metadata.IsReservedN5Key(k) {
				delete(m, k)
			}
		}
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// Write merges attrs into the existing attribute set at h and persists it.
// For N5, any reserved metadata key in attrs causes the whole write to
// fail (spec §4.8): the dataset/group metadata is never reachable through
// this API.
func Write(ctx context.Context, h backend.Handle, isZarr bool, attrs map[string]any) error {
	if !isZarr {
		for k := range attrs {
			if metadata.IsReservedN5Key(k) {
				return nstoreerr.Wrapf(nstoreerr.PermissionDenied, "attrs.Write", "key %q is reserved N5 metadata and cannot be written via the attribute API", k)
			}
		}
	}
	name := ".zattrs"
	if !isZarr {
		name = "attributes.json"
	}
	existing, err := readRaw(ctx, h, name)
	if err != nil {
		return err
	}
	for k, v := range attrs {
		existing[k] = v
	}
	return writeRaw(ctx, h, name, existing)
}

// Remove deletes key from the attribute set at h. Removing a reserved N5
// key is rejected.
func Remove(ctx context.Context, h backend.Handle, isZarr bool, key string) error {
	if !isZarr && metadata.IsReservedN5Key(key) {
		return nstoreerr.Wrapf(nstoreerr.PermissionDenied, "attrs.Remove", "key %q is reserved N5 metadata", key)
	}
	name := ".zattrs"
	if !isZarr {
		name = "attributes.json"
	}
	existing, err := readRaw(ctx, h, name)
	if err != nil {
		return err
	}
	delete(existing, key)
	return writeRaw(ctx, h, name, existing)
}

func readRaw(ctx context.Context, h backend.Handle, name string) (map[string]any, error) {
	r, err := h.MetadataReader(ctx, name)
	if err != nil {
		if nstoreerr.Is(err, nstoreerr.NotFound) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	defer r.Close()
	var m map[string]any
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, nstoreerr.New(nstoreerr.MetadataError, "attrs.readRaw", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func writeRaw(ctx context.Context, h backend.Handle, name string, m map[string]any) error {
	w, err := h.MetadataWriter(ctx, name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	encErr := enc.Encode(m)
	closeErr := w.Close()
	if encErr != nil {
		return nstoreerr.New(nstoreerr.IoError, "attrs.writeRaw", encErr)
	}
	return closeErr
}
