package backend

import (
	"strconv"
	"strings"

	"github.com/arrayfs/nstore/types"
)

const (
	zarrayName    = ".zarray"
	zgroupName    = ".zgroup"
	zattrsName    = ".zattrs"
	n5AttrsName   = "attributes.json"
)

// ChunkKey builds the on-disk key for a chunk given its coordinate and the
// dialect. Zarr uses a single dotted filename; N5 uses a nested directory
// path with axes in reverse (F-order) per spec §4.2/§4.5.
func ChunkKey(coord types.Shape, isZarr bool) string {
	if len(coord) == 0 {
		return "0"
	}
	parts := make([]string, len(coord))
	for i, c := range coord {
		parts[i] = strconv.Itoa(c)
	}
	if isZarr {
		return strings.Join(parts, ".")
	}
	// N5: nested directories, axis order reversed.
	rev := make([]string, len(parts))
	for i, p := range parts {
		rev[len(parts)-1-i] = p
	}
	return strings.Join(rev, "/")
}

// joinKey joins path segments with "/" (the blob-key separator, independent
// of OS path conventions), skipping empty segments.
func joinKey(segments ...string) string {
	var nonEmpty []string
	for _, s := range segments {
		if s != "" {
			nonEmpty = append(nonEmpty, strings.Trim(s, "/"))
		}
	}
	return strings.Join(nonEmpty, "/")
}
