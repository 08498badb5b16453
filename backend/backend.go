// Package backend implements the File/Group/Dataset/Chunk handle interface
// from spec §4.2 over a gocloud.dev/blob.Bucket. The local file system
// (fileblob) is the reference backend; any other gocloud driver (s3blob,
// gcsblob, azureblob) works transparently through the same Bucket but is
// not wired up by this module — cloud backends are an external collaborator
// per spec §1.
package backend

import (
	"context"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/arrayfs/nstore/nstoreerr"
)

// Backend owns the bucket connection shared by every handle opened beneath
// a given root.
type Backend struct {
	bucket *blob.Bucket
	mode   Mode
}

// Open connects to the bucket at urlstr (e.g. "file:///data/root") under
// the given mode. The reference backend is fileblob; register other
// gocloud.dev/blob drivers via blank import to use them.
func Open(ctx context.Context, urlstr string, mode Mode) (*Backend, error) {
	if !mode.Valid() {
		return nil, nstoreerr.Wrapf(nstoreerr.PermissionDenied, "backend.Open", "invalid mode %q", mode)
	}
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, nstoreerr.New(nstoreerr.IoError, "backend.Open", err)
	}
	return &Backend{bucket: bucket, mode: mode}, nil
}

// Close releases the underlying bucket connection.
func (b *Backend) Close() error { return b.bucket.Close() }

func (b *Backend) Mode() Mode { return b.mode }

// Handle identifies one node (file, group, dataset, or chunk) within the
// hierarchy by its key prefix relative to the bucket root. Handles carry
// their path and backend by value, per Design Notes §9 ("replace [Chunk
// holding a reference to Dataset] with value-semantic handles").
type Handle struct {
	backend *Backend
	path    string // "" for the root
}

// NewHandle returns the handle for path beneath backend's root. path uses
// "/" as separator and should not have a leading or trailing slash.
func NewHandle(b *Backend, path string) Handle {
	return Handle{backend: b, path: path}
}

func (h Handle) Path() string   { return h.path }
func (h Handle) Mode() Mode     { return h.backend.mode }
func (h Handle) Backend() *Backend { return h.backend }

// Child returns the handle for a nested key.
func (h Handle) Child(name string) Handle {
	return Handle{backend: h.backend, path: joinKey(h.path, name)}
}

func (h Handle) key(name string) string { return joinKey(h.path, name) }

// keyExists reports whether the marker or data key behind name exists.
func (h Handle) keyExists(ctx context.Context, name string) (bool, error) {
	ok, err := h.backend.bucket.Exists(ctx, h.key(name))
	if err != nil {
		return false, nstoreerr.New(nstoreerr.IoError, "backend.Handle.Exists", err)
	}
	return ok, nil
}

// IsZarrFile reports whether the root at this handle carries the Zarr
// ".zgroup" marker (as opposed to the N5 "attributes.json" with an "n5"
// key). Error if neither marker exists.
func (h Handle) IsZarrFile(ctx context.Context) (bool, error) {
	zarrOK, err := h.keyExists(ctx, zgroupName)
	if err != nil {
		return false, err
	}
	if zarrOK {
		return true, nil
	}
	n5OK, err := h.keyExists(ctx, n5AttrsName)
	if err != nil {
		return false, err
	}
	if n5OK {
		return false, nil
	}
	return false, nstoreerr.Wrapf(nstoreerr.NotFound, "backend.Handle.IsZarrFile", "no format marker at %q", h.path)
}

// IsZarrDataset reports whether the dataset at this handle is Zarr (has
// ".zarray") vs N5 (has "attributes.json"). Errors if the handle doesn't
// exist as either.
func (h Handle) IsZarrDataset(ctx context.Context) (bool, error) {
	zarrOK, err := h.keyExists(ctx, zarrayName)
	if err != nil {
		return false, err
	}
	if zarrOK {
		return true, nil
	}
	n5OK, err := h.keyExists(ctx, n5AttrsName)
	if err != nil {
		return false, err
	}
	if n5OK {
		return false, nil
	}
	return false, nstoreerr.Wrapf(nstoreerr.NotFound, "backend.Handle.IsZarrDataset", "no metadata at %q", h.path)
}

// IsZarr reports the dialect at this handle regardless of whether it is a
// file root, group, or dataset: true if either Zarr marker (".zarray" or
// ".zgroup") is present, false if the N5 "attributes.json" marker is
// present. Used by attribute operations, which operate on any node in the
// hierarchy rather than just datasets.
func (h Handle) IsZarr(ctx context.Context) (bool, error) {
	for _, m := range []string{zarrayName, zgroupName} {
		ok, err := h.keyExists(ctx, m)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	ok, err := h.keyExists(ctx, n5AttrsName)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	return false, nstoreerr.Wrapf(nstoreerr.NotFound, "backend.Handle.IsZarr", "no format marker at %q", h.path)
}

// Exists reports whether one of the format/metadata markers (".zarray",
// ".zgroup", "attributes.json") is present at this handle. Other keys
// under the prefix, such as chunk blobs, are not considered.
func (h Handle) Exists(ctx context.Context) (bool, error) {
	markers := []string{zarrayName, zgroupName, n5AttrsName}
	for _, m := range markers {
		ok, err := h.keyExists(ctx, m)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// MetadataReader opens a reader for the given metadata file name
// (".zarray", ".zgroup", "attributes.json", ".zattrs") under this handle.
// Returns a *nstoreerr.Error{Kind: NotFound} if absent.
func (h Handle) MetadataReader(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := h.backend.bucket.NewReader(ctx, h.key(name), nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nstoreerr.New(nstoreerr.NotFound, "backend.Handle.MetadataReader", err)
		}
		return nil, nstoreerr.New(nstoreerr.IoError, "backend.Handle.MetadataReader", err)
	}
	return r, nil
}

// MetadataWriter opens a writer for the given metadata file name under
// this handle. Fails with PermissionDenied if the handle's mode forbids
// writes/creation.
func (h Handle) MetadataWriter(ctx context.Context, name string) (io.WriteCloser, error) {
	if !h.backend.mode.CanWrite() && !h.backend.mode.CanCreate() {
		return nil, nstoreerr.Wrapf(nstoreerr.PermissionDenied, "backend.Handle.MetadataWriter", "mode %q forbids writes", h.backend.mode)
	}
	w, err := h.backend.bucket.NewWriter(ctx, h.key(name), nil)
	if err != nil {
		return nil, nstoreerr.New(nstoreerr.IoError, "backend.Handle.MetadataWriter", err)
	}
	return w, nil
}

// Keys lists the immediate child "directory" names beneath this handle,
// i.e. group/dataset names. gocloud's Delimiter-based listing maps
// directly onto the fileblob reference backend's real directories.
func (h Handle) Keys(ctx context.Context) ([]string, error) {
	prefix := h.path
	if prefix != "" {
		prefix += "/"
	}
	iter := h.backend.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	var out []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nstoreerr.New(nstoreerr.IoError, "backend.Handle.Keys", err)
		}
		if !obj.IsDir {
			continue
		}
		name := obj.Key[len(prefix):]
		name = name[:len(name)-1] // strip trailing "/"
		out = append(out, name)
	}
	return out, nil
}

// In reports whether name is an immediate child of this handle.
func (h Handle) In(ctx context.Context, name string) (bool, error) {
	child := h.Child(name)
	return child.Exists(ctx)
}

// RemoveAll deletes every key under this handle's prefix (used by
// RemoveDataset / group removal).
func (h Handle) RemoveAll(ctx context.Context) error {
	prefix := h.path
	if prefix != "" {
		prefix += "/"
	}
	iter := h.backend.bucket.List(&blob.ListOptions{Prefix: prefix})
	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nstoreerr.New(nstoreerr.IoError, "backend.Handle.RemoveAll", err)
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
	// Also remove metadata keys that live exactly at this prefix (not
	// under it), e.g. a dataset's own ".zarray" sits at h.path itself.
	for _, m := range []string{zarrayName, zgroupName, zattrsName, n5AttrsName} {
		if ok, _ := h.keyExists(ctx, m); ok {
			keys = append(keys, h.key(m))
		}
	}
	for _, k := range keys {
		if err := h.backend.bucket.Delete(ctx, k); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
			return nstoreerr.New(nstoreerr.IoError, "backend.Handle.RemoveAll", err)
		}
	}
	return nil
}
