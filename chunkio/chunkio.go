// Package chunkio reads and writes a single chunk blob through a backend
// handle, including the N5 chunk header (spec §4.5). Zarr chunks are the
// compressed bytes alone; N5 chunks are framed with a small big-endian
// header ahead of the compressed payload.
package chunkio

import (
	"bytes"
	"context"
	"io"

	"github.com/arrayfs/nstore/backend"
	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/types"
)

// Blob is the parsed contents of one chunk file: the compressed payload
// plus, for N5, the header fields it carried.
type Blob struct {
	Payload       []byte
	BoundedShape  types.Shape // C-order; only meaningful for N5 (header-carried)
	IsVarlen      bool
	NumElements   int // only meaningful if IsVarlen
}

// Read loads and parses the chunk blob at coord. exists is false (err nil)
// if the chunk is absent, matching spec §4.5's "chunk absent" read signal.
func Read(ctx context.Context, h backend.Handle, coord types.Shape, isZarr bool) (blob *Blob, exists bool, err error) {
	r, ok, err := h.ChunkReader(ctx, coord, isZarr)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, false, nstoreerr.New(nstoreerr.IoError, "chunkio.Read", err)
	}

	if isZarr {
		return &Blob{Payload: raw}, true, nil
	}
	parsed, err := parseN5Header(raw)
	if err != nil {
		return nil, false, err
	}
	return parsed, true, nil
}

// Write encodes and persists a chunk blob. For Zarr, payload is written
// as-is. For N5, boundedShape/isVarlen/numElements are framed into the
// header ahead of payload.
func Write(ctx context.Context, h backend.Handle, coord types.Shape, isZarr bool, boundedShape types.Shape, isVarlen bool, numElements int, payload []byte) error {
	w, err := h.ChunkWriter(ctx, coord, isZarr)
	if err != nil {
		return err
	}

	var writeErr error
	if isZarr {
		_, writeErr = w.Write(payload)
	} else {
		var buf bytes.Buffer
		if err := writeN5Header(&buf, boundedShape, isVarlen, numElements); err != nil {
			w.Close()
			return err
		}
		buf.Write(payload)
		_, writeErr = w.Write(buf.Bytes())
	}
	closeErr := w.Close()
	if writeErr != nil {
		return nstoreerr.New(nstoreerr.IoError, "chunkio.Write", writeErr)
	}
	if closeErr != nil {
		return nstoreerr.New(nstoreerr.IoError, "chunkio.Write", closeErr)
	}
	return nil
}

// Remove deletes the chunk blob at coord, if present.
func Remove(ctx context.Context, h backend.Handle, coord types.Shape, isZarr bool) error {
	return h.ChunkRemove(ctx, coord, isZarr)
}
