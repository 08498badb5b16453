package chunkio

import (
	"io"

	"github.com/arrayfs/nstore/nstoreerr"
	"github.com/arrayfs/nstore/types"
)

// N5 chunk header layout, all big-endian (spec §4.5):
//
//	u16 mode             0 = default, 1 = varlength
//	u16 nDims
//	u32 shape[nDims]     bounded shape, reversed axis order (F-order)
//	[u32 numElements]    present iff mode == 1
//	<compressed payload>
const (
	n5ModeDefault   = 0
	n5ModeVarlength = 1
)

func writeN5Header(w io.Writer, boundedShape types.Shape, isVarlen bool, numElements int) error {
	mode := uint16(n5ModeDefault)
	if isVarlen {
		mode = n5ModeVarlength
	}
	ndim := len(boundedShape)

	header := make([]byte, 4+4*ndim)
	types.PutUint16BE(header[0:2], mode)
	types.PutUint16BE(header[2:4], uint16(ndim))

	// N5 axis order is reversed relative to the in-memory C-order shape.
	reversed := boundedShape.Reversed()
	for i, v := range reversed {
		off := 4 + 4*i
		types.PutUint32BE(header[off:off+4], uint32(v))
	}
	if _, err := w.Write(header); err != nil {
		return nstoreerr.New(nstoreerr.IoError, "chunkio.writeN5Header", err)
	}
	if isVarlen {
		var numBuf [4]byte
		types.PutUint32BE(numBuf[:], uint32(numElements))
		if _, err := w.Write(numBuf[:]); err != nil {
			return nstoreerr.New(nstoreerr.IoError, "chunkio.writeN5Header", err)
		}
	}
	return nil
}

func parseN5Header(raw []byte) (*Blob, error) {
	if len(raw) < 4 {
		return nil, nstoreerr.Wrapf(nstoreerr.IoError, "chunkio.parseN5Header", "chunk blob shorter than header")
	}
	mode := types.Uint16BE(raw[0:2])
	if mode != n5ModeDefault && mode != n5ModeVarlength {
		return nil, nstoreerr.Wrapf(nstoreerr.MetadataError, "chunkio.parseN5Header", "invalid N5 chunk mode %d", mode)
	}
	ndim := int(types.Uint16BE(raw[2:4]))
	off := 4
	if len(raw) < off+4*ndim {
		return nil, nstoreerr.Wrapf(nstoreerr.IoError, "chunkio.parseN5Header", "chunk blob too short for shape header")
	}
	reversedShape := make(types.Shape, ndim)
	for i := 0; i < ndim; i++ {
		reversedShape[i] = int(types.Uint32BE(raw[off : off+4]))
		off += 4
	}
	// Convert the on-disk F-order shape back to the in-memory C-order
	// convention (spec §3).
	shape := reversedShape.Reversed()

	isVarlen := mode == n5ModeVarlength
	numElements := 0
	if isVarlen {
		if len(raw) < off+4 {
			return nil, nstoreerr.Wrapf(nstoreerr.IoError, "chunkio.parseN5Header", "chunk blob too short for varlength count")
		}
		numElements = int(types.Uint32BE(raw[off : off+4]))
		off += 4
	}
	return &Blob{
		Payload:      raw[off:],
		BoundedShape: shape,
		IsVarlen:     isVarlen,
		NumElements:  numElements,
	}, nil
}
