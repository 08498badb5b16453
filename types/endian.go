package types

import "encoding/binary"

// SwapBytes reverses the byte order of every element of width dtype.Size()
// in buf, in place. Single-byte dtypes are a no-op. buf's length must be a
// multiple of the dtype's size.
func SwapBytes(buf []byte, d Dtype) {
	width := d.Size()
	if width <= 1 {
		return
	}
	for off := 0; off+width <= len(buf); off += width {
		chunk := buf[off : off+width]
		for i, j := 0, width-1; i < j; i, j = i+1, j-1 {
			chunk[i], chunk[j] = chunk[j], chunk[i]
		}
	}
}

// PutUint16BE and the helpers below centralize the big-endian integer
// encoding used by the N5 chunk header (§4.5), so the header serializer is
// the only place that reasons about N5's on-the-wire endianness.
func PutUint16BE(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func Uint16BE(b []byte) uint16       { return binary.BigEndian.Uint16(b) }
func PutUint32BE(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func Uint32BE(b []byte) uint32       { return binary.BigEndian.Uint32(b) }
