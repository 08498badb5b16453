package types

import "unsafe"

// SliceToBytes reinterprets a typed slice as its raw memory, without
// copying. This assumes a little-endian host (true for the overwhelming
// majority of deployment targets, amd64/arm64); it is the same assumption
// the original z5 C++ library makes by reinterpret_cast-ing buffers
// directly, and it is what lets the codec inner loop stay monomorphic and
// allocation-free per Design Notes §9.
func SliceToBytes[T Elem](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

// BytesToSlice reinterprets a byte buffer as a typed slice, without
// copying. len(b) must be a multiple of sizeof(T).
func BytesToSlice[T Elem](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	var zero T
	width := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/width)
}

// FillValueT narrows a float64 fill value (as decoded from JSON) to the
// dataset's concrete element type T, preserving NaN/+-Inf through the
// float64->float32 narrowing path; integer narrowing truncates, matching
// the original's "reinterpret-cast through the typed narrowing" (spec
// §4.6).
func FillValueT[T Elem](raw float64) T {
	return T(raw)
}

// FillPattern renders a float64 fill value (as carried by DatasetMetadata)
// into its dtype-width byte encoding, for the byte-level dataset engine's
// all-fill elision test (spec §4.6). Comparing raw bytes rather than typed
// values sidesteps NaN != NaN: two chunks filled with the same NaN bit
// pattern compare equal here even though they would not under ==.
func FillPattern(d Dtype, raw float64) []byte {
	switch d {
	case Int8:
		return SliceToBytes([]int8{int8(raw)})
	case Int16:
		return SliceToBytes([]int16{int16(raw)})
	case Int32:
		return SliceToBytes([]int32{int32(raw)})
	case Int64:
		return SliceToBytes([]int64{int64(raw)})
	case Uint8:
		return SliceToBytes([]uint8{uint8(raw)})
	case Uint16:
		return SliceToBytes([]uint16{uint16(raw)})
	case Uint32:
		return SliceToBytes([]uint32{uint32(raw)})
	case Uint64:
		return SliceToBytes([]uint64{uint64(raw)})
	case Float32:
		return SliceToBytes([]float32{float32(raw)})
	case Float64:
		return SliceToBytes([]float64{raw})
	default:
		panic("types: invalid dtype in FillPattern")
	}
}
