// Package types holds the primitive vocabulary shared across the store:
// the dtype registry, shape-vector arithmetic, and endian helpers.
package types

import "fmt"

// Dtype identifies one of the ten numeric element types the store supports.
type Dtype uint8

const (
	Int8 Dtype = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

// Elem is the set of Go types a typed dataset operation may be instantiated
// over. It mirrors Dtype one-to-one.
type Elem interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Size returns the fixed byte width of the dtype.
func (d Dtype) Size() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		panic(fmt.Sprintf("types: invalid dtype %d", d))
	}
}

// NeedsByteSwap reports whether values of this dtype require endian
// conversion at all; single-byte types never do.
func (d Dtype) NeedsByteSwap() bool {
	return d.Size() > 1
}

func (d Dtype) String() string {
	switch d {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("Dtype(%d)", uint8(d))
	}
}

// zarrDtypeNames maps Dtype to the numpy-style Zarr dtype string with the
// little-endian marker, e.g. "<i4". Single-byte types use the endian-free
// "|" marker per the Zarr convention.
var zarrDtypeNames = map[Dtype]string{
	Int8:    "|i1",
	Int16:   "<i2",
	Int32:   "<i4",
	Int64:   "<i8",
	Uint8:   "|u1",
	Uint16:  "<u2",
	Uint32:  "<u4",
	Uint64:  "<u8",
	Float32: "<f4",
	Float64: "<f8",
}

var zarrNameToDtype = func() map[string]Dtype {
	m := make(map[string]Dtype, len(zarrDtypeNames))
	for d, s := range zarrDtypeNames {
		m[s] = d
	}
	return m
}()

// ZarrDtypeString returns the numpy-style dtype string used in .zarray.
func ZarrDtypeString(d Dtype) (string, error) {
	s, ok := zarrDtypeNames[d]
	if !ok {
		return "", fmt.Errorf("types: unknown dtype %v", d)
	}
	return s, nil
}

// DtypeFromZarrString parses a numpy-style dtype string such as "<f4" or
// "|i1" into a Dtype. Big-endian ('>') Zarr dtypes are rejected: Zarr v2
// arrays are always little-endian per spec.
func DtypeFromZarrString(s string) (Dtype, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("types: invalid dtype string %q", s)
	}
	if s[0] == '>' {
		return 0, fmt.Errorf("types: big-endian dtype %q is not valid for zarr", s)
	}
	d, ok := zarrNameToDtype[s]
	if !ok {
		return 0, fmt.Errorf("types: unsupported dtype string %q", s)
	}
	return d, nil
}

// n5DtypeNames maps Dtype to the N5 "dataType" attribute name.
var n5DtypeNames = map[Dtype]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

var n5NameToDtype = func() map[string]Dtype {
	m := make(map[string]Dtype, len(n5DtypeNames))
	for d, s := range n5DtypeNames {
		m[s] = d
	}
	return m
}()

// N5DtypeString returns the N5 "dataType" attribute string.
func N5DtypeString(d Dtype) (string, error) {
	s, ok := n5DtypeNames[d]
	if !ok {
		return "", fmt.Errorf("types: unknown dtype %v", d)
	}
	return s, nil
}

// DtypeFromN5String parses an N5 "dataType" attribute string.
func DtypeFromN5String(s string) (Dtype, error) {
	d, ok := n5NameToDtype[s]
	if !ok {
		return 0, fmt.Errorf("types: unsupported N5 dataType %q", s)
	}
	return d, nil
}

// DtypeOf returns the Dtype corresponding to a Go element type E.
func DtypeOf[E Elem]() Dtype {
	var zero E
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic("types: unreachable element type")
	}
}
