// Package codec implements the compression pipeline from spec §4.4: raw,
// blosc, zlib/gzip, bzip2, lz4, and xz, each operating over typed element
// buffers at the codec boundary and byte buffers at the compressed
// boundary. Codecs are a tagged union (Config), not an inheritance tree,
// per Design Notes §9.
package codec

import "github.com/arrayfs/nstore/types"

// Name identifies a compression codec.
type Name int

const (
	Raw Name = iota
	Blosc
	Zlib // covers both zlib- and gzip-framed deflate; UseZlib picks the framing
	Bzip2
	Lz4
	Xz
)

func (n Name) String() string {
	switch n {
	case Raw:
		return "raw"
	case Blosc:
		return "blosc"
	case Zlib:
		return "zlib"
	case Bzip2:
		return "bzip2"
	case Lz4:
		return "lz4"
	case Xz:
		return "xz"
	default:
		return "unknown"
	}
}

// BloscOptions configures the blosc codec.
type BloscOptions struct {
	Cname   string // one of lz4, lz4hc, snappy, zlib, zstd
	Clevel  int
	Shuffle int // 0=none, 1=byte shuffle, 2=bit shuffle
}

// ZlibOptions configures the zlib/gzip codec. UseZlib selects zlib framing
// (windowBits=15) vs gzip framing (windowBits=15+16); it is forced true
// for Zarr's "zlib" id and false for Zarr's "gzip" id and all N5 gzip.
type ZlibOptions struct {
	Level   int
	UseZlib bool
}

// Bzip2Options configures the bzip2 codec.
type Bzip2Options struct {
	Level int // block size in units of 100 KiB, 1-9
}

// Lz4Options configures the lz4 codec. Level is accepted for metadata
// fidelity only — see spec §9 open question 2.
type Lz4Options struct {
	Level int
}

// XzOptions configures the xz (LZMA2) codec.
type XzOptions struct {
	Preset int // 0-9
}

// Config is the tagged-union compressor configuration: spec's "Compressor
// config: tagged variant over {raw, blosc{...}, zlib{...}, bzip2{...},
// lz4{...}, xz{...}}".
type Config struct {
	Name  Name
	Blosc BloscOptions
	Zlib  ZlibOptions
	Bzip2 Bzip2Options
	Lz4   Lz4Options
	Xz    XzOptions
}

// RawConfig returns the zero-configuration raw (uncompressed) codec config.
func RawConfig() Config { return Config{Name: Raw} }

// Codec is the per-config compress/decompress contract. Compress receives
// a dtype-tagged byte buffer holding nElems elements and returns an
// independently-allocated compressed buffer. Decompress receives a
// compressed buffer and the expected element count and dtype, and returns
// the decoded element bytes (len == nElems*dtype.Size()).
type Codec interface {
	Compress(in []byte, dtype types.Dtype, nElems int) ([]byte, error)
	Decompress(in []byte, dtype types.Dtype, nElems int) ([]byte, error)
}

// New resolves a Config to its Codec implementation.
func New(cfg Config) (Codec, error) {
	switch cfg.Name {
	case Raw:
		return rawCodec{}, nil
	case Blosc:
		return bloscCodec{opts: cfg.Blosc}, nil
	case Zlib:
		return zlibCodec{opts: cfg.Zlib}, nil
	case Bzip2:
		return bzip2Codec{opts: cfg.Bzip2}, nil
	case Lz4:
		return lz4Codec{opts: cfg.Lz4}, nil
	case Xz:
		return xzCodec{opts: cfg.Xz}, nil
	default:
		return nil, &Error{Codec: cfg.Name.String(), Phase: "resolve", Detail: "unknown codec"}
	}
}

// Error is spec §4.4's CodecError{codec, phase, detail}.
type Error struct {
	Codec  string
	Phase  string // "compress", "decompress", or "resolve" (from New)
	Detail string
}

func (e *Error) Error() string {
	return "codec: " + e.Codec + " " + e.Phase + ": " + e.Detail
}
