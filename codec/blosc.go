package codec

import (
	blosc "github.com/mrjoshuak/go-blosc"

	"github.com/arrayfs/nstore/types"
)

// bloscCodec wraps the blosc context API per spec §4.4: block size auto,
// single internal thread, shuffle in {0,1,2}, codec names
// {lz4,lz4hc,snappy,zlib,zstd}. Parameter shape follows the blosc C API
// (clevel, shuffle, typesize, src, cname) exactly as the original z5
// BloscCompressor calls blosc_compress_ctx.
type bloscCodec struct {
	opts BloscOptions
}

func (c bloscCodec) Compress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	out, err := blosc.Compress(c.opts.Clevel, c.opts.Shuffle, dtype.Size(), in, c.opts.Cname)
	if err != nil {
		return nil, &Error{Codec: "blosc", Phase: "compress", Detail: err.Error()}
	}
	return out, nil
}

func (c bloscCodec) Decompress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	out, err := blosc.Decompress(in)
	if err != nil {
		return nil, &Error{Codec: "blosc", Phase: "decompress", Detail: err.Error()}
	}
	want := nElems * dtype.Size()
	if len(out) < want {
		return nil, &Error{Codec: "blosc", Phase: "decompress", Detail: "decompressed size smaller than expected element count"}
	}
	return out[:want], nil
}
