package codec

import "github.com/arrayfs/nstore/types"

// rawCodec memcpys both directions; spec §4.4 "raw: memcpy both directions".
type rawCodec struct{}

func (rawCodec) Compress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	out := make([]byte, len(in))
	copy(out, in)
	return out, nil
}

func (rawCodec) Decompress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	want := nElems * dtype.Size()
	if len(in) < want {
		return nil, &Error{Codec: "raw", Phase: "decompress", Detail: "input shorter than expected element count"}
	}
	out := make([]byte, want)
	copy(out, in[:want])
	return out, nil
}
