package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/lz4"

	"github.com/arrayfs/nstore/types"
)

// lz4Codec wraps klauspost/compress/lz4's block-compression writer/reader.
// Level is accepted in Lz4Options for metadata fidelity but is not applied
// here — spec §9 open question 2 explicitly keeps this field undefined
// behavior-wise, matching the original z5 Lz4Compressor.
type lz4Codec struct {
	opts Lz4Options
}

func (c lz4Codec) Compress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(in); err != nil {
		return nil, &Error{Codec: "lz4", Phase: "compress", Detail: err.Error()}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Codec: "lz4", Phase: "compress", Detail: err.Error()}
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (c lz4Codec) Decompress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	want := nElems * dtype.Size()
	r := lz4.NewReader(bytes.NewReader(in))
	out := make([]byte, want)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, &Error{Codec: "lz4", Phase: "decompress", Detail: err.Error()}
	}
	return out, nil
}
