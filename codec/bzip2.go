package codec

import (
	"bytes"
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/arrayfs/nstore/types"
)

// bzip2Codec streams through dsnet/compress/bzip2, which (unlike stdlib
// compress/bzip2) supports writing. The spec's "BZ_FINISH loop until
// end-of-stream" and workFactor=30 are libbzip2 C-API internals with no
// analogue in this pure-Go implementation; Level is the one knob both
// expose.
type bzip2Codec struct {
	opts Bzip2Options
}

func (c bzip2Codec) Compress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	level := c.opts.Level
	if level == 0 {
		level = 6
	}
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: level})
	if err != nil {
		return nil, &Error{Codec: "bzip2", Phase: "compress", Detail: err.Error()}
	}
	if _, err := w.Write(in); err != nil {
		return nil, &Error{Codec: "bzip2", Phase: "compress", Detail: err.Error()}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Codec: "bzip2", Phase: "compress", Detail: err.Error()}
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (c bzip2Codec) Decompress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	want := nElems * dtype.Size()
	r, err := bzip2.NewReader(bytes.NewReader(in), nil)
	if err != nil {
		return nil, &Error{Codec: "bzip2", Phase: "decompress", Detail: err.Error()}
	}
	defer r.Close()
	out := make([]byte, want)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, &Error{Codec: "bzip2", Phase: "decompress", Detail: err.Error()}
	}
	return out, nil
}
