package codec

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/arrayfs/nstore/types"
)

// presetDictCap maps an xz preset level (0-9) onto the LZMA2 dictionary
// capacity ulikunitz/xz's WriterConfig accepts directly, since the
// library does not expose the preset table itself.
func presetDictCap(preset int) int {
	if preset < 0 || preset > 9 {
		preset = 6
	}
	// 1 MiB at preset 0, doubling per preset up to 64 MiB (presets 6-9
	// saturate at 64 MiB, matching xz's own preset table shape).
	capMiB := 1 << uint(preset)
	if capMiB > 64 {
		capMiB = 64
	}
	return capMiB * 1024 * 1024
}

// xzCodec wraps ulikunitz/xz's LZMA2 stream, configured by Preset (0-9)
// per spec §4.4.
type xzCodec struct {
	opts XzOptions
}

func (c xzCodec) Compress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := (xz.WriterConfig{DictCap: presetDictCap(c.opts.Preset)}).NewWriter(&buf)
	if err != nil {
		return nil, &Error{Codec: "xz", Phase: "compress", Detail: err.Error()}
	}
	if _, err := w.Write(in); err != nil {
		return nil, &Error{Codec: "xz", Phase: "compress", Detail: err.Error()}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Codec: "xz", Phase: "compress", Detail: err.Error()}
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (c xzCodec) Decompress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	want := nElems * dtype.Size()
	r, err := xz.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, &Error{Codec: "xz", Phase: "decompress", Detail: err.Error()}
	}
	out := make([]byte, want)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, &Error{Codec: "xz", Phase: "decompress", Detail: err.Error()}
	}
	return out, nil
}
