package codec

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/arrayfs/nstore/logging"
	"github.com/arrayfs/nstore/types"
)

// streamBufSize is the streaming intermediate buffer size spec §4.4 calls
// for ("a 256 KiB intermediate").
const streamBufSize = 256 * 1024

// smallInputExceptionBytes is the compat threshold from spec §4.4: when the
// uncompressed element bytes (nElems*dtype size) number at most this many,
// gzip-configured ("useZlib=false") datasets are still framed as zlib. This is observable cross-
// implementation behavior and must be preserved exactly.
const smallInputExceptionBytes = 22

// zlibCodec implements the zlib/gzip codec. windowBits=15+16 (gzip
// framing) vs windowBits=15 (zlib framing) is realized in Go by choosing
// between compress/gzip and compress/zlib, matching spec §4.4.
type zlibCodec struct {
	opts ZlibOptions
}

func (c zlibCodec) useZlibFraming(nBytes int) bool {
	if c.opts.UseZlib {
		return true
	}
	return nBytes <= smallInputExceptionBytes
}

func (c zlibCodec) Compress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	var buf bytes.Buffer
	level := c.opts.Level
	if level == 0 {
		level = 5
	}
	useZlib := c.useZlibFraming(len(in))

	if useZlib {
		w, err := zlib.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, &Error{Codec: "zlib", Phase: "compress", Detail: err.Error()}
		}
		bw := bufio.NewWriterSize(w, streamBufSize)
		if _, err := bw.Write(in); err != nil {
			return nil, &Error{Codec: "zlib", Phase: "compress", Detail: err.Error()}
		}
		if err := bw.Flush(); err != nil {
			return nil, &Error{Codec: "zlib", Phase: "compress", Detail: err.Error()}
		}
		if err := w.Close(); err != nil {
			return nil, &Error{Codec: "zlib", Phase: "compress", Detail: err.Error()}
		}
	} else {
		w, err := gzip.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, &Error{Codec: "gzip", Phase: "compress", Detail: err.Error()}
		}
		bw := bufio.NewWriterSize(w, streamBufSize)
		if _, err := bw.Write(in); err != nil {
			return nil, &Error{Codec: "gzip", Phase: "compress", Detail: err.Error()}
		}
		if err := bw.Flush(); err != nil {
			return nil, &Error{Codec: "gzip", Phase: "compress", Detail: err.Error()}
		}
		if err := w.Close(); err != nil {
			return nil, &Error{Codec: "gzip", Phase: "compress", Detail: err.Error()}
		}
	}
	// Compressed sizes must be truncated to the actual bytes written
	// (spec §4.4); bytes.Buffer already holds exactly that.
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (c zlibCodec) Decompress(in []byte, dtype types.Dtype, nElems int) ([]byte, error) {
	want := nElems * dtype.Size()

	var r io.ReadCloser
	var err error
	// Framing was negotiated at metadata time; we don't sniff magic bytes,
	// we decode with the framing the metadata told us to use. The small-
	// input exception applies identically on read as on write.
	if c.useZlibFraming(want) {
		r, err = zlib.NewReader(bytes.NewReader(in))
		if err != nil {
			return nil, &Error{Codec: "zlib", Phase: "decompress", Detail: err.Error()}
		}
	} else {
		r, err = gzip.NewReader(bytes.NewReader(in))
		if err != nil {
			return nil, &Error{Codec: "gzip", Phase: "decompress", Detail: err.Error()}
		}
	}
	defer r.Close()

	out := make([]byte, want)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, &Error{Codec: "zlib", Phase: "decompress", Detail: err.Error()}
	}
	// Open question §9 #1: some encoders omit the terminal
	// Z_STREAM_END marker for specific inputs. We already have
	// the expected element count, so treat this as success but
	// log it — preserves read compatibility without silently
	// swallowing genuine corruption (which fails io.ReadFull
	// with n < want).
	if _, err := r.Read(make([]byte, 1)); err == io.ErrUnexpectedEOF {
		logging.Logger().WithField("codec", "zlib").
			Warn("decoded expected element count without a stream trailer")
	}
	return out, nil
}
