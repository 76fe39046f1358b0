package tensorio

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/thepudds/sptensor"
)

// Codec is a stream compression format for tensor files.
type Codec string

const (
	// CodecNone is plain text.
	CodecNone Codec = ""
	// CodecGzip is gzip, for files ending in .gz.
	CodecGzip Codec = "gzip"
	// CodecZstd is zstandard, for files ending in .zst.
	CodecZstd Codec = "zstd"
	// CodecLZ4 is the lz4 frame format, for files ending in .lz4.
	CodecLZ4 Codec = "lz4"
)

// CodecFor picks a codec from a file name's extension.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CodecGzip
	case ".zst", ".zstd":
		return CodecZstd
	case ".lz4":
		return CodecLZ4
	default:
		return CodecNone
	}
}

// NewReader returns a reader that decompresses r. Closing it does not
// close r.
func NewReader(r io.Reader, c Codec) (io.ReadCloser, error) {
	switch c {
	case CodecNone:
		return io.NopCloser(r), nil
	case CodecGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "opening gzip stream")
		}
		return zr, nil
	case CodecZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "opening zstd stream")
		}
		return zr.IOReadCloser(), nil
	case CodecLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, errors.Errorf("unknown codec %q", c)
	}
}

// NewWriter returns a writer that compresses into w. It must be closed to
// flush the stream. Closing it does not close w.
func NewWriter(w io.Writer, c Codec) (io.WriteCloser, error) {
	switch c {
	case CodecNone:
		return nopWriteCloser{w}, nil
	case CodecGzip:
		return gzip.NewWriter(w), nil
	case CodecZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, errors.Wrap(err, "opening zstd stream")
		}
		return zw, nil
	case CodecLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, errors.Errorf("unknown codec %q", c)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// ReadFile reads a tensor from path, decompressing by extension.
func ReadFile(path string, opts ...ReadOption) (*sptensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening tensor file")
	}
	defer f.Close()

	r, err := NewReader(f, CodecFor(path))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	defer r.Close()

	t, err := Read(r, opts...)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	log.Infof("read %s: %d entries, rank %d", path, t.Len(), t.Rank())
	return t, nil
}

// WriteFile writes t to path, compressing by extension.
func WriteFile(path string, t *sptensor.Tensor) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating tensor file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, path)
		}
	}()

	w, err := NewWriter(f, CodecFor(path))
	if err != nil {
		return errors.Wrap(err, path)
	}
	if err := Write(w, t); err != nil {
		w.Close()
		return errors.Wrap(err, path)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "%s: closing %s stream", path, CodecFor(path))
	}
	log.Infof("wrote %s: %d entries", path, t.Len())
	return nil
}
