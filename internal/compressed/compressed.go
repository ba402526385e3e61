// Package compressed opens files transparently decompressing them, based on their extension.
package compressed

import (
	"compress/bzip2"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Codec identifies a compression format.
type Codec int

const (
	None Codec = iota
	Gzip
	Zstd
	LZ4
	Bzip2
	Brotli
)

var extToCodec = map[string]Codec{
	".gz":   Gzip,
	".zst":  Zstd,
	".zstd": Zstd,
	".lz4":  LZ4,
	".bz2":  Bzip2,
	".br":   Brotli,
}

// CodecFor returns the Codec for the file path, or None if its extension is not a known compression format.
func CodecFor(filePath string) Codec {
	return extToCodec[strings.ToLower(filepath.Ext(filePath))]
}

// IsCompressed returns whether filePath has a known compression extension.
func IsCompressed(filePath string) bool {
	return CodecFor(filePath) != None
}

// TrimExt removes the compression extension from filePath, if there is one.
// E.g.: "vocab.json.gz" -> "vocab.json".
func TrimExt(filePath string) string {
	if !IsCompressed(filePath) {
		return filePath
	}
	return strings.TrimSuffix(filePath, filepath.Ext(filePath))
}

// Open the file for reading, decompressing it on the fly if its extension is one of
// ".gz", ".zst", ".zstd", ".lz4", ".bz2" or ".br".
//
// Closing the returned reader also closes the underlying file.
func Open(filePath string) (io.ReadCloser, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %q", filePath)
	}
	rc, err := wrap(f, CodecFor(filePath))
	if err != nil {
		_ = f.Close()
		return nil, errors.WithMessagef(err, "while opening %q", filePath)
	}
	return rc, nil
}

// wrap f with a decompressor for codec.
func wrap(f *os.File, codec Codec) (io.ReadCloser, error) {
	switch codec {
	case Gzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "invalid gzip header")
		}
		return &readCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case Zstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create zstd decoder")
		}
		return &readCloser{Reader: dec, closers: []io.Closer{dec.IOReadCloser(), f}}, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, nil
	case Bzip2:
		return &readCloser{Reader: bzip2.NewReader(f), closers: []io.Closer{f}}, nil
	case Brotli:
		return &readCloser{Reader: brotli.NewReader(f), closers: []io.Closer{f}}, nil
	}
	return f, nil
}

// readCloser closes the decompressor before the file it reads from.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var firstErr error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
