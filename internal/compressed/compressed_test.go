package compressed

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const content = "the cat sat\non the mat\n"

func writeWith(t *testing.T, filePath string, newWriter func(w io.Writer) io.WriteCloser) {
	f, err := os.Create(filePath)
	require.NoError(t, err)
	w := newWriter(f)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		name      string
		newWriter func(w io.Writer) io.WriteCloser
	}{
		{"plain.txt", func(w io.Writer) io.WriteCloser { return nopWriteCloser{w} }},
		{"corpus.gz", func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) }},
		{"corpus.zst", func(w io.Writer) io.WriteCloser {
			enc, err := zstd.NewWriter(w)
			require.NoError(t, err)
			return enc
		}},
		{"corpus.lz4", func(w io.Writer) io.WriteCloser { return lz4.NewWriter(w) }},
		{"corpus.br", func(w io.Writer) io.WriteCloser { return brotli.NewWriter(w) }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filePath := filepath.Join(dir, tc.name)
			writeWith(t, filePath, tc.newWriter)
			rc, err := Open(filePath)
			require.NoError(t, err)
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, content, string(got))
		})
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)

	// A ".gz" file that is not gzip fails at open time.
	bogus := filepath.Join(dir, "bogus.gz")
	require.NoError(t, os.WriteFile(bogus, []byte(content), 0644))
	_, err = Open(bogus)
	require.Error(t, err)
}

func TestTrimExt(t *testing.T) {
	testCases := []struct {
		input, expected string
	}{
		{"vocab.json", "vocab.json"},
		{"vocab.json.gz", "vocab.json"},
		{"train.de.zst", "train.de"},
		{"train.de.ZSTD", "train.de"},
		{"dict.yaml.br", "dict.yaml"},
		{"noext", "noext"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, TrimExt(tc.input), "TrimExt(%q)", tc.input)
	}
	assert.True(t, IsCompressed("a.bz2"))
	assert.False(t, IsCompressed("a.txt"))
}
