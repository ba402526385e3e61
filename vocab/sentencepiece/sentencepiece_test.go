package sentencepiece

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/go-bitext/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistered(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.model")
	require.NoError(t, os.WriteFile(bogus, []byte("not a proto"), 0644))
	_, err := vocab.Load(bogus)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "unknown dictionary format")
}

// testdata/tiny.model pieces:
//
//	0 <unk> (unknown)   1 <bos>, 2 <eos>, 3 <pad> (control)
//	4 "▁hello"          5 "world"          6 "▁"
//	7 "hello"           8 "a▁b"            9 <mask> (control)
func TestLoad(t *testing.T) {
	d, err := vocab.Load(filepath.Join("testdata", "tiny.model"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "tiny.model"), d.Path())
	assert.Equal(t, 2, d.Len())

	// "▁hello" decodes to " hello", and wins over the later "hello".
	idx, found := d.Index("hello")
	require.True(t, found)
	assert.Equal(t, 4, idx)
	idx, found = d.Index("world")
	require.True(t, found)
	assert.Equal(t, 5, idx)

	for _, token := range []string{"<unk>", "<bos>", "<eos>", "<pad>", "<mask>", "", "a b", "a▁b", "▁hello"} {
		_, found := d.Index(token)
		assert.False(t, found, "token %q", token)
	}
	assert.Equal(t, vocab.UnknownIndex, d.Lookup("a b"))
}
