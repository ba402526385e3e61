package files

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)
	t.Setenv("BITEXT_TEST_DATA", "/data/wmt")

	testCases := []struct {
		input, expected string
	}{
		{"", ""},
		{"corpus/train.de", "corpus/train.de"},
		{"./corpus//train.de", "corpus/train.de"},
		{"~", usr.HomeDir},
		{"~/corpus/train.de", filepath.Join(usr.HomeDir, "corpus/train.de")},
		{"$BITEXT_TEST_DATA/train.de", "/data/wmt/train.de"},
		{"${BITEXT_TEST_DATA}/../x", "/data/x"},
	}
	for _, tc := range testCases {
		got, err := ExpandPath(tc.input)
		require.NoError(t, err)
		assert.Equal(t, filepath.FromSlash(tc.expected), got, "ExpandPath(%q)", tc.input)
	}

	_, err = ExpandPath("~no-such-user-bitext/x")
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Exists(dir))
	p := filepath.Join(dir, "a")
	assert.False(t, Exists(p))
	require.NoError(t, os.WriteFile(p, nil, 0644))
	assert.True(t, Exists(p))
}
