package fetch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRelativeFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"corpus/train.de", "corpus/train.de"},
		{"corpus/../train.de", "train.de"},
		{"corpus/./train.de", "corpus/train.de"},
		{"/corpus/train.de", "corpus/train.de"},
		{"corpus//train.de", "corpus/train.de"},
		{"corpus/train/..", "corpus"},
		{"../corpus/train.de", "corpus/train.de"},
		{"corpus/../../../..", "."},
		{"corpus/../../../vocab.json", "vocab.json"},
		{"", "."},
		{".", "."},
		{"..", "."},
	}
	for _, tc := range testCases {
		assert.Equal(t, filepath.FromSlash(tc.expected), cleanRelativeFilePath(tc.input), "input %q", tc.input)
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/train.de.gz"))
	assert.True(t, IsURL("http://example.com/vocab.json"))
	assert.False(t, IsURL("/data/train.de"))
	assert.False(t, IsURL("~/train.de"))
	assert.False(t, IsURL("ftp://example.com/train.de"))
}

func TestCachePath(t *testing.T) {
	cacheDir := t.TempDir()
	f := New().WithCacheDir(cacheDir)
	got, err := f.cachePath("https://example.com/wmt/../de-en/train.de.gz?x=1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cacheDir, "example.com", "de-en", "train.de.gz"), got)

	_, err = f.cachePath("https://example.com/")
	require.Error(t, err)
	_, err = f.cachePath("https:///train.de")
	require.Error(t, err)
}

func TestResolveLocal(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "train.de")
	require.NoError(t, os.WriteFile(filePath, []byte("a b c\n"), 0644))
	t.Setenv("BITEXT_TEST_DIR", dir)

	f := New().WithCacheDir(t.TempDir())
	got, err := f.Resolve(context.Background(), "${BITEXT_TEST_DIR}/train.de")
	require.NoError(t, err)
	assert.Equal(t, filePath, got)

	_, err = f.Resolve(context.Background(), filepath.Join(dir, "missing.de"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveCachedURL(t *testing.T) {
	cacheDir := t.TempDir()
	cached := filepath.Join(cacheDir, "example.com", "de-en", "vocab.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cached), 0755))
	require.NoError(t, os.WriteFile(cached, []byte(`{"eos": 0, "UNK": 1}`), 0644))

	// Already in the cache: no download is attempted.
	f := New().WithCacheDir(cacheDir)
	got, err := f.Resolve(context.Background(), "https://example.com/de-en/vocab.json")
	require.NoError(t, err)
	assert.Equal(t, cached, got)
}

func TestResolveAll(t *testing.T) {
	dir := t.TempDir()
	var locations []string
	for _, name := range []string{"train.de", "train.en", "mono.de"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, nil, 0644))
		locations = append(locations, p)
	}
	locations = append(locations, "")

	f := New().WithCacheDir(t.TempDir())
	f.MaxParallelDownload = 1
	got, err := f.ResolveAll(context.Background(), locations...)
	require.NoError(t, err)
	assert.Equal(t, locations, got)

	_, err = f.ResolveAll(context.Background(), locations[0], filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestExecOnFileLockCancelled(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "x.lock")
	ctx, cancel := context.WithCancel(context.Background())
	var inner error
	err := execOnFileLock(ctx, lockPath, func() {
		// A second lock on the same file, from another descriptor, has to wait.
		cancel()
		inner = execOnFileLock(ctx, lockPath, func() { t.Fatal("must not acquire the lock twice") })
	})
	require.NoError(t, err)
	require.ErrorIs(t, inner, context.Canceled)
}

// leftoverFiles lists lock files and unfinished downloads under dir.
func leftoverFiles(t *testing.T, dir string, suffixes ...string) []string {
	t.Helper()
	var found []string
	err := filepath.WalkDir(dir, func(p string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		for _, suffix := range suffixes {
			if strings.HasSuffix(p, suffix) {
				found = append(found, p)
			}
		}
		return nil
	})
	require.NoError(t, err)
	return found
}

func TestResolveAllDownloads(t *testing.T) {
	contents := make(map[string]string)
	var urlPaths []string
	for i := range 6 {
		urlPath := fmt.Sprintf("/wmt/part%d.de", i)
		urlPaths = append(urlPaths, urlPath)
		contents[urlPath] = strings.Repeat(fmt.Sprintf("sentence number %d\n", i), 1000*(i+1))
	}
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		body, found := contents[r.URL.Path]
		if !found {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	f := New().WithCacheDir(cacheDir)
	f.Verbosity = 0
	f.MaxParallelDownload = 3
	var locations []string
	for _, urlPath := range urlPaths {
		locations = append(locations, server.URL+urlPath)
	}
	ctx := context.Background()
	got, err := f.ResolveAll(ctx, locations...)
	require.NoError(t, err)
	require.Len(t, got, len(locations))
	for i, p := range got {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, contents[urlPaths[i]], string(data))
		assert.True(t, strings.HasPrefix(p, cacheDir), "%q not in cache %q", p, cacheDir)
	}
	assert.Empty(t, leftoverFiles(t, cacheDir, ".lock", ".downloading"))
	assert.Equal(t, int32(6), requests.Load())

	// Cached files are not downloaded again, unless forced.
	again, err := f.ResolveAll(ctx, locations...)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, int32(6), requests.Load())

	f.WithForceDownload(true)
	_, err = f.Resolve(ctx, locations[0])
	require.NoError(t, err)
	assert.Equal(t, int32(7), requests.Load())
	f.WithForceDownload(false)

	// Failed downloads leave no partial file behind.
	_, err = f.ResolveAll(ctx, locations[1], server.URL+"/wmt/missing.de")
	require.ErrorContains(t, err, "404")
	assert.Empty(t, leftoverFiles(t, cacheDir, ".downloading"))
	assert.NoFileExists(t, filepath.Join(cacheDir, cleanRelativeFilePath(strings.TrimPrefix(server.URL, "http://")),
		"wmt", "missing.de"))
}

func TestResolveCancelled(t *testing.T) {
	requested, release := make(chan struct{}, 1), make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested <- struct{}{}
		w.Header().Set("Content-Length", "1000")
		_, _ = io.WriteString(w, "partial")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	f := New().WithCacheDir(t.TempDir())
	f.Verbosity = 0
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := f.Resolve(ctx, server.URL+"/slow.de")
		errCh <- err
	}()
	<-requested
	cancel()
	err := <-errCh
	require.ErrorIs(t, err, context.Canceled)
	assert.ErrorContains(t, err, "slow.de")
}
