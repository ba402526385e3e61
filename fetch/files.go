package fetch

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gomlx/go-bitext/internal/files"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// cleanRelativeFilePath cleans p and makes sure it is relative and doesn't escape upwards with "..".
// It returns "." if nothing is left.
func cleanRelativeFilePath(p string) string {
	p = path.Clean("/" + filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		p = "."
	}
	return filepath.FromSlash(p)
}

// cachePath returns where in the cache the contents of the given URL are stored: <cacheDir>/<host>/<path>.
func (f *Fetcher) cachePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "invalid URL %q", rawURL)
	}
	if u.Host == "" {
		return "", errors.Errorf("URL %q has no host", rawURL)
	}
	rel := cleanRelativeFilePath(u.Path)
	if rel == "." {
		return "", errors.Errorf("URL %q doesn't point to a file", rawURL)
	}
	return filepath.Join(f.cacheDir, cleanRelativeFilePath(u.Host), rel), nil
}

// Resolve returns a local path for the given location.
//
// Local paths have "~" and environment variables expanded, and must exist. URLs are downloaded into the cache
// directory, unless they are already there (see WithForceDownload), and the path to the cached file is returned.
// The returned cached paths can be read, but shouldn't be modified, since there may be other programs using the same
// files.
func (f *Fetcher) Resolve(ctx context.Context, location string) (string, error) {
	if !IsURL(location) {
		localPath, err := files.ExpandPath(location)
		if err != nil {
			return "", err
		}
		if !files.Exists(localPath) {
			return "", errors.Wrapf(os.ErrNotExist, "file %q", localPath)
		}
		return localPath, nil
	}

	filePath, err := f.cachePath(location)
	if err != nil {
		return "", err
	}
	if err := f.createCacheDir(); err != nil {
		return "", errors.Wrapf(err, "failed to create cache directory %q", f.cacheDir)
	}
	if err := f.lockedDownload(ctx, location, filePath, f.forceDownload); err != nil {
		return "", err
	}
	if f.Verbosity >= 2 {
		klog.Infof("Resolved %q to %q", location, filePath)
	}
	return filePath, nil
}

// ResolveAll resolves all locations concurrently, at most MaxParallelDownload at a time (no limit if <= 0),
// and returns the local paths in the same order. Empty locations resolve to empty paths.
//
// The first error cancels the resolutions still in progress and is returned.
func (f *Fetcher) ResolveAll(ctx context.Context, locations ...string) ([]string, error) {
	paths := make([]string, len(locations))
	g, gCtx := errgroup.WithContext(ctx)
	if f.MaxParallelDownload > 0 {
		g.SetLimit(f.MaxParallelDownload)
	}
	for i, location := range locations {
		if location == "" {
			continue
		}
		g.Go(func() error {
			p, err := f.Resolve(gCtx, location)
			if err != nil {
				return err
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// String implements fmt.Stringer.
func (f *Fetcher) String() string {
	return "Fetcher(cache=" + f.cacheDir + ")"
}
