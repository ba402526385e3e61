package fetch

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/gomlx/go-bitext/internal/files"
	"github.com/gomlx/gomlx/ml/data/downloader"
	"k8s.io/klog/v2"
)

// Fetcher resolves locations to local files, downloading remote ones into its cache. Create it with New.
type Fetcher struct {
	// authToken is sent as bearer token when downloading the files.
	authToken string

	// Verbosity: 0 for quiet operation; 1 for information about progress; 2 and higher for debugging.
	Verbosity int

	// MaxParallelDownload indicates how many files to download at the same time. Default is 20.
	// If set to <= 0 it will download all files in parallel.
	// Set to 1 to make downloads sequential.
	MaxParallelDownload int

	// cacheDir is where to store the downloaded files.
	cacheDir string

	// forceDownload downloads files again even if they are already in the cache.
	forceDownload bool

	downloadManager *downloader.Manager
	managerOnce     sync.Once
}

// New creates a Fetcher.
//
// It uses the default cache directory in ${XDG_CACHE_HOME} (if set) or `~/.cache`, followed by "bitext".
// Use Fetcher.WithCacheDir to change it.
//
// If authentication is needed, use Fetcher.WithAuth.
func New() *Fetcher {
	return &Fetcher{
		cacheDir:            DefaultCacheDir(),
		Verbosity:           1,
		MaxParallelDownload: 20, // At most 20 parallel downloads.
	}
}

// WithAuth sets the authentication token to use during downloads.
//
// Setting it to empty ("") is the same as resetting and not using authentication.
func (f *Fetcher) WithAuth(authToken string) *Fetcher {
	f.authToken = authToken
	return f
}

// WithCacheDir sets the cacheDir to the given directory. "~" and environment variables are expanded.
//
// The default is given by DefaultCacheDir: `${XDG_CACHE_HOME}/bitext` if set, or `~/.cache/bitext` otherwise.
func (f *Fetcher) WithCacheDir(cacheDir string) *Fetcher {
	newCacheDir, err := files.ExpandPath(cacheDir)
	if err == nil {
		f.cacheDir = filepath.Clean(newCacheDir)
	} else {
		klog.Errorf("Failed to resolve directory for %q: %+v", cacheDir, err)
	}
	return f
}

// WithForceDownload makes the Fetcher download remote files again, even if they are already in the cache.
func (f *Fetcher) WithForceDownload(forceDownload bool) *Fetcher {
	f.forceDownload = forceDownload
	return f
}

// WithDownloadManager sets the downloader.Manager to use for download.
// This is not needed, one will be created automatically if one is not set.
// This is useful when sharing the download limits with other programs parts, like a gomlx dataset download.
func (f *Fetcher) WithDownloadManager(manager *downloader.Manager) *Fetcher {
	f.downloadManager = manager
	return f
}

// CacheDir returns the directory where remote files are downloaded to.
func (f *Fetcher) CacheDir() string {
	return f.cacheDir
}

// createCacheDir creates the cache directory, if it doesn't exist yet.
func (f *Fetcher) createCacheDir() error {
	return os.MkdirAll(f.cacheDir, DefaultDirCreationPerm)
}
