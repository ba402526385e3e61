package fetch

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gomlx/ml/data/downloader"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// getDownloadManager returns the downloader.Manager set with WithDownloadManager, or creates one for this Fetcher.
// It is safe for concurrent use.
func (f *Fetcher) getDownloadManager() *downloader.Manager {
	f.managerOnce.Do(func() {
		if f.downloadManager == nil {
			f.downloadManager = downloader.New().MaxParallel(f.MaxParallelDownload).WithAuthToken(f.authToken)
		}
	})
	return f.downloadManager
}

// download url to filePath with the download manager, and waits for it to finish.
// If ctx is done first, the download is cancelled.
func (f *Fetcher) download(ctx context.Context, url, filePath string) error {
	result := make(chan error, 1)
	canceller := f.getDownloadManager().Download(url, filePath,
		func(downloadedBytes, totalBytes int64, finished bool, err error) {
			if !finished {
				if f.Verbosity >= 2 && downloadedBytes > 0 {
					klog.Infof("Downloading %q: %s", url, humanize.Bytes(uint64(downloadedBytes)))
				}
				return
			}
			// A cancelled download may report its end more than once: only the first is kept.
			select {
			case result <- err:
			default:
			}
		})
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		canceller.Trigger()
		return ctx.Err()
	}
}

// lockedDownload url to the given filePath.
//
// If filePath exists and forceDownload is false, it is assumed to be complete and it returns immediately.
//
// The contents go first to a session-specific temporary file, which is renamed to filePath once complete.
// A filePath+".lock" file coordinates multiple processes downloading the same file at the same time.
func (f *Fetcher) lockedDownload(ctx context.Context, url, filePath string, forceDownload bool) error {
	if fileExists(filePath) {
		if !forceDownload {
			return nil
		}
		if err := os.Remove(filePath); err != nil {
			return errors.Wrapf(err, "failed to remove %q while force-downloading %q", filePath, url)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", filePath)
	}

	lockPath := filePath + ".lock"
	var mainErr error
	errLock := execOnFileLock(ctx, lockPath, func() {
		if fileExists(filePath) {
			// Downloaded meanwhile by another process or goroutine.
			return
		}

		tmpPath := filePath + "." + SessionId + ".downloading"
		var done bool
		defer func() {
			if done {
				return
			}
			if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				klog.Warningf("Failed removing temporary file %q: %v", tmpPath, err)
			}
		}()

		if f.Verbosity >= 2 {
			klog.Infof("Downloading %q to %q", url, tmpPath)
		}
		if err := f.download(ctx, url, tmpPath); err != nil {
			mainErr = errors.WithMessagef(err, "while downloading %q to %q", url, tmpPath)
			return
		}
		if err := os.Rename(tmpPath, filePath); err != nil {
			mainErr = errors.Wrapf(err, "failed to move downloaded file %q to %q", tmpPath, filePath)
			return
		}
		done = true
		if f.Verbosity >= 1 {
			klog.Infof("Downloaded %q to %q", url, filePath)
		}

		// The file exists now, so the lock file is no longer needed.
		if err := os.Remove(lockPath); err != nil {
			klog.Warningf("Error removing lock file %q: %v", lockPath, err)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to download %q", lockPath, url)
	}
	return nil
}

// execOnFileLock opens the lockPath file (creating it if needed), locks it and executes fn.
// While lockPath is held by someone else, it polls every 1 to 2 seconds (randomly) until the lock is acquired
// or ctx is done.
//
// The lockPath is not removed. fn may remove it if it knows no further calls with the same lockPath will be made.
func execOnFileLock(ctx context.Context, lockPath string, fn func()) (err error) {
	var lockFile *os.File
	lockFile, err = os.OpenFile(lockPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, DefaultFileCreationPerm)
	if err != nil {
		return errors.Wrapf(err, "while locking %q", lockPath)
	}
	defer func() {
		if closeErr := lockFile.Close(); closeErr != nil {
			klog.Warningf("Failed to close lock file %q: %v", lockPath, closeErr)
		}
	}()

	for {
		err = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			return errors.Wrapf(err, "while locking %q", lockPath)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond * time.Duration(1000+rand.IntN(1000))):
		}
	}

	// Unlock in a deferred function, so it happens even if fn panics.
	defer func() {
		if unlockErr := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN); unlockErr != nil && err == nil {
			err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
		}
	}()

	fn()
	return nil
}
