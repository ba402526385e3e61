// Package fetch resolves the locations of corpora and dictionaries into local file paths.
//
// Locations can be local paths (with "~" and environment variables expanded) or http(s) URLs, which are downloaded
// once into a cache directory (see DefaultCacheDir) and reused afterwards. Concurrent programs downloading the same
// URL coordinate with lock files, so the file is downloaded only once.
package fetch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SessionId is unique and always created anew at the start of the program, and used during the life of the program.
// It names the temporary files of in-progress downloads.
var SessionId string

// panicf generates an error message and panics with it, in one function.
func panicf(format string, args ...any) {
	err := errors.Errorf(format, args...)
	panic(err)
}

func init() {
	sessionUUID, err := uuid.NewRandom()
	if err != nil {
		panicf("failed generating UUID for SessionId: %v", err)
	}
	SessionId = strings.Replace(sessionUUID.String(), "-", "", -1)
}

var (
	// DefaultDirCreationPerm is used when creating new cache subdirectories.
	DefaultDirCreationPerm = os.FileMode(0755)

	// DefaultFileCreationPerm is used when creating files inside the cache subdirectories.
	DefaultFileCreationPerm = os.FileMode(0644)
)

func getEnvOr(key, defaultValue string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v
}

// fileExists returns true if file or directory exists.
func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	panic(err)
}

// DefaultCacheDir for downloaded corpora and dictionaries.
//
// Its prefix is either `${XDG_CACHE_HOME}` if set, or `~/.cache` otherwise. Followed by `/bitext/`.
// So typically: `~/.cache/bitext/`.
func DefaultCacheDir() string {
	cacheDir := getEnvOr("XDG_CACHE_HOME", filepath.Join(os.Getenv("HOME"), ".cache"))
	return filepath.Join(cacheDir, "bitext")
}

// IsURL returns whether location is an http or https URL, as opposed to a local path.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
