// Package files implements generic file tools missing from the standard library.
package files

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Exists returns true if file or directory exists.
func Exists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// ExpandPath replaces environment variables ("$HOME", "${DATA}") and a leading "~" or "~user" in filePath,
// and cleans the result.
//
// It returns an error if filePath refers to an unknown user (e.g: `~unknown/...`).
func ExpandPath(filePath string) (string, error) {
	if filePath == "" {
		return "", nil
	}
	filePath = os.ExpandEnv(filePath)
	if !strings.HasPrefix(filePath, "~") {
		return filepath.Clean(filePath), nil
	}
	userName, rest, _ := strings.Cut(filePath[1:], "/")
	var usr *user.User
	var err error
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return filePath, errors.Wrapf(err, "failed to lookup home directory for user in path %q", filePath)
	}
	return filepath.Join(usr.HomeDir, rest), nil
}
