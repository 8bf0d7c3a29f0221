//go:build windows

package ops

import (
	"os"
)

// createNoFollow creates path for writing. O_NOFOLLOW is unavailable on Windows;
// ValidateExportPath has already rejected symlinks.
func createNoFollow(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
}
