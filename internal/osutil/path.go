// Package osutil contains small filesystem helpers.
package osutil

import (
	"os"
	"path/filepath"
	"strings"
)

// UserHomeDir is similar to os.UserHomeDir, but prefers $HOME when available
// over other options (such as USERPROFILE on Windows).
func UserHomeDir() (string, error) {
	if h := os.Getenv("HOME"); h != "" {
		return h, nil
	}
	return os.UserHomeDir()
}

// NormalizeFilePath expands a leading ~ and any environment variables in
// path and makes it absolute. An empty path stays empty.
func NormalizeFilePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}

	path = os.ExpandEnv(path)

	return filepath.Abs(path)
}

// FileExists reports whether os.Stat succeeds on filename.
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
