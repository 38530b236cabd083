// Package filex holds small file helpers for data the CLI keeps on disk.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// userHomeDir is a seam for tests.
var userHomeDir = os.UserHomeDir

// EnsureHomeSubdir creates dirName under the user's home directory with
// owner-only permissions and returns its path.
func EnsureHomeSubdir(dirName string) (string, error) {
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}

	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// WritePrivateFile atomically replaces path with data, readable only by the
// owner. The parent directory must exist.
func WritePrivateFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
