package scanner

import (
	"fmt"
	"path/filepath"
)

// CanonicalPath returns the absolute, cleaned form of path. The bytes of each
// name are kept as the filesystem reported them, so the result can always be
// opened again and is the deduplication key for jobs.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path for %q: %w", path, err)
	}
	return filepath.Clean(abs), nil
}
