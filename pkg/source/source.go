// Package source locates the exported chat transcript in the data directory.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

const (
	DefaultDir     = "expenses/data"
	DefaultPattern = "WhatsApp Chat*.txt"
)

// ErrSourceNotFound is returned when no transcript matches the pattern.
var ErrSourceNotFound = errors.New("no chat transcript found")

// Find returns the first file in dir matching pattern, in lexical order.
func Find(fs afero.Fs, dir, pattern string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if pattern == "" {
		pattern = DefaultPattern
	}

	matches, err := afero.Glob(fs, filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("invalid transcript pattern %q: %w", pattern, err)
	}

	files := matches[:0]
	for _, m := range matches {
		if info, err := fs.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s matching %q", ErrSourceNotFound, dir, pattern)
	}

	sort.Strings(files)
	return files[0], nil
}

// Open finds the transcript and opens it.
func Open(fs afero.Fs, dir, pattern string) (afero.File, string, error) {
	path, err := Find(fs, dir, pattern)
	if err != nil {
		return nil, "", err
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open transcript: %w", err)
	}
	return f, path, nil
}
