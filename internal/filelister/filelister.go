// Package filelister expands local glob patterns into artifact paths.
package filelister

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

var errPatternRequired = errors.New("file pattern must be provided")

// Lister enumerates regular files matching a glob on the local filesystem.
type Lister struct{}

// New creates a Lister.
func New() *Lister {
	return &Lister{}
}

// List returns regular files matching pattern in lexicographic order.
// A pattern without matches yields an empty list.
func (l *Lister) List(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, errPatternRequired
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", pattern, err)
	}

	files := make([]string, 0, len(matches))

	for _, match := range matches {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		info, statErr := os.Stat(match)
		if statErr != nil {
			return nil, fmt.Errorf("stat %s: %w", match, statErr)
		}

		if !info.Mode().IsRegular() {
			continue
		}

		files = append(files, match)
	}

	sort.Strings(files)

	return files, nil
}
