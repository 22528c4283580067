package pseudocap

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveOne expands a glob pattern to the single regular file it names.
// Patterns without meta characters simply have to exist.
func ResolveOne(pattern string) (string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", pattern, err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrNoMatch, pattern)
	case 1:
	default:
		return "", fmt.Errorf("%w: %q (%d matches)", ErrAmbiguousMatch, pattern, len(matches))
	}

	info, err := os.Stat(matches[0])
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", pattern, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("resolve %q: %q is a directory", pattern, matches[0])
	}
	return matches[0], nil
}

// compact drops unused (empty) slots while keeping the order of the remaining ones.
func compact(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
