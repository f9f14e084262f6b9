package discovery

import (
	"os"
	"path/filepath"
)

// rootMarkers are the files and directories that identify a repository
// root when no explicit search path is given.
var rootMarkers = []string{
	".git",
	"go.mod",
	"go.work",
	"package.json",
}

// DetectRoot walks upward from start looking for a repository marker.
// The second return is false when no marker is found before the
// filesystem root.
func DetectRoot(start string) (string, bool) {
	current, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current, true
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}
