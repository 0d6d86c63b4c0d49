// Package pathutil normalizes user-supplied folder paths before they are
// compared or stored.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand resolves environment variables and a leading "~" in path and
// returns an absolute, cleaned form. Paths that cannot be made absolute
// are returned cleaned but otherwise untouched.
func Expand(path string) string {
	p := os.ExpandEnv(strings.TrimSpace(path))
	if p == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			p = home
		}
	} else if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Key returns the canonical case-insensitive comparison key for a folder
// path. Allow-list entries are unique by this key.
func Key(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
