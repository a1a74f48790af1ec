package main

import (
	"os"
	"path/filepath"
)

// findWebDir searches for the settings web UI in common locations.
// It checks "web", "../web", "../../web" and <dataDir>/web, and returns the
// first existing directory or "" if none is found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web"}
	if dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, "web"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
