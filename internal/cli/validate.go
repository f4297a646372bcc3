package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidateManifestPath checks that the manifest exists and is a regular
// file, then returns its absolute path.
func ValidateManifestPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("manifest %q not found", path)
		}
		return "", fmt.Errorf("failed to access manifest: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("manifest %q is a directory", path)
	}
	return absOrSelf(path), nil
}

// EnsureOutputDirectory creates dirPath if it is missing, checks that it is a
// directory, and returns the absolute path.
func EnsureOutputDirectory(dirPath string) (string, error) {
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	info, err := os.Stat(dirPath)
	if err != nil {
		return "", fmt.Errorf("failed to access output directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("output path %q is not a directory", dirPath)
	}
	return absOrSelf(dirPath), nil
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
