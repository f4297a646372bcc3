package filehandler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fpang/memories-download/internal/manifest"
)

// Namer derives output paths of the form
//
//	<root>/<YYYY>/<Month>-<DD>[-short][-N].<ext>
//
// Standalone videos get the "-short" marker; photos and combined videos do
// not. A numeric suffix is added until the path is free both on disk and
// among names already handed out, so a combined video that has been named
// but not yet written never collides with a later file.
type Namer struct {
	root string

	mu       sync.Mutex
	reserved map[string]bool
}

// NewNamer creates a Namer rooted at the output directory.
func NewNamer(root string) *Namer {
	return &Namer{root: root, reserved: make(map[string]bool)}
}

// NameFor returns a fresh path for entry and creates its year directory.
func (n *Namer) NameFor(entry manifest.Entry, concatenated bool) (string, error) {
	info, err := os.Stat(n.root)
	if err != nil {
		return "", fmt.Errorf("output directory %q does not exist: %w", n.root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("output path %q is not a directory", n.root)
	}

	taken := entry.Taken
	dir := filepath.Join(n.root, taken.Format("2006"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create year directory: %w", err)
	}

	stem := fmt.Sprintf("%s-%s", taken.Month().String(), taken.Format("02"))
	if entry.IsVideo() && !concatenated {
		stem += "-short"
	}
	ext := ExtensionFor(entry.MediaType)

	n.mu.Lock()
	defer n.mu.Unlock()

	name := stem
	for i := 1; ; i++ {
		path := filepath.Join(dir, name+ext)
		free, err := n.isFree(path)
		if err != nil {
			return "", err
		}
		if free {
			n.reserved[path] = true
			return path, nil
		}
		name = fmt.Sprintf("%s-%d", stem, i)
	}
}

func (n *Namer) isFree(path string) (bool, error) {
	if n.reserved[path] {
		return false, nil
	}
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, fmt.Errorf("failed to check %s: %w", path, err)
}
