package filehandler

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FS writes memories to the local filesystem.
//
// Content is streamed into a hidden temporary file next to the target and
// renamed into place once complete, so an interrupted download never leaves a
// truncated file under the final name.
type FS struct{}

// WriteStream copies r to path.
func (FS) WriteStream(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0o644)
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.Warn().Err(rmErr).Str("path", tmpPath).Msg("Failed to remove partial file")
		}
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int64("size_bytes", written).Msg("File written")
	return nil
}

// Remove deletes path. A missing file is not an error.
func (FS) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
