package filehandler

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the output directory while a download runs.
const LockFileName = ".memories-download.lock"

// LockOutput takes an exclusive lock on the output directory so two runs
// cannot write into it at once. The caller must Unlock the returned lock.
func LockOutput(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("output directory %s is in use by another download", dir)
	}
	return lock, nil
}
