package filehandler

import "testing"

func TestLockOutput(t *testing.T) {
	dir := t.TempDir()

	lock, err := LockOutput(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer lock.Unlock()

	if _, err := LockOutput(dir); err == nil {
		t.Error("expected second lock on the same directory to fail")
	}
}
