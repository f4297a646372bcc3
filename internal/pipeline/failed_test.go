package pipeline

import (
	"testing"
	"time"

	"github.com/fpang/memories-download/internal/manifest"
)

func TestFailedSet(t *testing.T) {
	ts := time.Date(2021, 6, 4, 12, 0, 0, 0, time.UTC)
	a := photo("a", ts)
	b := photo("b", ts)
	c := video("c", 0)

	s := NewFailedSet()
	s.Add(a)
	s.Add(b)
	s.Add(a)
	s.Add(c)

	if s.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", s.Len())
	}

	// Same token, different record.
	if !s.Contains(manifest.Entry{DownloadToken: "b"}) {
		t.Error("membership should be keyed by token")
	}

	s.Remove(b)
	if s.Contains(b) {
		t.Error("b still present after Remove")
	}
	got := s.Entries()
	if len(got) != 2 || got[0].DownloadToken != "a" || got[1].DownloadToken != "c" {
		t.Errorf("unexpected order after remove: %v", got)
	}

	s.Remove(b)
	s.Add(b)
	got = s.Entries()
	if got[2].DownloadToken != "b" {
		t.Errorf("re-added entry should go last, got %v", got)
	}

	got[0] = manifest.Entry{}
	if s.Entries()[0].DownloadToken != "a" {
		t.Error("Entries must return a copy")
	}
}
