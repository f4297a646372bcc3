package pipeline

import "github.com/fpang/memories-download/internal/manifest"

// FailedSet records entries whose content could not be retrieved, keyed by
// download token. It is owned by the driving loop and is not safe for
// concurrent use.
type FailedSet struct {
	index   map[string]int
	entries []manifest.Entry
}

// NewFailedSet returns an empty set.
func NewFailedSet() *FailedSet {
	return &FailedSet{index: make(map[string]int)}
}

// Add records entry. Adding a token that is already present is a no-op.
func (s *FailedSet) Add(entry manifest.Entry) {
	if _, ok := s.index[entry.DownloadToken]; ok {
		return
	}
	s.index[entry.DownloadToken] = len(s.entries)
	s.entries = append(s.entries, entry)
}

// Remove drops the entry with the same token, if present.
func (s *FailedSet) Remove(entry manifest.Entry) {
	i, ok := s.index[entry.DownloadToken]
	if !ok {
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, entry.DownloadToken)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].DownloadToken] = j
	}
}

// Contains reports whether an entry with the same token is recorded.
func (s *FailedSet) Contains(entry manifest.Entry) bool {
	_, ok := s.index[entry.DownloadToken]
	return ok
}

// Len returns the number of recorded entries.
func (s *FailedSet) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the recorded entries in the order they failed.
func (s *FailedSet) Entries() []manifest.Entry {
	out := make([]manifest.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
