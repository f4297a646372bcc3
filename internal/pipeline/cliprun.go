package pipeline

import "github.com/fpang/memories-download/internal/manifest"

// Clip is a written video file and the entry it came from.
type Clip struct {
	Path  string
	Entry manifest.Entry
}

// ClipState is the accumulator state.
type ClipState int

const (
	// Idle means no run is open.
	Idle ClipState = iota
	// Accumulating means at least one clip is buffered.
	Accumulating
)

func (s ClipState) String() string {
	if s == Accumulating {
		return "accumulating"
	}
	return "idle"
}

// ClipRun accumulates consecutive clips of one recording. It lives in the
// driving loop; only closed runs are handed to the Stitcher.
type ClipRun struct {
	clips []Clip
}

// State reports whether a run is open.
func (r *ClipRun) State() ClipState {
	if len(r.clips) > 0 {
		return Accumulating
	}
	return Idle
}

// Len returns the number of buffered clips.
func (r *ClipRun) Len() int {
	return len(r.clips)
}

// Step advances the run with a just-written clip. prev is the previously
// written clip (nil for the first one).
//
// If cur continues prev, prev joins the run. If a run is open and cur does
// not continue prev, prev is appended as the final member and the closed run
// is returned; cur then stands on its own. Otherwise nothing happens.
func (r *ClipRun) Step(prev *Clip, cur Clip) []Clip {
	if prev == nil {
		return nil
	}
	if IsContinuation(prev.Entry, cur.Entry) {
		r.clips = append(r.clips, *prev)
		return nil
	}
	if len(r.clips) == 0 {
		return nil
	}
	return r.take(*prev)
}

// Flush closes an open run at batch end, with last as its final member.
// Returns nil when no run is open.
func (r *ClipRun) Flush(last *Clip) []Clip {
	if len(r.clips) == 0 || last == nil {
		return nil
	}
	return r.take(*last)
}

func (r *ClipRun) take(last Clip) []Clip {
	closed := append(r.clips, last)
	r.clips = nil
	return closed
}
