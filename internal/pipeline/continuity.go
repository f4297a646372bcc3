package pipeline

import (
	"time"

	"github.com/fpang/memories-download/internal/manifest"
)

const (
	// maxClipGap is the largest gap between two clips of one recording.
	// The export splits long recordings into consecutive short clips whose
	// timestamps sit a few seconds apart.
	maxClipGap = 24 * time.Second

	// maxMidnightGap bounds the 23:59 -> 00:00 case to adjacent minutes.
	maxMidnightGap = 2 * time.Minute
)

// IsContinuation reports whether cur directly continues the recording in prev.
//
// Both must be videos. Within the same calendar hour the clips must be at most
// 24 seconds apart. Across hours only the midnight boundary qualifies: prev at
// 23:59 and cur at 00:00 on the following day.
func IsContinuation(prev, cur manifest.Entry) bool {
	if !prev.IsVideo() || !cur.IsVideo() {
		return false
	}

	p := prev.Taken
	c := cur.Taken.In(p.Location())

	if !sameHour(p, c) {
		if p.Hour() != 23 || p.Minute() != 59 || c.Hour() != 0 || c.Minute() != 0 {
			return false
		}
		gap := c.Sub(p)
		return gap > 0 && gap < maxMidnightGap
	}

	diff := c.Sub(p)
	if diff < 0 {
		diff = -diff
	}
	return diff.Truncate(time.Second) <= maxClipGap
}

func sameHour(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay() && a.Hour() == b.Hour()
}
