package pipeline

import (
	"context"
	"time"

	"github.com/fpang/memories-download/internal/manifest"
	"github.com/fpang/memories-download/internal/resolver"
)

// Videos downloads a batch of video entries and stitches split recordings.
type Videos struct {
	driver
	concat Concatenator
}

// NewVideos creates a video driver.
func NewVideos(deps Deps, concat Concatenator) *Videos {
	return &Videos{
		driver: newDriver(deps, manifest.Video),
		concat: concat,
	}
}

// Run processes entries in order. Besides the photo steps it skips an entry
// whose content URL repeats the previous one, and feeds every written clip
// through the continuity check so split recordings are merged. A run still
// open at the end is flushed. Run waits for pending stitches before
// returning.
func (v *Videos) Run(ctx context.Context, entries []manifest.Entry, failed *FailedSet) (Result, error) {
	start := time.Now()
	res := Result{Total: len(entries)}
	progress := NewProgressReporter(manifest.Video)
	stitcher := NewStitcher(ctx, v.concat, v.deps, v.logger)

	var (
		run     ClipRun
		prev    *Clip
		prevURL string
		runErr  error
	)

	v.logger.Info().Int("total", len(entries)).Msg("Downloading videos")

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		path, url, outcome := v.download(ctx, entry, prevURL, failed)
		switch outcome {
		case videoDuplicate:
			res.Duplicates++
			v.logger.Debug().Time("taken", entry.Taken).Msg("Skipping duplicate video URL")
			continue
		case videoFailed:
			continue
		}
		res.Written++

		cur := Clip{Path: path, Entry: entry}
		before := run.State()
		if closed := run.Step(prev, cur); closed != nil {
			v.submit(stitcher, closed)
		}
		if state := run.State(); state != before {
			v.logger.Debug().
				Stringer("from", before).
				Stringer("to", state).
				Int("buffered", run.Len()).
				Msg("Clip run state changed")
		}

		// The clip may be merged away, so video progress carries no file.
		v.reportProgress(progress, entry.Taken, i+1, len(entries), "")

		prevURL = url
		prev = &cur
	}

	if closed := run.Flush(prev); closed != nil {
		v.submit(stitcher, closed)
	}

	stats := stitcher.Close()
	res.Stitched = stats.Stitched
	res.StitchFailures = stats.Failed
	res.Failed = countFailed(entries, failed)
	res.Elapsed = time.Since(start)
	v.flushMetrics(res)

	v.logger.Info().
		Int("written", res.Written).
		Int("failed", res.Failed).
		Int("duplicates", res.Duplicates).
		Int("stitched", res.Stitched).
		Int("stitch_failures", res.StitchFailures).
		Dur("elapsed", res.Elapsed).
		Msg("Videos complete")
	return res, runErr
}

type videoOutcome int

const (
	videoFailed videoOutcome = iota
	videoDuplicate
	videoStored
)

// download resolves and stores one entry under its own deadline. An entry
// whose content URL equals prevURL is reported as a duplicate before any
// content is fetched.
func (v *Videos) download(ctx context.Context, entry manifest.Entry, prevURL string, failed *FailedSet) (path, url string, outcome videoOutcome) {
	ctx, cancel := v.entryContext(ctx)
	defer cancel()

	url, err := resolver.RequestURL(ctx, v.deps.Resolver, entry)
	if err != nil {
		v.fetchFailed(err, entry, failed)
		return "", "", videoFailed
	}
	if url == prevURL {
		return "", url, videoDuplicate
	}

	content, err := resolver.Fetch(ctx, v.deps.Resolver, entry, url)
	if err != nil {
		v.fetchFailed(err, entry, failed)
		return "", url, videoFailed
	}

	path, ok := v.store(ctx, entry, content, failed)
	if !ok {
		return "", url, videoFailed
	}
	return path, url, videoStored
}

// submit names the merged output after the run's first clip and queues it.
// If no name can be derived the clips are left as they are.
func (v *Videos) submit(stitcher *Stitcher, clips []Clip) {
	output, err := v.deps.Namer.NameFor(clips[0].Entry, true)
	if err != nil {
		v.logger.Warn().Err(err).Int("clips", len(clips)).Msg("Could not name combined video, keeping clips")
		v.deps.Observer.Emit(Notification{
			Kind:      KindWarning,
			Type:      manifest.Video,
			Message:   "A combined video could not be named, so its clips were saved individually.",
			ClipCount: len(clips),
			Err:       err,
		})
		return
	}
	stitcher.Submit(StitchJob{Clips: clips, Output: output})
}
