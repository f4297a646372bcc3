package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/fpang/memories-download/internal/metrics"
	"github.com/rs/zerolog"
)

// StitchJob is a closed clip run and the path of its merged output.
type StitchJob struct {
	Clips  []Clip
	Output string
}

// StitchStats counts finished stitch jobs.
type StitchStats struct {
	Stitched int
	Failed   int
}

// Stitcher concatenates closed clip runs on a background goroutine.
//
// On success the merged file is stamped with the first clip's metadata and
// the clips are deleted; delete errors are only logged. On failure nothing is
// deleted, so the clips remain as individually viewable files, and a warning
// carrying the clip count is emitted.
type Stitcher struct {
	concat   Concatenator
	files    FileSystem
	stamper  Stamper
	observer Observer
	logger   zerolog.Logger
	runID    string

	jobs  chan StitchJob
	done  chan struct{}
	stats StitchStats
}

// NewStitcher starts a stitcher bound to ctx. Cancelling ctx makes in-flight
// concatenations fail, which preserves their clips.
func NewStitcher(ctx context.Context, concat Concatenator, deps Deps, logger zerolog.Logger) *Stitcher {
	s := &Stitcher{
		concat:   concat,
		files:    deps.Files,
		stamper:  deps.Stamper,
		observer: deps.Observer,
		logger:   logger,
		runID:    deps.RunID,
		jobs:     make(chan StitchJob, 1),
		done:     make(chan struct{}),
	}
	go s.loop(ctx)
	return s
}

// Submit queues a job. The queue holds one pending job; Submit returns as
// soon as the job is queued, not when it finishes.
func (s *Stitcher) Submit(job StitchJob) {
	s.jobs <- job
}

// Close waits for queued and in-flight jobs and returns the final counts.
// Submit must not be called after Close.
func (s *Stitcher) Close() StitchStats {
	close(s.jobs)
	<-s.done
	return s.stats
}

func (s *Stitcher) loop(ctx context.Context) {
	defer close(s.done)
	for job := range s.jobs {
		s.run(ctx, job)
	}
}

func (s *Stitcher) run(ctx context.Context, job StitchJob) {
	paths := make([]string, len(job.Clips))
	for i, c := range job.Clips {
		paths[i] = c.Path
	}

	s.logger.Info().
		Int("clips", len(paths)).
		Str("output", job.Output).
		Msg("Combining video clips")

	start := time.Now()
	err := s.concat.Concatenate(ctx, paths, job.Output)
	elapsed := time.Since(start)

	if err != nil {
		s.stats.Failed++
		s.logger.Warn().
			Err(err).
			Int("clips", len(paths)).
			Strs("clip_paths", paths).
			Dur("duration", elapsed).
			Msg("An error occurred while trying to combine video clips, keeping clips")
		metrics.New(MetricsNamespace).
			Property("runId", s.runID).
			Metric("StitchMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
			Count("StitchFailures").
			Flush()

		first := job.Clips[0].Entry
		s.observer.Emit(Notification{
			Kind:      KindWarning,
			Type:      first.MediaType,
			Message:   fmt.Sprintf("There was an issue combining %d clips into a single video file. Don't worry! The video clips will be saved individually.", len(paths)),
			ClipCount: len(paths),
			Err:       err,
		})
		return
	}

	s.stats.Stitched++
	metrics.New(MetricsNamespace).
		Property("runId", s.runID).
		Metric("StitchMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Metric("ClipsPerStitch", float64(len(paths)), metrics.UnitCount).
		Count("Stitches").
		Flush()

	first := job.Clips[0].Entry
	if err := s.stamper.Stamp(ctx, job.Output, first.Taken, first.Geo()); err != nil {
		s.logger.Warn().Err(err).Str("output", job.Output).Msg("Failed to stamp combined video")
	}

	for _, p := range paths {
		if err := s.files.Remove(p); err != nil {
			s.logger.Debug().Err(err).Str("path", p).Msg("Failed to remove clip")
		}
	}

	s.logger.Info().
		Int("clips", len(paths)).
		Str("output", job.Output).
		Dur("duration", elapsed).
		Msg("Video clips combined")
}
