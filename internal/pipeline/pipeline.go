// Package pipeline drives the retrieval and reconstruction of a memories
// export: it resolves each manifest entry to bytes, writes and stamps the
// file, reports throttled progress, and for videos detects clips that belong
// to one continuous recording and stitches them into a single file.
//
// The drivers run a single sequential loop per batch. The only concurrency is
// the Stitcher, which concatenates closed clip runs on its own goroutine while
// the loop moves on, and the observer, which receives notifications without
// blocking the loop.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fpang/memories-download/internal/manifest"
	"github.com/fpang/memories-download/internal/metrics"
	"github.com/fpang/memories-download/internal/resolver"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MetricsNamespace groups the metrics emitted by batch runs.
const MetricsNamespace = "MemoriesDownload"

// DefaultEntryTimeout bounds the fetch and write of one entry when
// Deps.EntryTimeout is unset.
const DefaultEntryTimeout = 10 * time.Minute

// Namer derives output paths. Calling it twice for distinct outputs never
// returns the same path.
type Namer interface {
	NameFor(entry manifest.Entry, concatenated bool) (string, error)
}

// FileSystem persists downloaded bytes and removes merged-away clips.
type FileSystem interface {
	WriteStream(path string, r io.Reader) error
	Remove(path string) error
}

// Stamper embeds capture time and optional geolocation into a file.
type Stamper interface {
	Stamp(ctx context.Context, path string, taken time.Time, geo *manifest.Geo) error
}

// Concatenator joins clip files, in order, into output.
type Concatenator interface {
	Concatenate(ctx context.Context, clips []string, output string) error
}

// Deps are the collaborators shared by both drivers.
type Deps struct {
	Resolver resolver.Legs
	Namer    Namer
	Files    FileSystem
	Stamper  Stamper
	Observer Observer
	RunID    string

	// EntryTimeout bounds resolving, writing and stamping one entry. A
	// stalled download fails the entry instead of the batch.
	EntryTimeout time.Duration
}

// Result summarises one batch run.
type Result struct {
	Total          int
	Written        int
	Failed         int
	Duplicates     int
	Stitched       int
	StitchFailures int
	Elapsed        time.Duration
}

// driver holds the per-entry steps shared by Photos and Videos.
type driver struct {
	deps   Deps
	kind   manifest.MediaType
	logger zerolog.Logger
}

func newDriver(deps Deps, kind manifest.MediaType) driver {
	if deps.Observer == nil {
		deps.Observer = ObserverFunc(func(Notification) {})
	}
	if deps.EntryTimeout <= 0 {
		deps.EntryTimeout = DefaultEntryTimeout
	}
	return driver{
		deps:   deps,
		kind:   kind,
		logger: log.With().Str("run", deps.RunID).Str("batch", string(kind)).Logger(),
	}
}

// entryContext derives the deadline for one entry from the batch context.
func (d *driver) entryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.deps.EntryTimeout)
}

// store names, writes and stamps one resolved entry. It closes the content
// body. On a naming or write failure the entry is added to failed, a warning
// is emitted, and ok is false.
func (d *driver) store(ctx context.Context, entry manifest.Entry, content *resolver.Content, failed *FailedSet) (path string, ok bool) {
	defer content.Body.Close()

	path, err := d.deps.Namer.NameFor(entry, false)
	if err != nil {
		d.writeFailed(entry, "", err, failed)
		return "", false
	}

	if err := d.deps.Files.WriteStream(path, content.Body); err != nil {
		d.writeFailed(entry, path, err, failed)
		return "", false
	}

	if err := d.deps.Stamper.Stamp(ctx, path, entry.Taken, entry.Geo()); err != nil {
		d.logger.Warn().
			Err(err).
			Str("path", path).
			Msg("Failed to stamp metadata, keeping file without it")
	}

	failed.Remove(entry)

	d.logger.Debug().
		Str("path", path).
		Int64("size_bytes", content.Size).
		Time("taken", entry.Taken).
		Msg("Memory saved")
	return path, true
}

func (d *driver) writeFailed(entry manifest.Entry, path string, err error, failed *FailedSet) {
	d.logger.Warn().
		Err(err).
		Str("path", path).
		Time("taken", entry.Taken).
		Msg("Failed to write memory")

	failed.Add(entry)
	d.deps.Observer.Emit(Notification{
		Kind:    KindWarning,
		Type:    d.kind,
		File:    path,
		Message: fmt.Sprintf("Could not save the %s from %s.", d.kind, entry.Taken.Format("2006-01-02")),
		Err:     err,
	})
}

func (d *driver) fetchFailed(err error, entry manifest.Entry, failed *FailedSet) {
	d.logger.Debug().Err(err).Time("taken", entry.Taken).Msg("There was an issue fetching a memory")
	failed.Add(entry)
}

// reportProgress records one stored entry and emits a notification at
// milestones. file is attached for previewing; empty leaves it unset.
func (d *driver) reportProgress(p *ProgressReporter, taken time.Time, index, total int, file string) {
	n, emit := p.Observe(taken, index, total)
	if !emit {
		return
	}
	n.File = file

	b := p.Bucket()
	d.logger.Debug().
		Int("index", index).
		Str("year", b.Year).
		Str("month", b.Month).
		Int("month_count", b.Count).
		Msg("Progress milestone")
	d.deps.Observer.Emit(n)
}

func (d *driver) flushMetrics(res Result) {
	metrics.New(MetricsNamespace).
		Dimension("Batch", string(d.kind)).
		Property("runId", d.deps.RunID).
		Metric("BatchMs", float64(res.Elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Metric("MemoriesWritten", float64(res.Written), metrics.UnitCount).
		Metric("MemoriesFailed", float64(res.Failed), metrics.UnitCount).
		Metric("DuplicatesSkipped", float64(res.Duplicates), metrics.UnitCount).
		Flush()
}
