package pipeline

import (
	"context"
	"time"

	"github.com/fpang/memories-download/internal/manifest"
	"github.com/fpang/memories-download/internal/resolver"
)

// Photos downloads a batch of photo entries.
type Photos struct {
	driver
}

// NewPhotos creates a photo driver.
func NewPhotos(deps Deps) *Photos {
	return &Photos{driver: newDriver(deps, manifest.Photo)}
}

// Run processes entries in order. Entries that cannot be fetched or written
// are added to failed; an entry that later succeeds under the same token is
// removed again. Run only returns an error when ctx is cancelled.
func (p *Photos) Run(ctx context.Context, entries []manifest.Entry, failed *FailedSet) (Result, error) {
	start := time.Now()
	res := Result{Total: len(entries)}
	progress := NewProgressReporter(manifest.Photo)

	p.logger.Info().Int("total", len(entries)).Msg("Downloading photos")

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}

		path, ok := p.download(ctx, entry, failed)
		if !ok {
			continue
		}
		res.Written++

		p.reportProgress(progress, entry.Taken, i+1, len(entries), path)
	}

	res.Failed = countFailed(entries, failed)
	res.Elapsed = time.Since(start)
	p.flushMetrics(res)

	p.logger.Info().
		Int("written", res.Written).
		Int("failed", res.Failed).
		Dur("elapsed", res.Elapsed).
		Msg("Photos complete")
	return res, nil
}

// download resolves and stores one entry under its own deadline.
func (p *Photos) download(ctx context.Context, entry manifest.Entry, failed *FailedSet) (string, bool) {
	ctx, cancel := p.entryContext(ctx)
	defer cancel()

	content, err := resolver.Resolve(ctx, p.deps.Resolver, entry)
	if err != nil {
		p.fetchFailed(err, entry, failed)
		return "", false
	}
	return p.store(ctx, entry, content, failed)
}

// countFailed counts the batch's entries still recorded in failed.
func countFailed(entries []manifest.Entry, failed *FailedSet) int {
	seen := make(map[string]bool)
	n := 0
	for _, e := range entries {
		if seen[e.DownloadToken] {
			continue
		}
		seen[e.DownloadToken] = true
		if failed.Contains(e) {
			n++
		}
	}
	return n
}
