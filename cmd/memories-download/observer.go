package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fpang/memories-download/internal/manifest"
	"github.com/fpang/memories-download/internal/pipeline"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressView renders pipeline notifications: a progress bar on a
// terminal, structured log lines otherwise.
type progressView struct {
	out         io.Writer
	interactive bool

	mu    sync.Mutex
	kind  manifest.MediaType
	total int
	last  int
	bar   *progressbar.ProgressBar
}

func newProgressView(out io.Writer, interactive bool) *progressView {
	return &progressView{out: out, interactive: interactive}
}

func batchLabel(kind manifest.MediaType) string {
	if kind == manifest.Video {
		return "Videos"
	}
	return "Photos"
}

// StartBatch resets the view for a batch of total items.
func (v *progressView) StartBatch(kind manifest.MediaType, total int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.kind, v.total, v.last = kind, total, 0
	if !v.interactive {
		log.Info().Str("type", string(kind)).Int("total", total).Msg("Downloading memories")
		return
	}
	v.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(v.out),
		progressbar.OptionSetDescription(batchLabel(kind)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(0),
	)
}

// Handle renders one notification. It runs on the observer goroutine.
func (v *progressView) Handle(n pipeline.Notification) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch n.Kind {
	case pipeline.KindWarning:
		if v.bar != nil {
			_ = v.bar.Clear()
			fmt.Fprintf(v.out, "Warning: %s\n", n.Message)
			return
		}
		log.Warn().Err(n.Err).Str("type", string(n.Type)).Str("file", n.File).Msg(n.Message)

	case pipeline.KindProgress:
		v.last = n.Count
		month := n.Date.Month + " " + n.Date.Year
		if v.bar != nil {
			v.bar.Describe(fmt.Sprintf("%s · %s", batchLabel(v.kind), month))
			_ = v.bar.Set(n.Count)
			return
		}
		log.Info().
			Str("type", string(n.Type)).
			Int("count", n.Count).
			Int("total", v.total).
			Str("month", month).
			Str("file", n.File).
			Msg("Progress")
	}
}

// EndBatch completes the bar for the batch.
func (v *progressView) EndBatch() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.bar != nil {
		_ = v.bar.Finish()
		fmt.Fprintln(v.out)
		v.bar = nil
	}
}
