package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fpang/memories-download/internal/manifest"
	"github.com/fpang/memories-download/internal/pipeline"
)

func errContextCanceled() error {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx.Err()
}

func TestProgressView_Interactive(t *testing.T) {
	var buf bytes.Buffer
	v := newProgressView(&buf, true)

	v.StartBatch(manifest.Video, 4)
	v.Handle(pipeline.Notification{
		Kind:  pipeline.KindProgress,
		Count: 1,
		Total: 4,
		Type:  manifest.Video,
		Date:  pipeline.MonthLabel{Year: "2021", Month: "June"},
	})
	v.Handle(pipeline.Notification{
		Kind:    pipeline.KindWarning,
		Type:    manifest.Video,
		Message: "There was an issue combining 3 clips into a single video file.",
	})
	v.EndBatch()

	out := buf.String()
	if !strings.Contains(out, "Warning: There was an issue combining 3 clips") {
		t.Errorf("warning not rendered:\n%s", out)
	}
	if !strings.Contains(out, "Videos") {
		t.Errorf("bar description missing:\n%s", out)
	}
	if v.bar != nil {
		t.Error("bar should be cleared after EndBatch")
	}
	if v.last != 1 {
		t.Errorf("last = %d, want 1", v.last)
	}
}

func TestProgressView_NonInteractive(t *testing.T) {
	var buf bytes.Buffer
	v := newProgressView(&buf, false)

	v.StartBatch(manifest.Photo, 2)
	v.Handle(pipeline.Notification{Kind: pipeline.KindProgress, Count: 2, Type: manifest.Photo})
	v.EndBatch()

	if buf.Len() != 0 {
		t.Errorf("non-interactive view should log, not write to its writer: %q", buf.String())
	}
	if v.last != 2 {
		t.Errorf("last = %d, want 2", v.last)
	}
}

func TestBatchLabel(t *testing.T) {
	if batchLabel(manifest.Photo) != "Photos" || batchLabel(manifest.Video) != "Videos" {
		t.Error("unexpected batch labels")
	}
}
