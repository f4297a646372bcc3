package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fpang/memories-download/internal/filehandler"
	"github.com/fpang/memories-download/internal/manifest"
	"github.com/fpang/memories-download/internal/pipeline"
	"github.com/fpang/memories-download/internal/s3util"
)

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, nil)
	for _, want := range []string{"A", "B", "1", "2", "3", "╭"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("expected empty output for no columns")
	}
}

func TestPrintSummary(t *testing.T) {
	taken := time.Date(2021, 6, 4, 18, 22, 31, 0, time.UTC)
	var buf bytes.Buffer
	printSummary(&buf, runSummary{
		OutputDir: "/srv/memories",
		Photos:    &pipeline.Result{Total: 25, Written: 24, Failed: 1, Elapsed: 90 * time.Second},
		Videos:    &pipeline.Result{Total: 4, Written: 4, Stitched: 1},
		Mirror:    &s3util.MirrorResult{Uploaded: 27},
		Failed: []manifest.Entry{
			{MediaType: manifest.Photo, Taken: taken, DownloadToken: "x"},
		},
	})

	out := buf.String()
	for _, want := range []string{
		"Photos", "Videos", "1:30",
		"Mirrored to S3: 27 uploaded",
		"1 memories could not be downloaded",
		"Image - 2021-06-04 18:22:31 UTC",
		"/srv/memories",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSummary_NoFailures(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, runSummary{OutputDir: "/out", Photos: &pipeline.Result{Total: 1, Written: 1}})
	if strings.Contains(buf.String(), "could not be downloaded") {
		t.Errorf("unexpected failure section:\n%s", buf.String())
	}
}

func TestRenderToolTable(t *testing.T) {
	out := renderToolTable([]filehandler.ToolStatus{
		{Name: "ffmpeg", Path: "/usr/bin/ffmpeg"},
		{Name: "exiftool", Err: fmt.Errorf("%w: exiftool not in PATH", filehandler.ErrToolMissing)},
	})
	for _, want := range []string{"ffmpeg", "/usr/bin/ffmpeg", "found", "missing", "exiftool not in PATH"} {
		if !strings.Contains(out, want) {
			t.Errorf("tool table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, filehandler.ErrToolMissing.Error()) {
		t.Errorf("sentinel text should be trimmed:\n%s", out)
	}
}

func TestInterrupted(t *testing.T) {
	if err := interrupted(fmt.Errorf("batch: %w", errContextCanceled())); err == nil || err.Error() != "download interrupted" {
		t.Errorf("unexpected error: %v", err)
	}
	other := errors.New("boom")
	if interrupted(other) != other {
		t.Error("non-cancellation errors should pass through")
	}
}
