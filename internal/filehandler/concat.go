package filehandler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Concatenator joins the clips of one recording with the ffmpeg concat
// demuxer. Streams are copied, not re-encoded, so clips from the same camera
// session join losslessly.
//
// When ffprobe is available the output is checked to have a duration at
// least as long as the longest clip. A failed or rejected output is removed;
// the input clips are never touched.
type Concatenator struct {
	ffmpeg  string
	ffprobe string
}

// NewConcatenator resolves ffmpeg (required) and ffprobe (optional). The
// zero Concatenator fails every call with ErrToolMissing.
func NewConcatenator(paths ToolPaths) (*Concatenator, error) {
	ffmpeg, err := LookupTool(ToolFFmpeg, paths.FFmpeg)
	if err != nil {
		return nil, err
	}
	c := &Concatenator{ffmpeg: ffmpeg}
	if ffprobe, err := LookupTool(ToolFFprobe, paths.FFprobe); err == nil {
		c.ffprobe = ffprobe
	} else {
		log.Warn().Err(err).Msg("Combined videos will not be verified")
	}
	return c, nil
}

// Concatenate writes clips, in order, to output.
func (c *Concatenator) Concatenate(ctx context.Context, clips []string, output string) error {
	if c.ffmpeg == "" {
		return fmt.Errorf("%w: ffmpeg", ErrToolMissing)
	}
	if len(clips) < 2 {
		return fmt.Errorf("need at least two clips to concatenate, got %d", len(clips))
	}

	listPath, err := writeConcatList(clips)
	if err != nil {
		return err
	}
	defer os.Remove(listPath)

	args := buildConcatArgs(listPath, output)
	log.Debug().Strs("args", args).Msg("Running FFmpeg concat")

	start := time.Now()
	cmd := exec.CommandContext(ctx, c.ffmpeg, args...)
	out, err := cmd.CombinedOutput()
	elapsed := time.Since(start)
	if err != nil {
		removePartial(output)
		log.Warn().
			Err(err).
			Str("output_path", output).
			Str("ffmpeg_output", string(out)).
			Dur("duration", elapsed).
			Msg("FFmpeg concat failed")
		return fmt.Errorf("ffmpeg concat failed: %w\nOutput: %s", err, string(out))
	}

	if c.ffprobe != "" {
		if err := c.verify(ctx, clips, output); err != nil {
			removePartial(output)
			return err
		}
	}

	log.Info().
		Str("output_path", output).
		Int("clips", len(clips)).
		Dur("concat_time", elapsed).
		Msg("Clips combined")
	return nil
}

func (c *Concatenator) verify(ctx context.Context, clips []string, output string) error {
	joined, err := ProbeVideo(ctx, c.ffprobe, output)
	if err != nil {
		return fmt.Errorf("failed to verify combined video: %w", err)
	}
	if joined.Duration <= 0 {
		return fmt.Errorf("combined video %s has no duration", output)
	}

	var longest time.Duration
	for _, clip := range clips {
		meta, err := ProbeVideo(ctx, c.ffprobe, clip)
		if err != nil {
			log.Debug().Err(err).Str("path", clip).Msg("Could not probe clip")
			continue
		}
		longest = max(longest, meta.Duration)
	}
	// Allow for container rounding.
	if joined.Duration+time.Second < longest {
		return fmt.Errorf("combined video is %s, shorter than its longest clip (%s)", joined.Duration, longest)
	}
	return nil
}

// writeConcatList writes the demuxer input list to a temp file.
func writeConcatList(clips []string) (string, error) {
	f, err := os.CreateTemp("", "memories-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create concat list: %w", err)
	}

	var sb strings.Builder
	for _, clip := range clips {
		abs, err := filepath.Abs(clip)
		if err != nil {
			abs = clip
		}
		sb.WriteString("file '")
		sb.WriteString(escapeConcatPath(abs))
		sb.WriteString("'\n")
	}

	if _, err := f.WriteString(sb.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}
	return f.Name(), nil
}

// escapeConcatPath quotes a path for a single-quoted concat list entry.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// buildConcatArgs constructs the ffmpeg arguments for a stream-copy concat.
func buildConcatArgs(listPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", outputPath,
	}
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove partial combined video")
	}
}
