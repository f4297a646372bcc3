package filehandler

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// VideoMetadata is what ffprobe reports about a video file.
type VideoMetadata struct {
	Duration time.Duration

	CreateDate time.Time
	HasDate    bool

	Width  int
	Height int
	Codec  string
}

// ffprobeOutput represents the JSON structure from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string            `json:"duration"`
	Tags     map[string]string `json:"tags"`
}

type ffprobeStream struct {
	CodecName string            `json:"codec_name"`
	CodecType string            `json:"codec_type"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Duration  string            `json:"duration"`
	Tags      map[string]string `json:"tags"`
}

// ProbeVideo runs ffprobe against filePath.
func ProbeVideo(ctx context.Context, ffprobePath, filePath string) (*VideoMetadata, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	metadata, err := parseProbeOutput(output)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("path", filePath).
		Dur("duration", metadata.Duration).
		Str("codec", metadata.Codec).
		Int("width", metadata.Width).
		Int("height", metadata.Height).
		Msg("Video probed")
	return metadata, nil
}

func parseProbeOutput(output []byte) (*VideoMetadata, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	metadata := &VideoMetadata{
		Duration: parseSeconds(probe.Format.Duration),
	}

	for key, value := range probe.Format.Tags {
		if strings.ToLower(key) == "creation_time" {
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				metadata.CreateDate = t
				metadata.HasDate = true
			}
		}
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "video" || metadata.Codec != "" {
			continue
		}
		metadata.Codec = stream.CodecName
		metadata.Width = stream.Width
		metadata.Height = stream.Height
		// Some muxers leave the container duration empty.
		if metadata.Duration == 0 {
			metadata.Duration = parseSeconds(stream.Duration)
		}
	}

	return metadata, nil
}

// parseSeconds parses ffprobe's decimal seconds ("12.345000").
func parseSeconds(value string) time.Duration {
	if value == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
