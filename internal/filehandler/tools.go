package filehandler

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// Tool names as looked up in PATH.
const (
	ToolFFmpeg   = "ffmpeg"
	ToolFFprobe  = "ffprobe"
	ToolExiftool = "exiftool"
)

// ErrToolMissing is wrapped by lookups of tools that are not installed.
var ErrToolMissing = errors.New("external tool not found")

var installHints = map[string]string{
	ToolFFmpeg:   "Install FFmpeg with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)",
	ToolFFprobe:  "Install FFmpeg with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)",
	ToolExiftool: "Install ExifTool with: brew install exiftool (macOS) or apt install libimage-exiftool-perl (Linux)",
}

var toolPurpose = map[string]string{
	ToolFFmpeg:   "clips of one recording will be saved separately",
	ToolFFprobe:  "combined videos will not be verified",
	ToolExiftool: "photos will only carry the capture time as file modification time",
}

// ToolPaths overrides where each tool is found. Empty fields use PATH.
type ToolPaths struct {
	FFmpeg   string
	FFprobe  string
	Exiftool string
}

// ToolStatus is the result of looking up one external tool.
type ToolStatus struct {
	Name string
	Path string
	Err  error
}

// Available reports whether the tool was found.
func (s ToolStatus) Available() bool {
	return s.Err == nil
}

// LookupTool resolves a tool binary. override may be a bare name or a path.
func LookupTool(name, override string) (string, error) {
	target := name
	if override != "" {
		target = override
	}
	path, err := exec.LookPath(target)
	if err != nil {
		return "", fmt.Errorf("%w: %s not in PATH, %s. %s", ErrToolMissing, target, toolPurpose[name], installHints[name])
	}
	log.Debug().Str("tool", name).Str("path", path).Msg("External tool found")
	return path, nil
}

// CheckTools looks up ffmpeg, ffprobe and exiftool.
func CheckTools(paths ToolPaths) []ToolStatus {
	lookups := []struct {
		name     string
		override string
	}{
		{ToolFFmpeg, paths.FFmpeg},
		{ToolFFprobe, paths.FFprobe},
		{ToolExiftool, paths.Exiftool},
	}

	statuses := make([]ToolStatus, 0, len(lookups))
	for _, l := range lookups {
		path, err := LookupTool(l.name, l.override)
		statuses = append(statuses, ToolStatus{Name: l.name, Path: path, Err: err})
	}
	return statuses
}
