package filehandler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fpang/memories-download/internal/manifest"
	"github.com/rs/zerolog/log"
)

// exifDateLayout is the EXIF DateTimeOriginal format.
const exifDateLayout = "2006:01:02 15:04:05"

// gpsTolerance is the allowed difference, in degrees, between written and
// read-back coordinates. exiftool stores them as rationals.
const gpsTolerance = 1e-4

// ErrStampMismatch is returned when metadata read back from a stamped file
// differs from what was written.
var ErrStampMismatch = errors.New("stamp verification failed")

// Stamper embeds capture metadata into saved memories.
//
// Photos get DateTimeOriginal (in UTC) and, when the entry has a location,
// GPS coordinates with their hemisphere references, written in place by
// exiftool and then read back to confirm the values took. MP4 files are left
// to the container. Every file then has its access and modification times
// set to the capture time.
type Stamper struct {
	exiftool string
}

// NewStamper resolves exiftool. When it cannot be found the Stamper still
// sets file times.
func NewStamper(exiftoolPath string) *Stamper {
	path, err := LookupTool(ToolExiftool, exiftoolPath)
	if err != nil {
		log.Warn().Err(err).Msg("exiftool unavailable, photos will not carry EXIF metadata")
		return &Stamper{}
	}
	return &Stamper{exiftool: path}
}

// Stamp writes taken and geo into path.
func (s *Stamper) Stamp(ctx context.Context, path string, taken time.Time, geo *manifest.Geo) error {
	var exifErr error
	ext := strings.ToLower(filepath.Ext(path))
	if s.exiftool != "" && ext != ".mp4" {
		exifErr = s.writeExif(ctx, path, taken, geo)
		if exifErr == nil && IsImage(ext) {
			exifErr = verifyStamp(path, taken, geo)
		}
	}

	if err := os.Chtimes(path, taken, taken); err != nil {
		return errors.Join(exifErr, fmt.Errorf("failed to set file times: %w", err))
	}
	return exifErr
}

// verifyStamp reads path back and checks it carries taken and geo.
func verifyStamp(path string, taken time.Time, geo *manifest.Geo) error {
	meta, err := ExtractImageMetadata(path)
	if err != nil {
		return fmt.Errorf("stamp verification: %w", err)
	}
	return checkStamped(meta, taken, geo)
}

// checkStamped compares read-back metadata with the written values. EXIF
// dates carry no zone, so the wall-clock text is compared.
func checkStamped(meta *ImageMetadata, taken time.Time, geo *manifest.Geo) error {
	want := taken.UTC().Format(exifDateLayout)
	if !meta.HasDate {
		return fmt.Errorf("%w: no capture date, want %s", ErrStampMismatch, want)
	}
	if got := meta.DateTaken.Format(exifDateLayout); got != want {
		return fmt.Errorf("%w: capture date %s, want %s", ErrStampMismatch, got, want)
	}

	if geo == nil {
		return nil
	}
	if !meta.HasGPS {
		return fmt.Errorf("%w: no GPS position, want %f, %f", ErrStampMismatch, geo.Latitude, geo.Longitude)
	}
	if math.Abs(meta.Latitude-geo.Latitude) > gpsTolerance || math.Abs(meta.Longitude-geo.Longitude) > gpsTolerance {
		return fmt.Errorf("%w: GPS position %f, %f, want %f, %f",
			ErrStampMismatch, meta.Latitude, meta.Longitude, geo.Latitude, geo.Longitude)
	}
	return nil
}

func (s *Stamper) writeExif(ctx context.Context, path string, taken time.Time, geo *manifest.Geo) error {
	args := exiftoolArgs(path, taken, geo)
	cmd := exec.CommandContext(ctx, s.exiftool, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("exiftool failed: %w\nOutput: %s", err, string(output))
	}
	log.Debug().Str("path", path).Bool("has_gps", geo != nil).Msg("EXIF metadata written")
	return nil
}

// exiftoolArgs builds the exiftool invocation. The file is rewritten in
// place; no "_original" backup is left behind.
func exiftoolArgs(path string, taken time.Time, geo *manifest.Geo) []string {
	args := []string{
		"-overwrite_original",
		"-DateTimeOriginal=" + taken.UTC().Format(exifDateLayout),
	}

	if geo != nil {
		latRef := "North"
		if geo.Latitude < 0 {
			latRef = "South"
		}
		lonRef := "East"
		if geo.Longitude < 0 {
			lonRef = "West"
		}
		args = append(args,
			fmt.Sprintf("-GPSLatitude=%f", math.Abs(geo.Latitude)),
			"-GPSLatitudeRef="+latRef,
			fmt.Sprintf("-GPSLongitude=%f", math.Abs(geo.Longitude)),
			"-GPSLongitudeRef="+lonRef,
		)
	}

	return append(args, path)
}
