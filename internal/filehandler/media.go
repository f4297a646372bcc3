// Package filehandler persists retrieved memories on disk and drives the
// external media tools that finish them:
//   - exiftool embeds capture time and location into photos
//   - ffmpeg joins clips of one recording into a single video
//   - ffprobe verifies the joined output
//
// Images are read back with evanoberholster/imagemeta (pure Go); videos are
// probed with ffprobe.
package filehandler

import (
	"fmt"
	"strings"

	"github.com/fpang/memories-download/internal/manifest"
)

// SupportedImageExtensions maps image extensions to MIME types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".heic": "image/heic",
}

// SupportedVideoExtensions maps video extensions to MIME types.
var SupportedVideoExtensions = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
}

// ExtensionFor returns the extension memories of the given type are saved
// with. The export serves photos as JPEG and videos as MP4.
func ExtensionFor(kind manifest.MediaType) string {
	if kind == manifest.Video {
		return ".mp4"
	}
	return ".jpg"
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	ext = strings.ToLower(ext)

	if mimeType, ok := SupportedImageExtensions[ext]; ok {
		return mimeType, nil
	}

	if mimeType, ok := SupportedVideoExtensions[ext]; ok {
		return mimeType, nil
	}

	return "", fmt.Errorf("unsupported file extension: %s", ext)
}

// IsImage returns true if the file extension corresponds to an image.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// IsVideo returns true if the file extension corresponds to a video.
func IsVideo(ext string) bool {
	_, ok := SupportedVideoExtensions[strings.ToLower(ext)]
	return ok
}
