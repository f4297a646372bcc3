// Package manifest reads the memories export listing and exposes its entries
// as immutable values for the download pipeline.
//
// An export manifest is a JSON document (memories_history.json) with a
// "Saved Media" array. Each element carries a capture date, a media type,
// an optional location string and a download link. The download link is an
// opaque token: it must be exchanged for the real content URL before the
// bytes can be fetched (see package resolver).
package manifest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MediaType distinguishes photos from videos.
type MediaType string

const (
	Photo MediaType = "photo"
	Video MediaType = "video"
)

// DateLayout is the timestamp format used by the export ("2021-06-04 18:22:31 UTC").
const DateLayout = "2006-01-02 15:04:05 MST"

// Entry is one memory from the manifest.
type Entry struct {
	MediaType     MediaType
	Taken         time.Time
	DownloadToken string
	Location      string
}

// Geo is a decimal-degree coordinate pair.
type Geo struct {
	Latitude  float64
	Longitude float64
}

// IsVideo reports whether the entry is a video.
func (e Entry) IsVideo() bool {
	return e.MediaType == Video
}

// String renders the entry the way failure reports show it: "<type> - <date>".
func (e Entry) String() string {
	return fmt.Sprintf("%s - %s", e.MediaType.Label(), e.Taken.Format(DateLayout))
}

// Label returns the capitalised display name of the media type.
func (t MediaType) Label() string {
	switch t {
	case Photo:
		return "Image"
	case Video:
		return "Video"
	}
	return string(t)
}

// Geo parses the location string into coordinates. The export writes
// locations as "Latitude, Longitude: 51.5072, -0.1276"; everything before the
// first ": " is a label. Returns nil when no usable pair is present.
func (e Entry) Geo() *Geo {
	return ParseLocation(e.Location)
}

// ParseLocation extracts the "lat, lon" pair that follows the label in a
// location string.
func ParseLocation(location string) *Geo {
	parts := strings.SplitN(location, ": ", 2)
	if len(parts) < 2 {
		return nil
	}

	coords := strings.Split(parts[1], ",")
	if len(coords) != 2 {
		return nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
	if err != nil {
		return nil
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}

	return &Geo{Latitude: lat, Longitude: lon}
}

// ParseMediaType maps the export's media type strings onto MediaType.
// Older exports use "Image"/"Video", newer ones "PHOTO"/"VIDEO".
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "photo":
		return Photo, nil
	case "video":
		return Video, nil
	}
	return "", fmt.Errorf("unknown media type %q", s)
}
