package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
)

// HistoryFileName is the manifest file name inside an export archive.
const HistoryFileName = "memories_history.json"

type rawManifest struct {
	SavedMedia []rawEntry `json:"Saved Media"`
}

type rawEntry struct {
	Date         string `json:"Date"`
	MediaType    string `json:"Media Type"`
	Location     string `json:"Location"`
	DownloadLink string `json:"Download Link"`
}

// Load reads a manifest from a JSON file or from an export zip that contains
// memories_history.json. Entries are returned oldest first.
func Load(filePath string) ([]Entry, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest not found: %s", filePath)
		}
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("manifest path is a directory: %s", filePath)
	}

	if strings.EqualFold(filepath.Ext(filePath), ".zip") {
		return loadFromZip(filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

func loadFromZip(archivePath string) ([]Entry, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open export archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if path.Base(f.Name) != HistoryFileName {
			continue
		}
		log.Debug().
			Str("archive", archivePath).
			Str("member", f.Name).
			Msg("Reading manifest from export archive")

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in archive: %w", f.Name, err)
		}
		defer rc.Close()
		return Decode(rc)
	}

	return nil, fmt.Errorf("%s not found in %s", HistoryFileName, archivePath)
}

// Decode parses manifest JSON. Entries with an unknown media type, an
// unparsable date or no download link are skipped with a warning.
func Decode(r io.Reader) ([]Entry, error) {
	var raw rawManifest
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	entries := make([]Entry, 0, len(raw.SavedMedia))
	skipped := 0
	for i, re := range raw.SavedMedia {
		entry, err := re.toEntry()
		if err != nil {
			skipped++
			log.Warn().Err(err).Int("index", i).Msg("Skipping malformed manifest entry")
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Taken.Before(entries[j].Taken)
	})

	log.Info().
		Int("entries", len(entries)).
		Int("skipped", skipped).
		Msg("Manifest loaded")

	return entries, nil
}

func (re rawEntry) toEntry() (Entry, error) {
	mediaType, err := ParseMediaType(re.MediaType)
	if err != nil {
		return Entry{}, err
	}
	taken, err := time.Parse(DateLayout, strings.TrimSpace(re.Date))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid date %q: %w", re.Date, err)
	}
	if strings.TrimSpace(re.DownloadLink) == "" {
		return Entry{}, fmt.Errorf("missing download link")
	}
	return Entry{
		MediaType:     mediaType,
		Taken:         taken,
		DownloadToken: re.DownloadLink,
		Location:      re.Location,
	}, nil
}

// Split partitions entries into photos and videos, preserving order.
func Split(entries []Entry) (photos, videos []Entry) {
	for _, e := range entries {
		if e.IsVideo() {
			videos = append(videos, e)
		} else {
			photos = append(photos, e)
		}
	}
	return photos, videos
}
