package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// ErrCanceled is returned when the user dismisses a picker.
var ErrCanceled = errors.New("selection canceled")

// PickManifest asks the user for the export manifest. A native file dialog
// is tried first; when none is available (headless, SSH) the user is
// prompted on stdin instead.
func PickManifest() (string, error) {
	path, err := zenity.SelectFile(
		zenity.Title("Select your memories export"),
		zenity.FileFilters{
			{
				Name:     "Memories export",
				Patterns: []string{"*.json", "*.zip"},
			},
		},
	)
	return resolvePick(path, err, "Memories export (memories_history.json or .zip)", "")
}

// PickOutputDirectory asks the user where memories should be saved.
func PickOutputDirectory(def string) (string, error) {
	path, err := zenity.SelectFile(
		zenity.Directory(),
		zenity.Title("Select where to save your memories"),
		zenity.Filename(def),
	)
	return resolvePick(path, err, "Output directory", def)
}

func resolvePick(path string, err error, label, def string) (string, error) {
	if err == nil {
		log.Debug().Str("path", path).Msg("Path picked via native dialog")
		return filepath.Clean(path), nil
	}
	if errors.Is(err, zenity.ErrCanceled) {
		return "", ErrCanceled
	}

	log.Debug().Err(err).Msg("Native dialog unavailable, prompting on stdin")
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		if def != "" {
			return def, nil
		}
		return "", errors.New("no " + label + " given and stdin is not a terminal")
	}

	picked := PromptForPath(label, def)
	if picked == "" {
		return "", ErrCanceled
	}
	return picked, nil
}
