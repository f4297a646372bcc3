package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnv names the environment variable that sets the log level.
const LevelEnv = "MEMORIES_LOG_LEVEL"

// Init initializes the global logger.
// MEMORIES_LOG_LEVEL controls the log level: debug, info, warn, error (default: info).
// debug forces the debug level regardless of the environment.
func Init(debug bool) {
	InitWithWriter(debug, os.Stderr)
}

// InitWithWriter is Init with console output sent to w.
func InitWithWriter(debug bool, w io.Writer) {
	zerolog.SetGlobalLevel(levelFor(os.Getenv(LevelEnv), debug))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
}

func levelFor(name string, debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
