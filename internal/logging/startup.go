package logging

import (
	"os"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunLogger collects a run's identity, settings, external tools and feature
// flags, then emits a single structured event summarising how the run was
// configured.
type RunLogger struct {
	runID   string
	version string

	config   map[string]string
	tools    map[string]string
	features map[string]bool
}

// NewRunLogger creates a RunLogger for one download run.
func NewRunLogger(runID string) *RunLogger {
	return &RunLogger{
		runID:    runID,
		config:   make(map[string]string),
		tools:    make(map[string]string),
		features: make(map[string]bool),
	}
}

// Version sets the binary version baked in at build time.
func (r *RunLogger) Version(v string) *RunLogger {
	r.version = v
	return r
}

// Config registers a non-sensitive configuration key-value pair.
func (r *RunLogger) Config(key, value string) *RunLogger {
	r.config[key] = value
	return r
}

// Tool registers an external tool and where it was found. An empty path
// is logged as "missing".
func (r *RunLogger) Tool(name, path string) *RunLogger {
	if path == "" {
		path = "missing"
	}
	r.tools[name] = path
	return r
}

// Feature registers a boolean feature flag (e.g. "photos", "s3Mirror").
func (r *RunLogger) Feature(name string, enabled bool) *RunLogger {
	r.features[name] = enabled
	return r
}

// Log emits the summary at INFO.
func (r *RunLogger) Log() {
	run := zerolog.Dict().
		Str("id", r.runID).
		Str("goVersion", runtime.Version()).
		Str("os", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Str("logLevel", zerolog.GlobalLevel().String())
	if r.version != "" {
		run = run.Str("version", r.version)
	}
	if host, err := os.Hostname(); err == nil {
		run = run.Str("host", host)
	}

	evt := log.Info().Dict("run", run)

	if len(r.config) > 0 {
		evt = evt.Dict("config", dictFromMap(r.config))
	}
	if len(r.tools) > 0 {
		evt = evt.Dict("tools", dictFromMap(r.tools))
	}
	if len(r.features) > 0 {
		d := zerolog.Dict()
		for _, k := range sortedKeys(r.features) {
			d = d.Bool(k, r.features[k])
		}
		evt = evt.Dict("features", d)
	}

	evt.Msg("Download run starting")
}

// dictFromMap converts a map[string]string into a zerolog.Event (Dict).
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for _, k := range sortedKeys(m) {
		d = d.Str(k, m[k])
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
