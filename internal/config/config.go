// Package config loads run settings from an optional YAML file, applies
// MEMORIES_* environment overrides, and validates the result. Command-line
// flags are applied by the caller after Load and before Validate.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Defaults.
const (
	DefaultOutputDir      = "memories"
	DefaultTimeoutSeconds = 30
	DefaultLinkMethod     = http.MethodPost

	// DefaultContentTimeoutSeconds bounds fetching and writing one memory.
	DefaultContentTimeoutSeconds = 600
)

// Config is the settings of one download run. Zero-value booleans mean
// "off"; use Default or Load to start from the standard settings.
type Config struct {
	Manifest    string `yaml:"manifest"`
	OutputDir   string `yaml:"output_dir"`
	Photos      bool   `yaml:"photos"`
	Videos      bool   `yaml:"videos"`
	Debug       bool   `yaml:"debug"`
	MetricsFile string `yaml:"metrics_file"`

	HTTP struct {
		TimeoutSeconds        int    `yaml:"timeout_seconds"`
		ContentTimeoutSeconds int    `yaml:"content_timeout_seconds"`
		LinkMethod            string `yaml:"link_method"`
	} `yaml:"http"`

	Tools struct {
		FFmpeg   string `yaml:"ffmpeg"`
		FFprobe  string `yaml:"ffprobe"`
		Exiftool string `yaml:"exiftool"`
	} `yaml:"tools"`

	S3 struct {
		Bucket string `yaml:"bucket"`
		Prefix string `yaml:"prefix"`
	} `yaml:"s3"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		OutputDir: DefaultOutputDir,
		Photos:    true,
		Videos:    true,
	}
	cfg.HTTP.TimeoutSeconds = DefaultTimeoutSeconds
	cfg.HTTP.ContentTimeoutSeconds = DefaultContentTimeoutSeconds
	cfg.HTTP.LinkMethod = DefaultLinkMethod
	return cfg
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from MEMORIES_* variables.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"MEMORIES_MANIFEST":     &c.Manifest,
		"MEMORIES_OUTPUT_DIR":   &c.OutputDir,
		"MEMORIES_METRICS_FILE": &c.MetricsFile,
		"MEMORIES_LINK_METHOD":  &c.HTTP.LinkMethod,
		"MEMORIES_FFMPEG":       &c.Tools.FFmpeg,
		"MEMORIES_FFPROBE":      &c.Tools.FFprobe,
		"MEMORIES_EXIFTOOL":     &c.Tools.Exiftool,
		"MEMORIES_S3_BUCKET":    &c.S3.Bucket,
		"MEMORIES_S3_PREFIX":    &c.S3.Prefix,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"MEMORIES_PHOTOS": &c.Photos,
		"MEMORIES_VIDEOS": &c.Videos,
		"MEMORIES_DEBUG":  &c.Debug,
	}
	for key, dst := range bools {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
	}

	ints := map[string]*int{
		"MEMORIES_TIMEOUT_SECONDS":         &c.HTTP.TimeoutSeconds,
		"MEMORIES_CONTENT_TIMEOUT_SECONDS": &c.HTTP.ContentTimeoutSeconds,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks that the configuration describes a runnable download.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Manifest) == "" {
		return errors.New("manifest path is required")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("output directory is required")
	}
	if !c.Photos && !c.Videos {
		return errors.New("nothing to download: both photos and videos are disabled")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.HTTP.ContentTimeoutSeconds <= 0 {
		return fmt.Errorf("http.content_timeout_seconds must be positive, got %d", c.HTTP.ContentTimeoutSeconds)
	}

	c.HTTP.LinkMethod = strings.ToUpper(c.HTTP.LinkMethod)
	if c.HTTP.LinkMethod != http.MethodPost && c.HTTP.LinkMethod != http.MethodGet {
		return fmt.Errorf("http.link_method must be GET or POST, got %q", c.HTTP.LinkMethod)
	}
	if c.S3.Prefix != "" && c.S3.Bucket == "" {
		return errors.New("s3.prefix is set but s3.bucket is empty")
	}
	return nil
}

// LinkTimeout is the per-request timeout for the link exchange.
func (c *Config) LinkTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ContentTimeout bounds the content fetch and file write of one memory.
func (c *Config) ContentTimeout() time.Duration {
	return time.Duration(c.HTTP.ContentTimeoutSeconds) * time.Second
}
