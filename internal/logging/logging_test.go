package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		debug bool
		want  zerolog.Level
	}{
		{"default", "", false, zerolog.InfoLevel},
		{"debug env", "debug", false, zerolog.DebugLevel},
		{"warn env", "warn", false, zerolog.WarnLevel},
		{"error env", "error", false, zerolog.ErrorLevel},
		{"unknown env", "verbose", false, zerolog.InfoLevel},
		{"flag overrides env", "error", true, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := levelFor(tt.env, tt.debug); got != tt.want {
				t.Errorf("levelFor(%q, %v) = %v, want %v", tt.env, tt.debug, got, tt.want)
			}
		})
	}
}

func TestInit_ReadsEnv(t *testing.T) {
	prevLevel := zerolog.GlobalLevel()
	prevLogger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		log.Logger = prevLogger
	})

	t.Setenv(LevelEnv, "warn")
	var buf bytes.Buffer
	InitWithWriter(false, &buf)

	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("global level = %v, want warn", zerolog.GlobalLevel())
	}
	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn, got %q", buf.String())
	}
}

func TestRunLogger_Log(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	NewRunLogger("run-1").
		Version("1.2.3").
		Config("outputDir", "/srv/memories").
		Tool("ffmpeg", "/usr/bin/ffmpeg").
		Tool("exiftool", "").
		Feature("photos", true).
		Feature("videos", false).
		Log()

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}

	run, _ := event["run"].(map[string]any)
	if run["id"] != "run-1" || run["version"] != "1.2.3" {
		t.Errorf("unexpected run dict: %v", run)
	}
	tools, _ := event["tools"].(map[string]any)
	if tools["ffmpeg"] != "/usr/bin/ffmpeg" || tools["exiftool"] != "missing" {
		t.Errorf("unexpected tools dict: %v", tools)
	}
	features, _ := event["features"].(map[string]any)
	if features["photos"] != true || features["videos"] != false {
		t.Errorf("unexpected features dict: %v", features)
	}
	if event["message"] != "Download run starting" {
		t.Errorf("unexpected message: %v", event["message"])
	}
}
