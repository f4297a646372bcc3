package filehandler

import (
	"testing"

	"github.com/fpang/memories-download/internal/manifest"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		ext      string
		expected bool
	}{
		{".jpg", true},
		{".JPG", true},
		{".jpeg", true},
		{".png", true},
		{".heic", true},
		{".mp4", false},
		{".mov", false},
		{".txt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			result := IsImage(tt.ext)
			if result != tt.expected {
				t.Errorf("IsImage(%q) = %v, want %v", tt.ext, result, tt.expected)
			}
		})
	}
}

func TestIsVideo(t *testing.T) {
	tests := []struct {
		ext      string
		expected bool
	}{
		{".mp4", true},
		{".MP4", true},
		{".mov", true},
		{".jpg", false},
		{".txt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			result := IsVideo(tt.ext)
			if result != tt.expected {
				t.Errorf("IsVideo(%q) = %v, want %v", tt.ext, result, tt.expected)
			}
		})
	}
}

func TestGetMIMEType(t *testing.T) {
	tests := []struct {
		ext          string
		expectedMIME string
		expectError  bool
	}{
		{".jpg", "image/jpeg", false},
		{".JPEG", "image/jpeg", false},
		{".mp4", "video/mp4", false},
		{".mov", "video/quicktime", false},
		{".txt", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			mime, err := GetMIMEType(tt.ext)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %q, got nil", tt.ext)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error for %q: %v", tt.ext, err)
			}
			if mime != tt.expectedMIME {
				t.Errorf("GetMIMEType(%q) = %q, want %q", tt.ext, mime, tt.expectedMIME)
			}
		})
	}
}

func TestExtensionFor(t *testing.T) {
	if got := ExtensionFor(manifest.Photo); got != ".jpg" {
		t.Errorf("photo extension = %q", got)
	}
	if got := ExtensionFor(manifest.Video); got != ".mp4" {
		t.Errorf("video extension = %q", got)
	}
}
