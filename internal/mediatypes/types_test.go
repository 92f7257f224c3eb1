package mediatypes

import (
	"testing"
)

func TestContainerFor(t *testing.T) {
	tests := []struct {
		name      string
		ext       string
		wantExt   string
		wantVideo string
		wantAudio string
		wantMime  string
	}{
		{name: "mp4", ext: "mp4", wantExt: "mp4", wantVideo: "libx264", wantAudio: "aac", wantMime: "video/mp4"},
		{name: "leading dot", ext: ".mkv", wantExt: "mkv", wantVideo: "libx264", wantAudio: "aac", wantMime: "video/x-matroska"},
		{name: "upper case", ext: "WEBM", wantExt: "webm", wantVideo: "libvpx-vp9", wantAudio: "libopus", wantMime: "video/webm"},
		{name: "avi", ext: "avi", wantExt: "avi", wantVideo: "mpeg4", wantAudio: "libmp3lame", wantMime: "video/x-msvideo"},
		{name: "unknown", ext: "xyz", wantExt: "xyz", wantVideo: "libx264", wantAudio: "aac", wantMime: "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContainerFor(tt.ext)
			if got.Extension != tt.wantExt {
				t.Errorf("Expected extension %q, got %q", tt.wantExt, got.Extension)
			}
			if got.VideoCodec != tt.wantVideo || got.AudioCodec != tt.wantAudio {
				t.Errorf("Expected %s/%s, got %s/%s", tt.wantVideo, tt.wantAudio, got.VideoCodec, got.AudioCodec)
			}
			if got.MimeType != tt.wantMime {
				t.Errorf("Expected MIME %q, got %q", tt.wantMime, got.MimeType)
			}
			if len(got.VideoArgs) == 0 {
				t.Error("Expected encoder arguments")
			}
		})
	}
}

func TestContainerForDoesNotMutateTable(t *testing.T) {
	_ = ContainerFor(".MP4")
	if Containers["mp4"].Extension != "" {
		t.Errorf("Expected table entry to stay untouched, got extension %q", Containers["mp4"].Extension)
	}
}

func TestIsVideo(t *testing.T) {
	tests := []struct {
		ext  string
		want bool
	}{
		{"mp4", true},
		{".MOV", true},
		{"ts", true},
		{"jpg", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsVideo(tt.ext); got != tt.want {
			t.Errorf("IsVideo(%q): expected %v, got %v", tt.ext, tt.want, got)
		}
	}
}

func TestGetMimeType(t *testing.T) {
	if got := GetMimeType(".mpg"); got != "video/mpeg" {
		t.Errorf("Expected video/mpeg, got %s", got)
	}
	if got := GetMimeType("bin"); got != "application/octet-stream" {
		t.Errorf("Expected application/octet-stream, got %s", got)
	}
}
