package engine

import (
	"errors"
	"testing"
)

func TestParseProbeSelectsDefaultVideo(t *testing.T) {
	data := []byte(`{
		"streams": [
			{"index": 0, "codec_type": "audio", "codec_name": "aac", "time_base": "1/48000"},
			{"index": 1, "codec_type": "video", "codec_name": "mjpeg", "width": 600, "height": 600,
			 "time_base": "1/90000", "disposition": {"default": 0, "attached_pic": 1}},
			{"index": 2, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
			 "time_base": "1/30", "start_pts": 0, "duration_ts": 300, "disposition": {"default": 1}}
		],
		"format": {"duration": "10.000000"}
	}`)

	s, err := parseProbe(data, "/tmp/x.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Index != 2 {
		t.Errorf("Expected stream 2, got %d", s.Index)
	}
	if s.Codec != "h264" || s.Width != 1920 || s.Height != 1080 {
		t.Errorf("Unexpected stream: %+v", s)
	}
	if s.TimeBase != (Rational{1, 30}) {
		t.Errorf("Expected time base 1/30, got %v", s.TimeBase)
	}
	if s.Duration != 300 {
		t.Errorf("Expected duration 300, got %d", s.Duration)
	}
	if s.Path != "/tmp/x.mp4" {
		t.Errorf("Expected path to be kept, got %q", s.Path)
	}
}

func TestParseProbeLargestWithoutDefault(t *testing.T) {
	data := []byte(`{"streams": [
		{"index": 0, "codec_type": "video", "width": 640, "height": 360, "time_base": "1/25"},
		{"index": 1, "codec_type": "video", "width": 1280, "height": 720, "time_base": "1/25"}
	]}`)

	s, err := parseProbe(data, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Index != 1 {
		t.Errorf("Expected stream 1, got %d", s.Index)
	}
}

func TestParseProbeFormatDuration(t *testing.T) {
	data := []byte(`{
		"streams": [{"index": 0, "codec_type": "video", "width": 320, "height": 240,
		             "time_base": "1/1000", "start_pts": 0}],
		"format": {"duration": "10.500000"}
	}`)

	s, err := parseProbe(data, "x.mkv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Duration != 10500 {
		t.Errorf("Expected 10500 ticks, got %d", s.Duration)
	}
	if d := DurationSeconds(s.Duration, s.TimeBase); d != 10 {
		t.Errorf("Expected 10 seconds, got %d", d)
	}
}

func TestParseProbeNoVideo(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"audio only", `{"streams": [{"index": 0, "codec_type": "audio", "time_base": "1/44100"}]}`},
		{"empty", `{}`},
		{"bad time base", `{"streams": [{"index": 0, "codec_type": "video", "width": 1, "height": 1, "time_base": "0/0"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProbe([]byte(tt.data), "x")
			if !errors.Is(err, ErrStreamNotFound) {
				t.Errorf("Expected ErrStreamNotFound, got %v", err)
			}
		})
	}
}

func TestParseProbeInvalidJSON(t *testing.T) {
	if _, err := parseProbe([]byte("not json"), "x"); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestParseRational(t *testing.T) {
	tests := []struct {
		in      string
		want    Rational
		wantErr bool
	}{
		{"1/30", Rational{1, 30}, false},
		{"1001/30000", Rational{1001, 30000}, false},
		{"1/0", Rational{}, true},
		{"30", Rational{}, true},
		{"a/b", Rational{}, true},
	}

	for _, tt := range tests {
		got, err := parseRational(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRational(%q): unexpected error state: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseRational(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}
