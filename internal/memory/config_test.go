package memory

import (
	"math"
	"runtime/debug"
	"testing"
)

func restoreMemoryLimit(t *testing.T) {
	t.Helper()
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name       string
		settings   Settings
		configured bool
		source     string
		wantLimit  int64
		wantRatio  float64
	}{
		{
			name:     "nothing set",
			settings: Settings{},
			source:   "none",
		},
		{
			name:       "container limit with default ratio",
			settings:   Settings{ContainerLimit: 1000 * 1024 * 1024},
			configured: true,
			source:     "MEMORY_LIMIT",
			wantLimit:  int64(float64(1000*1024*1024) * DefaultMemoryRatio),
			wantRatio:  DefaultMemoryRatio,
		},
		{
			name:       "custom ratio",
			settings:   Settings{ContainerLimit: 1 << 30, Ratio: 0.5},
			configured: true,
			source:     "MEMORY_LIMIT",
			wantLimit:  1 << 29,
			wantRatio:  0.5,
		},
		{
			name:       "ratio out of range",
			settings:   Settings{ContainerLimit: 1 << 30, Ratio: 1.5},
			configured: true,
			source:     "MEMORY_LIMIT",
			wantLimit:  int64(float64(1<<30) * DefaultMemoryRatio),
			wantRatio:  DefaultMemoryRatio,
		},
		{
			name:     "negative container limit",
			settings: Settings{ContainerLimit: -5},
			source:   "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreMemoryLimit(t)

			result := Configure(tt.settings)
			if result.Configured != tt.configured {
				t.Errorf("Expected Configured=%v, got %v", tt.configured, result.Configured)
			}
			if result.Source != tt.source {
				t.Errorf("Expected Source=%q, got %q", tt.source, result.Source)
			}
			if result.GoMemLimit != tt.wantLimit {
				t.Errorf("Expected GoMemLimit=%d, got %d", tt.wantLimit, result.GoMemLimit)
			}
			if math.Abs(result.Ratio-tt.wantRatio) > 1e-9 {
				t.Errorf("Expected Ratio=%.2f, got %.2f", tt.wantRatio, result.Ratio)
			}
			if tt.configured {
				if got := debug.SetMemoryLimit(-1); got != tt.wantLimit {
					t.Errorf("Expected runtime limit %d, got %d", tt.wantLimit, got)
				}
			}
		})
	}
}

func TestConfigureGOMEMLIMITWins(t *testing.T) {
	restoreMemoryLimit(t)
	debug.SetMemoryLimit(256 * 1024 * 1024)

	result := Configure(Settings{GoMemLimit: "256MiB", ContainerLimit: 1 << 30})
	if result.Source != "GOMEMLIMIT" {
		t.Errorf("Expected Source=GOMEMLIMIT, got %q", result.Source)
	}
	if result.GoMemLimit != 256*1024*1024 {
		t.Errorf("Expected GoMemLimit=%d, got %d", 256*1024*1024, result.GoMemLimit)
	}
	if result.ContainerLimit != 0 {
		t.Errorf("Expected ContainerLimit to be ignored, got %d", result.ContainerLimit)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
		{1 << 40, "1.0 TiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.input); got != tt.want {
			t.Errorf("FormatBytes(%d): Expected %q, got %q", tt.input, tt.want, got)
		}
	}
}
