package memory

import (
	"math"
	"runtime/debug"
	"strconv"

	"ffservice/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left for ffmpeg and ffprobe child processes.
const DefaultMemoryRatio = 0.75

// Settings are the memory-related values read from the environment.
type Settings struct {
	// GoMemLimit is the raw GOMEMLIMIT value. When set it wins.
	GoMemLimit string
	// ContainerLimit is MEMORY_LIMIT in bytes (0 = unset).
	ContainerLimit int64
	// Ratio is MEMORY_RATIO (0 = DefaultMemoryRatio).
	Ratio float64
}

// ConfigResult holds the result of memory configuration
type ConfigResult struct {
	Configured bool

	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source string

	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configure sets the runtime soft memory limit from s. Call it early in
// main, before significant allocations.
func Configure(s Settings) ConfigResult {
	result := ConfigResult{Source: "none"}

	if s.GoMemLimit != "" {
		// The runtime has already parsed GOMEMLIMIT; report what it chose.
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = "GOMEMLIMIT"
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", s.GoMemLimit)
		return result
	}

	if s.ContainerLimit <= 0 {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return result
	}

	ratio := s.Ratio
	if ratio == 0 {
		ratio = DefaultMemoryRatio
	} else if ratio < 0 || ratio > 1.0 {
		logging.Warn("MEMORY_RATIO %.2f out of range (0.0-1.0), using default %.2f", ratio, DefaultMemoryRatio)
		ratio = DefaultMemoryRatio
	}

	goMemLimit := int64(float64(s.ContainerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	result.Configured = true
	result.Source = "MEMORY_LIMIT"
	result.ContainerLimit = s.ContainerLimit
	result.GoMemLimit = goMemLimit
	result.Ratio = ratio

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		FormatBytes(goMemLimit),
		ratio*100,
		FormatBytes(s.ContainerLimit),
	)

	return result
}

// FormatBytes formats bytes into a human-readable string.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
