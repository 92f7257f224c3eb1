package engine

import (
	"context"
	"errors"
)

var (
	// ErrStreamNotFound is returned when a staged file has no decodable video stream.
	ErrStreamNotFound = errors.New("engine: no video stream found")

	// ErrThumbnailUnavailable is returned when no frame at or after the seek
	// target could be decoded before the end of the stream.
	ErrThumbnailUnavailable = errors.New("engine: no frame at or after seek target")

	// ErrTranscodeUnavailable is returned when the engine cannot re-encode.
	// Callers fall back to echoing the staged source.
	ErrTranscodeUnavailable = errors.New("engine: transcoding unavailable")
)

// Rational is a stream time base such as 1/30.
type Rational struct {
	Num int64
	Den int64
}

// Seconds converts a tick count in this time base to seconds.
func (r Rational) Seconds(ticks int64) float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(ticks) * float64(r.Num) / float64(r.Den)
}

// Stream identifies the selected video stream of a staged file.
type Stream struct {
	Path      string
	Index     int
	Codec     string
	Width     int
	Height    int
	TimeBase  Rational
	StartTime int64 // ticks
	Duration  int64 // ticks
}

// Thumbnail is a scaled still frame packed as RGB24.
type Thumbnail struct {
	Raster       []byte
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
	SeekTarget   int64 // ticks in the stream time base
}

// Engine is the media capability a call is processed through. The FFmpeg
// type is the production implementation; tests substitute stubs.
type Engine interface {
	// ProbeBestVideoStream selects the video stream of path to work on.
	ProbeBestVideoStream(ctx context.Context, path string) (*Stream, error)

	// ExtractThumbnail decodes the first frame at or after SeekTarget and
	// scales it to width x height. Zero dimensions mean the source size.
	ExtractThumbnail(ctx context.Context, s *Stream, width, height int) (*Thumbnail, error)

	// Duration returns the stream duration in whole seconds.
	Duration(s *Stream) int64

	// Transcode re-encodes src into dst scaled to width x height.
	Transcode(ctx context.Context, src, dst string, width, height int) error
}

// Observer receives engine instrumentation. metrics.NewEngineObserver
// provides the Prometheus implementation.
type Observer interface {
	ObserveOperation(operation string, durationSeconds float64, err error)
	ProcessStarted()
	ProcessExited()
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, float64, error) {}
func (nopObserver) ProcessStarted()                         {}
func (nopObserver) ProcessExited()                          {}

// SeekTarget returns the thumbnail position: 10% into the stream, offset by
// its start time.
func SeekTarget(startTime, duration int64) int64 {
	return startTime + int64(float64(duration)*0.1)
}

// DurationSeconds computes floor(duration * num / den).
func DurationSeconds(duration int64, tb Rational) int64 {
	if tb.Den <= 0 || tb.Num <= 0 || duration <= 0 {
		return 0
	}
	return duration * tb.Num / tb.Den
}

// TargetSize resolves requested thumbnail dimensions against the source.
// Both must be positive to be honored.
func TargetSize(width, height, srcWidth, srcHeight int) (int, int) {
	if width > 0 && height > 0 {
		return width, height
	}
	return srcWidth, srcHeight
}
