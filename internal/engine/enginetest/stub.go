// Package enginetest provides an in-memory engine.Engine for tests.
package enginetest

import (
	"bytes"
	"context"
	"os"
	"sync"
	"sync/atomic"

	"ffservice/internal/engine"
	"ffservice/internal/media"
)

// Stub is an engine.Engine that never runs a process. The zero value
// reports a 1920x1080 stream of 10 seconds and does not transcode.
type Stub struct {
	Width, Height int
	TimeBase      engine.Rational
	DurationTicks int64

	ProbeErr     error
	ThumbnailErr error

	// Transcoded, if set, is written to dst by Transcode. Otherwise
	// Transcode returns TranscodeErr or engine.ErrTranscodeUnavailable.
	Transcoded   []byte
	TranscodeErr error

	// Block, if set, makes every operation wait until it is closed or ctx ends.
	Block chan struct{}

	mu     sync.Mutex
	probed []string
	calls  atomic.Int32
}

func (s *Stub) wait(ctx context.Context) error {
	if s.Block == nil {
		return nil
	}
	select {
	case <-s.Block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProbeBestVideoStream implements engine.Engine.
func (s *Stub) ProbeBestVideoStream(ctx context.Context, path string) (*engine.Stream, error) {
	s.calls.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.ProbeErr != nil {
		return nil, s.ProbeErr
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.probed = append(s.probed, path)
	s.mu.Unlock()

	st := &engine.Stream{
		Path:     path,
		Width:    s.Width,
		Height:   s.Height,
		TimeBase: s.TimeBase,
		Duration: s.DurationTicks,
	}
	if st.Width == 0 || st.Height == 0 {
		st.Width, st.Height = 1920, 1080
	}
	if st.TimeBase.Den == 0 {
		st.TimeBase = engine.Rational{Num: 1, Den: 30}
		st.Duration = 300
	}
	return st, nil
}

// ExtractThumbnail implements engine.Engine with a solid raster.
func (s *Stub) ExtractThumbnail(ctx context.Context, st *engine.Stream, width, height int) (*engine.Thumbnail, error) {
	s.calls.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.ThumbnailErr != nil {
		return nil, s.ThumbnailErr
	}
	w, h := engine.TargetSize(width, height, st.Width, st.Height)
	return &engine.Thumbnail{
		Raster:       bytes.Repeat([]byte{0x7f}, media.RasterSize(w, h)),
		Width:        w,
		Height:       h,
		SourceWidth:  st.Width,
		SourceHeight: st.Height,
		SeekTarget:   engine.SeekTarget(st.StartTime, st.Duration),
	}, nil
}

// Duration implements engine.Engine.
func (s *Stub) Duration(st *engine.Stream) int64 {
	return engine.DurationSeconds(st.Duration, st.TimeBase)
}

// Transcode implements engine.Engine.
func (s *Stub) Transcode(ctx context.Context, src, dst string, width, height int) error {
	s.calls.Add(1)
	if err := s.wait(ctx); err != nil {
		return err
	}
	if s.Transcoded != nil {
		return os.WriteFile(dst, s.Transcoded, 0o600)
	}
	if s.TranscodeErr != nil {
		return s.TranscodeErr
	}
	return engine.ErrTranscodeUnavailable
}

// Probed returns the paths passed to ProbeBestVideoStream.
func (s *Stub) Probed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.probed...)
}

// Calls returns the number of engine operations started.
func (s *Stub) Calls() int {
	return int(s.calls.Load())
}
