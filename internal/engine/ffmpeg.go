package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ffservice/internal/logging"
	"ffservice/internal/media"
	"ffservice/internal/mediatypes"
)

// Config configures the FFmpeg engine.
type Config struct {
	FFmpegPath         string
	FFprobePath        string
	TranscodingEnabled bool
	Observer           Observer
}

// FFmpeg implements Engine by running ffprobe and ffmpeg processes.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	transcode   bool
	observer    Observer

	processes map[string]*exec.Cmd
	processMu sync.Mutex
	seq       atomic.Uint64
}

// New creates an FFmpeg engine.
func New(cfg Config) *FFmpeg {
	f := &FFmpeg{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		transcode:   cfg.TranscodingEnabled,
		observer:    cfg.Observer,
		processes:   make(map[string]*exec.Cmd),
	}
	if f.ffmpegPath == "" {
		f.ffmpegPath = "ffmpeg"
	}
	if f.ffprobePath == "" {
		f.ffprobePath = "ffprobe"
	}
	if f.observer == nil {
		f.observer = nopObserver{}
	}
	return f
}

// TranscodingEnabled returns whether Transcode re-encodes.
func (f *FFmpeg) TranscodingEnabled() bool {
	return f.transcode
}

// ProbeBestVideoStream runs ffprobe on path and selects its video stream.
func (f *FFmpeg) ProbeBestVideoStream(ctx context.Context, path string) (s *Stream, err error) {
	start := time.Now()
	defer func() { f.observer.ObserveOperation("probe", time.Since(start).Seconds(), err) }()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := f.run(cmd, "probe", path); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: ffprobe: %v - %s", ErrStreamNotFound, err, strings.TrimSpace(stderr.String()))
	}

	return parseProbe(stdout.Bytes(), path)
}

// ExtractThumbnail decodes one frame at SeekTarget and rasterizes it.
// Input seeking makes ffmpeg decode from the preceding keyframe and drop
// frames until the target, so the first frame written is the first one at or
// after it.
func (f *FFmpeg) ExtractThumbnail(ctx context.Context, s *Stream, width, height int) (t *Thumbnail, err error) {
	start := time.Now()
	defer func() { f.observer.ObserveOperation("thumbnail", time.Since(start).Seconds(), err) }()

	target := SeekTarget(s.StartTime, s.Duration)
	// -ss is relative to the container start, not the stream start.
	offset := s.TimeBase.Seconds(target - s.StartTime)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-v", "error",
		"-ss", strconv.FormatFloat(offset, 'f', 6, 64),
		"-i", s.Path,
		"-map", "0:"+strconv.Itoa(s.Index),
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := f.run(cmd, "thumbnail", s.Path); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg thumbnail: %w - %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, ErrThumbnailUnavailable
	}

	img, err := media.DecodeFrame(&stdout)
	if err != nil {
		return nil, err
	}
	return thumbnailFromFrame(img, s, target, width, height)
}

// thumbnailFromFrame scales a decoded frame to the requested size.
func thumbnailFromFrame(img image.Image, s *Stream, target int64, width, height int) (*Thumbnail, error) {
	srcW, srcH := s.Width, s.Height
	if srcW <= 0 || srcH <= 0 {
		b := img.Bounds()
		srcW, srcH = b.Dx(), b.Dy()
	}
	w, h := TargetSize(width, height, srcW, srcH)

	raster, err := media.Rasterize(img, w, h)
	if err != nil {
		return nil, err
	}
	return &Thumbnail{
		Raster:       raster,
		Width:        w,
		Height:       h,
		SourceWidth:  srcW,
		SourceHeight: srcH,
		SeekTarget:   target,
	}, nil
}

// Duration returns the stream duration in whole seconds.
func (f *FFmpeg) Duration(s *Stream) int64 {
	return DurationSeconds(s.Duration, s.TimeBase)
}

// Transcode re-encodes src into dst, scaled to width x height when both are
// positive. The container follows dst's extension and picks the encoders.
func (f *FFmpeg) Transcode(ctx context.Context, src, dst string, width, height int) (err error) {
	if !f.transcode {
		f.observer.ObserveOperation("transcode", 0, ErrTranscodeUnavailable)
		return ErrTranscodeUnavailable
	}

	start := time.Now()
	defer func() { f.observer.ObserveOperation("transcode", time.Since(start).Seconds(), err) }()

	args := transcodeArgs(src, dst, width, height)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	cmd.Stderr = &stderr

	if err := f.run(cmd, "transcode", src); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Debug("FFmpeg stderr: %s", stderr.String())
		return fmt.Errorf("transcoding error: %w", err)
	}
	return nil
}

// run starts cmd, tracks it until it exits, and waits for it.
func (f *FFmpeg) run(cmd *exec.Cmd, op, path string) error {
	key := fmt.Sprintf("%s#%d:%s", op, f.seq.Add(1), path)

	f.processMu.Lock()
	f.processes[key] = cmd
	f.processMu.Unlock()

	defer func() {
		f.processMu.Lock()
		delete(f.processes, key)
		f.processMu.Unlock()
	}()

	if err := cmd.Start(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
		}
		return err
	}
	f.observer.ProcessStarted()
	defer f.observer.ProcessExited()

	return cmd.Wait()
}

// ActiveProcesses returns the number of running ffmpeg/ffprobe processes.
func (f *FFmpeg) ActiveProcesses() int {
	f.processMu.Lock()
	defer f.processMu.Unlock()
	return len(f.processes)
}

// Cleanup kills all running processes.
func (f *FFmpeg) Cleanup() {
	f.processMu.Lock()
	defer f.processMu.Unlock()

	for key, cmd := range f.processes {
		if cmd.Process != nil {
			logging.Info("Killing engine process: %s", key)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill engine process %s: %v", key, err)
			}
		}
	}
}

// Available reports whether both binaries can be found.
func (f *FFmpeg) Available() bool {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return false
	}
	_, err := exec.LookPath(f.ffprobePath)
	return err == nil
}

func transcodeArgs(src, dst string, width, height int) []string {
	c := mediatypes.ContainerFor(filepath.Ext(dst))

	args := []string{
		"-v", "error",
		"-y",
		"-i", src,
		"-c:v", c.VideoCodec,
	}
	args = append(args, c.VideoArgs...)
	args = append(args, "-c:a", c.AudioCodec, "-b:a", "128k")
	if width > 0 && height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", width, height))
	}
	return append(args, dst)
}
