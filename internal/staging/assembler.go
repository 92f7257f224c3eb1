package staging

import (
	"errors"
	"fmt"
	"os"

	"ffservice/internal/logging"
	"ffservice/internal/mediatypes"
	"ffservice/internal/wire"
)

var (
	// ErrMissingHeader is returned when the request stream does not open
	// with a frame carrying a file extension.
	ErrMissingHeader = errors.New("staging: first frame must carry a file extension")

	// ErrWrite wraps failures appending to the staging file.
	ErrWrite = errors.New("staging: write failed")

	// ErrClosed is returned by OnFrame after Complete or Abort.
	ErrClosed = errors.New("staging: assembler closed")
)

// Result is the outcome of a fully ingested request stream. The caller owns
// File and must Remove it.
type Result struct {
	File         *File
	TargetWidth  uint32
	TargetHeight uint32
	Bytes        int64
	Frames       int
}

// Assembler consumes request frames and writes their payload to one staging
// file. It is not safe for concurrent use; each call owns its own.
type Assembler struct {
	dir      string
	observer Observer
	log      Logger

	file   *File
	w      *os.File
	width  uint32
	height uint32
	bytes  int64
	frames int
	closed bool
}

// Logger is the subset of *zap.SugaredLogger the assembler uses.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
}

// NewAssembler creates an assembler that stages into dir.
func NewAssembler(dir string, obs Observer, log Logger) *Assembler {
	if obs == nil {
		obs = nopObserver{}
	}
	if log == nil {
		log = logging.With()
	}
	return &Assembler{dir: dir, observer: obs, log: log}
}

// OnFrame applies one request frame. The first frame must carry an
// extension; the staging file is created from it. Later extensions and
// later positive dimension pairs are ignored.
func (a *Assembler) OnFrame(f *wire.Request) error {
	if a.closed {
		return ErrClosed
	}
	a.frames++

	if h := f.Header; h != nil {
		if err := a.applyHeader(h); err != nil {
			return err
		}
	}

	if a.file == nil {
		// Either the first frame had no header or a chunk arrived before it.
		return ErrMissingHeader
	}

	if len(f.Chunk) == 0 {
		return nil
	}

	n, err := a.w.Write(f.Chunk)
	a.bytes += int64(n)
	if n > 0 {
		a.observer.BytesWritten(n)
	}
	if err != nil {
		a.observer.Error("write")
		a.Abort()
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

func (a *Assembler) applyHeader(h *wire.Header) error {
	if h.Extension != "" {
		if a.file == nil {
			file, w, err := Create(a.dir, h.Extension, a.observer)
			if err != nil {
				if errors.Is(err, ErrInvalidExtension) {
					return err
				}
				return fmt.Errorf("%w: %v", ErrWrite, err)
			}
			a.file, a.w = file, w
			a.log.Debugw("Staging file created", "path", file.Path(), "extension", file.Extension(),
				"mime", mediatypes.GetMimeType(file.Extension()))
			if !mediatypes.IsVideo(file.Extension()) {
				a.log.Debugw("Unrecognized container extension, relying on probe", "extension", file.Extension())
			}
		} else if h.Extension != a.file.Extension() {
			a.log.Debugw("Ignoring repeated extension", "extension", h.Extension, "frame", a.frames)
		}
	}

	if h.HasDimensions() {
		if a.width == 0 && a.height == 0 {
			a.width, a.height = h.TargetWidth, h.TargetHeight
		} else if h.TargetWidth != a.width || h.TargetHeight != a.height {
			a.log.Debugw("Ignoring repeated target dimensions",
				"width", h.TargetWidth, "height", h.TargetHeight, "frame", a.frames)
		}
	}
	return nil
}

// Complete closes the staging file for writing and hands it over. On error
// the staging file has already been removed.
func (a *Assembler) Complete() (*Result, error) {
	if a.closed {
		return nil, ErrClosed
	}
	if a.file == nil {
		a.closed = true
		return nil, ErrMissingHeader
	}

	if err := a.w.Close(); err != nil {
		a.observer.Error("write")
		a.w = nil
		a.Abort()
		return nil, fmt.Errorf("%w: close: %v", ErrWrite, err)
	}
	a.w = nil
	a.closed = true

	return &Result{
		File:         a.file,
		TargetWidth:  a.width,
		TargetHeight: a.height,
		Bytes:        a.bytes,
		Frames:       a.frames,
	}, nil
}

// Abort closes and removes the staging file, if any. It is safe to call at
// any point, including after a failed OnFrame.
func (a *Assembler) Abort() {
	if a.closed {
		return
	}
	a.closed = true

	if a.w != nil {
		_ = a.w.Close()
		a.w = nil
	}
	if a.file != nil {
		if err := a.file.Remove(); err != nil {
			logging.Warn("%v", err)
		}
	}
}

// BytesReceived returns the payload bytes written so far.
func (a *Assembler) BytesReceived() int64 {
	return a.bytes
}
