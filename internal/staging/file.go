package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidExtension is returned for extensions that cannot be used as a
// file name suffix.
var ErrInvalidExtension = errors.New("staging: invalid file extension")

// Observer receives staging file instrumentation. metrics.NewStagingObserver
// provides the Prometheus implementation.
type Observer interface {
	FileOpened()
	FileRemoved()
	BytesWritten(n int)
	Error(operation string)
}

type nopObserver struct{}

func (nopObserver) FileOpened()      {}
func (nopObserver) FileRemoved()     {}
func (nopObserver) BytesWritten(int) {}
func (nopObserver) Error(string)     {}

// File is a temporary file owned by a single call. Remove must be called
// on every exit path; it is safe to call more than once.
type File struct {
	path     string
	ext      string
	observer Observer

	mu      sync.Mutex
	removed bool
}

// NormalizeExtension strips a leading dot and rejects values that would
// escape the staging directory.
func NormalizeExtension(ext string) (string, error) {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return "", ErrInvalidExtension
	}
	if strings.ContainsAny(ext, `/\`+"\x00") || strings.Contains(ext, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	return ext, nil
}

// Create makes a uniquely named empty file in dir ending in "."+ext and
// returns it open for writing. An empty dir means os.TempDir().
func Create(dir, ext string, obs Observer) (*File, *os.File, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	ext, err := NormalizeExtension(ext)
	if err != nil {
		return nil, nil, err
	}

	if dir == "" {
		dir = os.TempDir()
	}
	name := filepath.Join(dir, "ffservice-"+uuid.NewString()+"."+ext)
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		obs.Error("create")
		return nil, nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	obs.FileOpened()

	return &File{path: f.Name(), ext: ext, observer: obs}, f, nil
}

// Path returns the file's location on disk.
func (f *File) Path() string { return f.path }

// Extension returns the extension without the leading dot.
func (f *File) Extension() string { return f.ext }

// Size returns the current size on disk.
func (f *File) Size() (int64, error) {
	info, err := statWithRetry(f.path, DefaultRetryConfig())
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Open opens the file for reading from its start.
func (f *File) Open() (*os.File, error) {
	return openWithRetry(f.path, DefaultRetryConfig())
}

// Remove deletes the file. Later calls are no-ops.
func (f *File) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removed {
		return nil
	}
	f.removed = true

	err := removeWithRetry(f.path, DefaultRetryConfig())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		f.observer.Error("remove")
		return fmt.Errorf("failed to remove staging file %s: %w", f.path, err)
	}
	f.observer.FileRemoved()
	return nil
}
