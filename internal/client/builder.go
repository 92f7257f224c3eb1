package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ffservice/internal/wire"
)

// ErrRead is returned when the source cannot be read.
var ErrRead = errors.New("read source")

// RequestSink is the send half of a request stream.
type RequestSink interface {
	Send(*wire.Request) error
}

// ExtensionOf returns the extension of path without the leading dot.
func ExtensionOf(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// Builder turns a source into a request stream.
type Builder struct {
	// ChunkSize bounds each chunk frame. Zero means wire.ChunkSize.
	ChunkSize int
	// OnChunk, if set, is called after each chunk frame is sent.
	OnChunk func(n int)
}

// Build sends the header frame, then one chunk frame per read of src until
// a zero-length read or io.EOF. No empty final frame is sent; the caller
// ends the stream with CloseSend. It returns the number of payload bytes
// sent.
func (b *Builder) Build(ctx context.Context, sink RequestSink, src io.Reader, extension string, width, height uint32) (int64, error) {
	if err := sink.Send(wire.HeaderFrame(extension, width, height)); err != nil {
		return 0, err
	}

	size := b.ChunkSize
	if size <= 0 {
		size = wire.ChunkSize
	}

	var sent int64
	buf := make([]byte, size)
	for {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		n, err := src.Read(buf)
		if n > 0 {
			// gRPC may hold the message until it is written, so every
			// frame gets its own slice.
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if sendErr := sink.Send(wire.ChunkFrame(chunk)); sendErr != nil {
				return sent, sendErr
			}
			sent += int64(n)
			if b.OnChunk != nil {
				b.OnChunk(n)
			}
		}
		if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
			return sent, nil
		}
		if err != nil {
			return sent, fmt.Errorf("%w: %w", ErrRead, err)
		}
	}
}

// BuildRequest streams the file at path with its extension and the given
// target dimensions.
func BuildRequest(ctx context.Context, sink RequestSink, path string, width, height uint32) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer func() { _ = f.Close() }()

	b := &Builder{}
	return b.Build(ctx, sink, f, ExtensionOf(path), width, height)
}
