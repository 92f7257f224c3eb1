package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ffservice/internal/wire"
)

// ErrRead wraps failures reading the output file during emission.
var ErrRead = errors.New("streaming: output read failed")

// EmitStats summarizes an emitted response stream.
type EmitStats struct {
	ThumbnailFrames int
	ThumbnailBytes  int64
	ContentFrames   int
	ContentBytes    int64
}

// Emitter produces the response sequence of a call: one metadata frame,
// the thumbnail split into chunks, then the output file in chunks.
type Emitter struct {
	// ChunkSize bounds the payload of each thumbnail and content frame.
	ChunkSize int
	// OnFrame, if set, is called after each frame is sent.
	OnFrame func(kind wire.Kind, payload int)
}

// Emit sends the full response. Frames already sent stay sent when a later
// step fails. A read returning no bytes ends the content phase without an
// empty frame.
func (e *Emitter) Emit(ctx context.Context, s FrameSender, md wire.Metadata, thumbnail []byte, content io.Reader) (EmitStats, error) {
	var stats EmitStats
	chunkSize := e.ChunkSize
	if chunkSize <= 0 {
		chunkSize = wire.ChunkSize
	}

	if err := e.send(s, wire.MetadataFrame{Metadata: md}, 0); err != nil {
		return stats, err
	}

	for off := 0; off < len(thumbnail); off += chunkSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := min(off+chunkSize, len(thumbnail))
		if err := e.send(s, wire.ThumbnailFrame{Chunk: thumbnail[off:end]}, end-off); err != nil {
			return stats, err
		}
		stats.ThumbnailFrames++
		stats.ThumbnailBytes += int64(end - off)
	}

	if content == nil {
		return stats, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunk := make([]byte, chunkSize)
		n, err := content.Read(chunk)
		if n > 0 {
			if sendErr := e.send(s, wire.ContentFrame{Chunk: chunk[:n]}, n); sendErr != nil {
				return stats, sendErr
			}
			stats.ContentFrames++
			stats.ContentBytes += int64(n)
		}
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("%w: %v", ErrRead, err)
		}
		if n == 0 {
			return stats, nil
		}
	}
}

func (e *Emitter) send(s FrameSender, f wire.ResponseFrame, payload int) error {
	if err := s.Send(wire.NewResponse(f)); err != nil {
		return err
	}
	if e.OnFrame != nil {
		e.OnFrame(f.Kind(), payload)
	}
	return nil
}
