package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"ffservice/internal/wire"
)

// ErrIncompleteResponse is returned when the response stream ends before a
// metadata frame arrived.
var ErrIncompleteResponse = errors.New("response ended before metadata")

// ResponseSource is the receive half of a response stream. Recv returns
// io.EOF when the server closed the stream normally.
type ResponseSource interface {
	Recv() (*wire.Response, error)
}

// Demuxer splits a response stream into metadata, thumbnail and content.
// Frames of any kind may arrive any number of times in any order; the last
// metadata frame wins.
type Demuxer struct {
	Thumbnail io.Writer
	Content   io.Writer

	// OnFrame, if set, is called for every frame received.
	OnFrame func(kind wire.Kind, payload int)
}

// Consume reads src until it ends. Any error from src other than io.EOF is
// returned unchanged, so gRPC status errors reach the caller as they are.
func (d *Demuxer) Consume(src ResponseSource) (wire.Metadata, error) {
	var (
		md   wire.Metadata
		seen bool
	)
	for {
		resp, err := src.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return wire.Metadata{}, err
		}

		for _, f := range resp.Frames {
			n := 0
			switch f := f.(type) {
			case wire.MetadataFrame:
				md, seen = f.Metadata, true
			case wire.ThumbnailFrame:
				n = len(f.Chunk)
				if err := write(d.Thumbnail, f.Chunk); err != nil {
					return wire.Metadata{}, fmt.Errorf("write thumbnail: %w", err)
				}
			case wire.ContentFrame:
				n = len(f.Chunk)
				if err := write(d.Content, f.Chunk); err != nil {
					return wire.Metadata{}, fmt.Errorf("write content: %w", err)
				}
			}
			if d.OnFrame != nil {
				d.OnFrame(f.Kind(), n)
			}
		}
	}

	if !seen {
		return wire.Metadata{}, ErrIncompleteResponse
	}
	return md, nil
}

func write(w io.Writer, p []byte) error {
	if w == nil {
		return nil
	}
	_, err := w.Write(p)
	return err
}

// Demux consumes src into memory.
func Demux(src ResponseSource) (md wire.Metadata, thumbnail, content []byte, err error) {
	var tb, cb bytes.Buffer
	d := &Demuxer{Thumbnail: &tb, Content: &cb}
	md, err = d.Consume(src)
	if err != nil {
		return wire.Metadata{}, nil, nil, err
	}
	return md, tb.Bytes(), cb.Bytes(), nil
}
