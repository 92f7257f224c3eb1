package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"ffservice/internal/logging"
	"ffservice/internal/media"
	"ffservice/internal/rpc"
	"ffservice/internal/wire"
)

// JPEGQuality is used for the thumbnail preview written next to the output.
const JPEGQuality = 90

// Progress reports transfer totals.
type Progress struct {
	Sent     int64
	Received int64
}

// Options configures a Client.
type Options struct {
	ChunkSize int
	// OnProgress, if set, is called after every chunk sent or frame
	// received. It may be called from two goroutines.
	OnProgress func(Progress)
}

// Client calls VideoService/Transcode.
type Client struct {
	rpc  *rpc.Client
	opts Options
}

// New creates a Client on cc.
func New(cc grpc.ClientConnInterface, opts Options) *Client {
	return &Client{rpc: rpc.NewClient(cc), opts: opts}
}

// Request describes one call.
type Request struct {
	Source       io.Reader
	Extension    string
	TargetWidth  uint32
	TargetHeight uint32
}

// Response receives the payload of one call.
type Response struct {
	Thumbnail io.Writer
	Content   io.Writer
}

// Transcode runs one call. The request stream is sent while the response
// stream is consumed, so a server that rejects the call early is seen
// without sending the whole source.
func (c *Client) Transcode(ctx context.Context, req Request, resp Response) (wire.Metadata, error) {
	g, gctx := errgroup.WithContext(ctx)

	stream, err := c.rpc.Transcode(gctx)
	if err != nil {
		return wire.Metadata{}, err
	}

	var sent, received atomic.Int64
	progress := func() {
		if c.opts.OnProgress != nil {
			c.opts.OnProgress(Progress{Sent: sent.Load(), Received: received.Load()})
		}
	}

	g.Go(func() error {
		b := &Builder{
			ChunkSize: c.opts.ChunkSize,
			OnChunk: func(n int) {
				sent.Add(int64(n))
				progress()
			},
		}
		_, err := b.Build(gctx, stream, req.Source, req.Extension, req.TargetWidth, req.TargetHeight)
		// io.EOF means the server ended the call; its status comes from Recv.
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if err := stream.CloseSend(); err != nil {
			logging.Debug("CloseSend: %v", err)
		}
		return nil
	})

	var md wire.Metadata
	g.Go(func() error {
		d := &Demuxer{
			Thumbnail: resp.Thumbnail,
			Content:   resp.Content,
			OnFrame: func(_ wire.Kind, n int) {
				received.Add(int64(n))
				progress()
			},
		}
		var err error
		md, err = d.Consume(stream)
		return err
	})

	if err := g.Wait(); err != nil {
		return wire.Metadata{}, err
	}
	return md, nil
}

// FileResult describes the files written by TranscodeFile.
type FileResult struct {
	Metadata      wire.Metadata
	OutputPath    string
	RasterPath    string
	JPEGPath      string
	ContentBytes  int64
	ThumbnailSize int
}

// TranscodeFile sends the file at in and writes the content to out. A
// non-empty thumbnail is written as raw RGB24 to out+".rgb", and also as
// JPEG to out+".jpg" when its size matches the expected raster. Partial
// output is removed on failure.
func (c *Client) TranscodeFile(ctx context.Context, in, out string, width, height uint32) (res *FileResult, err error) {
	src, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(out)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(out)
		}
	}()

	cw := &countingWriter{w: dst}
	var thumbnail bytes.Buffer
	md, err := c.Transcode(ctx,
		Request{Source: src, Extension: ExtensionOf(in), TargetWidth: width, TargetHeight: height},
		Response{Thumbnail: &thumbnail, Content: cw},
	)
	if err != nil {
		return nil, err
	}

	res = &FileResult{
		Metadata:      md,
		OutputPath:    out,
		ContentBytes:  cw.n,
		ThumbnailSize: thumbnail.Len(),
	}
	if thumbnail.Len() == 0 {
		return res, nil
	}

	res.RasterPath = out + ".rgb"
	if err := os.WriteFile(res.RasterPath, thumbnail.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write thumbnail: %w", err)
	}

	w, h := thumbnailSize(md, width, height)
	if thumbnail.Len() != media.RasterSize(w, h) {
		logging.Warn("Thumbnail is %d bytes, not a %dx%d raster; skipping JPEG", thumbnail.Len(), w, h)
		return res, nil
	}
	jpegPath := out + ".jpg"
	if err := writeJPEG(jpegPath, thumbnail.Bytes(), w, h); err != nil {
		logging.Warn("Failed to write JPEG thumbnail: %v", err)
		return res, nil
	}
	res.JPEGPath = jpegPath
	return res, nil
}

// thumbnailSize is the raster size the server produces: the requested
// dimensions, or the source dimensions when either is zero.
func thumbnailSize(md wire.Metadata, width, height uint32) (int, int) {
	if width > 0 && height > 0 {
		return int(width), int(height)
	}
	return int(md.Width), int(md.Height)
}

func writeJPEG(path string, raster []byte, width, height int) (err error) {
	img, err := media.FromRaster(raster, width, height)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return media.EncodeJPEG(f, img, JPEGQuality)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
