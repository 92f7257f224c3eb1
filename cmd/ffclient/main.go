package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"ffservice/internal/client"
	"ffservice/internal/memory"
	"ffservice/internal/rpc"
	"ffservice/internal/wire"
)

const (
	defaultAddr    = "localhost:2001"
	defaultTimeout = 30 * time.Minute
)

// options are the parsed command line.
type options struct {
	addr      string
	width     uint
	height    uint
	chunkSize int
	maxMsg    int
	timeout   time.Duration
	input     string
	output    string
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, canceling call...")
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("ffclient", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.addr, "addr", defaultAddr, "server address (host:port)")
	fs.UintVar(&opts.width, "w", 0, "target width (0 = source width)")
	fs.UintVar(&opts.height, "h", 0, "target height (0 = source height)")
	fs.IntVar(&opts.chunkSize, "chunk", 0, "upload chunk size in bytes (0 = 1 MiB)")
	fs.IntVar(&opts.maxMsg, "max-msg", rpc.DefaultMaxMessageSize, "largest gRPC message accepted or sent, in bytes")
	fs.DurationVar(&opts.timeout, "timeout", defaultTimeout, "overall call timeout")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: ffclient [flags] <input> <output>")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Sends <input> to VideoService/Transcode and writes the content to <output>.")
		fmt.Fprintln(stderr, "The thumbnail is written next to it as <output>.rgb and <output>.jpg.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, errors.New("expected an input and an output path")
	}
	if (opts.width == 0) != (opts.height == 0) {
		return nil, errors.New("-w and -h must be set together")
	}
	if opts.width > 1<<31-1 || opts.height > 1<<31-1 {
		return nil, errors.New("target dimensions are too large")
	}
	if opts.chunkSize < 0 {
		return nil, fmt.Errorf("-chunk must not be negative, got %d", opts.chunkSize)
	}
	chunk := opts.chunkSize
	if chunk == 0 {
		chunk = wire.ChunkSize
	}
	if opts.maxMsg < chunk+rpc.MessageOverhead {
		return nil, fmt.Errorf("-max-msg (%d) must be at least the chunk size (%d) plus %d bytes of overhead",
			opts.maxMsg, chunk, rpc.MessageOverhead)
	}
	opts.input, opts.output = fs.Arg(0), fs.Arg(1)
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	conn, err := grpc.NewClient(opts.addr,
		append(rpc.DialOptions(opts.maxMsg), grpc.WithTransportCredentials(insecure.NewCredentials()))...,
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to connect to %s: %v\n", opts.addr, err)
		return 1
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	progress := newProgressPrinter(stderr)
	c := client.New(conn, client.Options{ChunkSize: opts.chunkSize, OnProgress: progress.update})

	start := time.Now()
	res, err := c.TranscodeFile(ctx, opts.input, opts.output, uint32(opts.width), uint32(opts.height))
	progress.done()
	if err != nil {
		if st, ok := status.FromError(err); ok {
			fmt.Fprintf(stderr, "Error: %s: %s\n", st.Code(), st.Message())
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	fmt.Fprintf(stdout, "Metadata:  %dx%d, %ds\n", res.Metadata.Width, res.Metadata.Height, res.Metadata.DurationSeconds)
	fmt.Fprintf(stdout, "Output:    %s (%s)\n", res.OutputPath, memory.FormatBytes(res.ContentBytes))
	if res.RasterPath != "" {
		fmt.Fprintf(stdout, "Thumbnail: %s (%s)\n", res.RasterPath, memory.FormatBytes(int64(res.ThumbnailSize)))
	}
	if res.JPEGPath != "" {
		fmt.Fprintf(stdout, "Preview:   %s\n", res.JPEGPath)
	}
	fmt.Fprintf(stdout, "Elapsed:   %v\n", time.Since(start).Round(time.Millisecond))
	return 0
}

// progressPrinter redraws a single status line, and only when the output
// is a terminal.
type progressPrinter struct {
	w       io.Writer
	enabled bool

	mu   sync.Mutex
	last time.Time
	seen bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	p := &progressPrinter{w: w}
	if f, ok := w.(*os.File); ok {
		p.enabled = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *progressPrinter) update(pr client.Progress) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.last) < 100*time.Millisecond {
		return
	}
	p.last = time.Now()
	p.seen = true
	fmt.Fprintf(p.w, "\rSent %-10s Received %-10s", memory.FormatBytes(pr.Sent), memory.FormatBytes(pr.Received))
}

func (p *progressPrinter) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen {
		fmt.Fprintln(p.w)
	}
}
