package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ffservice/internal/engine"
	"ffservice/internal/logging"
	"ffservice/internal/metrics"
	"ffservice/internal/staging"
	"ffservice/internal/streaming"
	"ffservice/internal/wire"
	"ffservice/internal/workers"

	"go.uber.org/zap"
)

// RequestSource is the receive half of a request stream. Recv returns
// io.EOF once the client has closed its side.
type RequestSource interface {
	Recv() (*wire.Request, error)
}

// Admission holds engine work back, e.g. under memory pressure.
// *memory.Monitor implements it.
type Admission interface {
	Wait(ctx context.Context) error
}

// Config configures a Pipeline.
type Config struct {
	Engine          engine.Engine
	Limiter         *workers.Limiter
	Admission       Admission
	StagingDir      string
	ChunkSize       int
	Sender          streaming.SenderConfig
	StagingObserver staging.Observer
}

// Pipeline runs Transcode calls. It holds no per-call state and is safe for
// concurrent use.
type Pipeline struct {
	engine    engine.Engine
	limiter   *workers.Limiter
	admission Admission
	dir       string
	chunkSize int
	sender    streaming.SenderConfig
	observer  staging.Observer
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		engine:    cfg.Engine,
		limiter:   cfg.Limiter,
		admission: cfg.Admission,
		dir:       cfg.StagingDir,
		chunkSize: cfg.ChunkSize,
		sender:    cfg.Sender,
		observer:  cfg.StagingObserver,
	}
	if p.limiter == nil {
		p.limiter = workers.NewLimiter(0)
	}
	if p.chunkSize <= 0 {
		p.chunkSize = wire.ChunkSize
	}
	return p
}

// Summary describes a finished call.
type Summary struct {
	ID           string
	State        State
	Extension    string
	TargetWidth  uint32
	TargetHeight uint32
	BytesIn      int64
	BytesOut     int64
	Metadata     wire.Metadata
	Degraded     bool
	Phases       map[string]time.Duration
	Err          error
}

// call is the state of one Transcode call.
type call struct {
	p     *Pipeline
	ctx   context.Context
	log   *zap.SugaredLogger
	state State
	since time.Time
	sum   *Summary

	staged    *staging.File
	output    *staging.File
	content   *staging.File
	thumbnail []byte
}

// Run drives one call through Ingesting, Processing and Emitting. Every
// staging and output file is removed before Run returns. The returned
// error is a *Error.
func (p *Pipeline) Run(ctx context.Context, id string, src RequestSource, dst streaming.FrameSender) (*Summary, error) {
	c := &call{
		p:     p,
		ctx:   ctx,
		log:   logging.With("call_id", id),
		state: StateIngesting,
		since: time.Now(),
		sum:   &Summary{ID: id, State: StateIngesting, Phases: make(map[string]time.Duration)},
	}
	start := time.Now()
	defer c.cleanup()

	err := c.ingest(src)
	if err == nil {
		c.transition(StateProcessing)
		err = c.process()
	}
	if err == nil {
		c.transition(StateEmitting)
		err = c.emit(dst)
	}

	total := time.Since(start)
	c.sum.Phases["total"] = total
	metrics.CallPhaseDuration.WithLabelValues("total").Observe(total.Seconds())

	if err != nil {
		pe := classify(ctx, c.state.phase(), err)
		c.sum.Err = pe
		c.transition(StateFailed)
		c.log.Warnw("Call failed", "kind", pe.Kind.String(), "op", pe.Op, "error", pe.Err,
			"read_bytes", c.sum.BytesIn, "sent_bytes", c.sum.BytesOut)
		return c.sum, pe
	}

	c.transition(StateDone)
	c.log.Debugw("Call finished", "read_bytes", c.sum.BytesIn, "sent_bytes", c.sum.BytesOut,
		"metadata", c.sum.Metadata.String(), "degraded", c.sum.Degraded, "duration", total)
	return c.sum, nil
}

func (c *call) transition(to State) {
	if !canTransition(c.state, to) {
		c.log.Errorw("Illegal state transition", "from", c.state.String(), "to", to.String())
		return
	}
	if phase := c.state.phase(); phase != "" {
		d := time.Since(c.since)
		c.sum.Phases[phase] = d
		metrics.CallPhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	}
	c.log.Debugw("State transition", "from", c.state.String(), "to", to.String())
	c.state = to
	c.sum.State = to
	c.since = time.Now()
}

// ingest drains the request stream into a staging file.
func (c *call) ingest(src RequestSource) error {
	a := staging.NewAssembler(c.p.dir, c.p.observer, c.log)

	for {
		req, err := src.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			a.Abort()
			if c.ctx.Err() != nil {
				return c.ctx.Err()
			}
			return fmt.Errorf("receive: %w", err)
		}
		if err := a.OnFrame(req); err != nil {
			a.Abort()
			return err
		}
		c.sum.BytesIn = a.BytesReceived()
	}

	res, err := a.Complete()
	if err != nil {
		return err
	}
	c.staged = res.File
	c.sum.Extension = res.File.Extension()
	c.sum.TargetWidth, c.sum.TargetHeight = res.TargetWidth, res.TargetHeight
	c.sum.BytesIn = res.Bytes

	c.log.Debugw("Ingest complete", "path", res.File.Path(), "frames", res.Frames,
		"read_bytes", res.Bytes, "target_width", res.TargetWidth, "target_height", res.TargetHeight)
	return nil
}

// process runs the engine under a limiter slot.
func (c *call) process() error {
	if err := c.ctx.Err(); err != nil {
		return err
	}

	if c.p.admission != nil {
		held := time.Now()
		if err := c.p.admission.Wait(c.ctx); err != nil {
			return err
		}
		if d := time.Since(held); d > time.Millisecond {
			metrics.MemoryWaitDuration.Observe(d.Seconds())
			c.log.Debugw("Held by memory backpressure", "wait", d)
		}
	}

	queued := time.Now()
	release, err := c.p.limiter.Acquire(c.ctx)
	if err != nil {
		return err
	}
	metrics.EngineQueueWait.Observe(time.Since(queued).Seconds())
	metrics.EngineWorkersBusy.Inc()
	defer func() {
		metrics.EngineWorkersBusy.Dec()
		release()
	}()

	eng := c.p.engine
	stream, err := eng.ProbeBestVideoStream(c.ctx, c.staged.Path())
	if err != nil {
		return c.engineError("probe", err)
	}

	w, h := int(c.sum.TargetWidth), int(c.sum.TargetHeight)
	thumb, err := eng.ExtractThumbnail(c.ctx, stream, w, h)
	if err != nil {
		return c.engineError("thumbnail", err)
	}
	c.thumbnail = thumb.Raster

	c.sum.Metadata = wire.Metadata{
		Width:           int32(stream.Width),
		Height:          int32(stream.Height),
		DurationSeconds: eng.Duration(stream),
	}

	if err := c.ctx.Err(); err != nil {
		return err
	}
	return c.transcode(w, h)
}

// engineError reports probe and thumbnail failures as the client's fault
// unless the call was canceled.
func (c *call) engineError(op string, err error) error {
	if c.ctx.Err() != nil {
		return c.ctx.Err()
	}
	return &Error{Kind: KindInvalidArgument, Op: op, Err: err}
}

// transcode produces the content file. Anything short of cancellation
// falls back to echoing the staged source.
func (c *call) transcode(w, h int) error {
	out, f, err := staging.Create(c.p.dir, c.staged.Extension(), c.p.observer)
	if err != nil {
		return err
	}
	c.output = out
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	err = c.p.engine.Transcode(c.ctx, c.staged.Path(), out.Path(), w, h)
	switch {
	case err == nil:
		c.content = out
		return nil
	case c.ctx.Err() != nil:
		return c.ctx.Err()
	case errors.Is(err, engine.ErrTranscodeUnavailable):
		c.log.Debugw("Transcoding unavailable, echoing source")
	default:
		c.log.Warnw("Transcoding failed, echoing source", "error", err)
	}

	metrics.TranscodeFallbackTotal.Inc()
	c.sum.Degraded = true
	c.content = c.staged
	c.removeOutput()
	return nil
}

// emit streams metadata, thumbnail and content to dst.
func (c *call) emit(dst streaming.FrameSender) error {
	r, err := c.content.Open()
	if err != nil {
		return fmt.Errorf("%w: open: %v", streaming.ErrRead, err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			c.log.Warnw("Failed to close content file", "error", err)
		}
	}()

	ts := streaming.NewTimeoutSender(c.ctx, dst, c.p.sender)
	defer ts.Close()

	e := &streaming.Emitter{
		ChunkSize: c.p.chunkSize,
		OnFrame: func(kind wire.Kind, payload int) {
			metrics.FramesSentTotal.WithLabelValues(kind.String()).Inc()
			metrics.BytesSentTotal.WithLabelValues(kind.String()).Add(float64(payload))
			c.sum.BytesOut += int64(payload)
		},
	}

	stats, err := e.Emit(c.ctx, ts, c.sum.Metadata, c.thumbnail, r)
	if errors.Is(err, streaming.ErrSendTimeout) {
		metrics.SendTimeoutsTotal.Inc()
	}
	if err != nil {
		return err
	}

	frames, sent, elapsed := ts.Stats()
	c.log.Debugw("Emit complete", "frames", frames, "thumbnail_frames", stats.ThumbnailFrames,
		"content_frames", stats.ContentFrames, "sent_bytes", sent, "duration", elapsed)
	return nil
}

func (c *call) removeOutput() {
	if c.output == nil {
		return
	}
	if err := c.output.Remove(); err != nil {
		c.log.Warnw("Failed to remove output file", "error", err)
	}
	c.output = nil
}

// cleanup removes every file the call created.
func (c *call) cleanup() {
	c.removeOutput()
	if c.staged != nil {
		if err := c.staged.Remove(); err != nil {
			c.log.Warnw("Failed to remove staging file", "error", err)
		}
	}
	c.thumbnail = nil
}
