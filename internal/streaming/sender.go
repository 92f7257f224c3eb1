package streaming

import (
	"context"
	"errors"
	"sync"
	"time"

	"ffservice/internal/logging"
	"ffservice/internal/wire"
)

// Sentinel errors for streaming operations.
var (
	// ErrSendTimeout indicates that a send exceeded the configured timeout or
	// the stream stayed idle too long. This typically means the client stopped
	// reading and transport flow control is holding the send.
	ErrSendTimeout = errors.New("send timeout exceeded")

	// ErrClientGone indicates that the call context was canceled before the
	// stream completed.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates that the sender was closed or its deadline
	// expired.
	ErrStreamCanceled = errors.New("stream canceled")
)

// FrameSender is the send half of a response stream.
type FrameSender interface {
	Send(*wire.Response) error
}

// SenderConfig configures the timeout sender behavior
type SenderConfig struct {
	// SendTimeout is the maximum time to wait for a single send
	SendTimeout time.Duration
	// IdleTimeout is the maximum time between successful sends
	IdleTimeout time.Duration
	// MaxDuration is the absolute maximum streaming duration (0 = unlimited)
	MaxDuration time.Duration
	// OnProgress is called after every mebibyte of payload sent
	OnProgress func(bytesSent int64, duration time.Duration)
}

// DefaultSenderConfig returns sensible defaults
func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		SendTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

// TimeoutSender wraps a FrameSender with timeout protection. Sends block
// while the transport applies backpressure, up to SendTimeout.
type TimeoutSender struct {
	s         FrameSender
	parent    context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	config    SenderConfig
	startTime time.Time
	lastSend  time.Time
	bytesSent int64
	frames    int64
	mu        sync.Mutex
	closed    bool
	timedOut  bool
}

// NewTimeoutSender creates a new timeout-protected sender
func NewTimeoutSender(ctx context.Context, s FrameSender, config SenderConfig) *TimeoutSender {
	senderCtx, cancel := context.WithCancel(ctx)

	ts := &TimeoutSender{
		s:         s,
		parent:    ctx,
		ctx:       senderCtx,
		cancel:    cancel,
		config:    config,
		startTime: time.Now(),
		lastSend:  time.Now(),
	}

	go ts.idleChecker()

	return ts
}

// Send implements FrameSender with timeout protection
func (ts *TimeoutSender) Send(resp *wire.Response) error {
	ts.mu.Lock()
	if ts.closed {
		ts.mu.Unlock()
		return ErrStreamCanceled
	}
	ts.mu.Unlock()

	select {
	case <-ts.ctx.Done():
		return ts.contextError()
	default:
	}

	if ts.config.MaxDuration > 0 && time.Since(ts.startTime) > ts.config.MaxDuration {
		return ErrSendTimeout
	}

	return ts.sendWithTimeout(resp)
}

// sendWithTimeout performs a single send with timeout
func (ts *TimeoutSender) sendWithTimeout(resp *wire.Response) error {
	// A timed-out Send keeps running until the underlying stream returns.
	// gRPC unblocks it once the stream context is canceled, which happens when
	// the handler returns; resultCh is buffered so the goroutine never blocks
	// on delivering its result.
	resultCh := make(chan error, 1)

	go func() {
		resultCh <- ts.s.Send(resp)
	}()

	var timeout <-chan time.Time
	if ts.config.SendTimeout > 0 {
		timer := time.NewTimer(ts.config.SendTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-resultCh:
		if err == nil {
			n := payloadSize(resp)
			ts.mu.Lock()
			before := ts.bytesSent
			ts.lastSend = time.Now()
			ts.bytesSent += n
			ts.frames++
			after := ts.bytesSent
			ts.mu.Unlock()

			if ts.config.OnProgress != nil && before/(1024*1024) != after/(1024*1024) {
				ts.config.OnProgress(after, time.Since(ts.startTime))
			}
		}
		return err

	case <-timeout:
		ts.markTimedOut()
		return ErrSendTimeout

	case <-ts.ctx.Done():
		return ts.contextError()
	}
}

func (ts *TimeoutSender) markTimedOut() {
	ts.mu.Lock()
	ts.timedOut = true
	ts.mu.Unlock()
	ts.cancel()
}

// idleChecker monitors for stalled streams
func (ts *TimeoutSender) idleChecker() {
	if ts.config.IdleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(ts.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ts.mu.Lock()
			idle := time.Since(ts.lastSend)
			closed := ts.closed
			ts.mu.Unlock()

			if closed {
				return
			}

			if idle > ts.config.IdleTimeout {
				logging.Warn("Stream idle timeout exceeded: %v", idle)
				ts.markTimedOut()
				return
			}

		case <-ts.ctx.Done():
			return
		}
	}
}

// contextError returns an appropriate error based on context state
func (ts *TimeoutSender) contextError() error {
	ts.mu.Lock()
	timedOut := ts.timedOut
	ts.mu.Unlock()

	switch {
	case timedOut:
		return ErrSendTimeout
	case errors.Is(ts.parent.Err(), context.Canceled):
		return ErrClientGone
	default:
		return ErrStreamCanceled
	}
}

// Close marks the sender as closed
func (ts *TimeoutSender) Close() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.closed {
		return nil
	}

	ts.closed = true
	ts.cancel()

	return nil
}

// Stats returns streaming statistics
func (ts *TimeoutSender) Stats() (frames int64, bytesSent int64, duration time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.frames, ts.bytesSent, time.Since(ts.startTime)
}

func payloadSize(resp *wire.Response) int64 {
	var n int64
	for _, f := range resp.Frames {
		switch f := f.(type) {
		case wire.ThumbnailFrame:
			n += int64(len(f.Chunk))
		case wire.ContentFrame:
			n += int64(len(f.Chunk))
		}
	}
	return n
}
