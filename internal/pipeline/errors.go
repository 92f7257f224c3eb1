package pipeline

import (
	"context"
	"errors"
	"fmt"

	"ffservice/internal/engine"
	"ffservice/internal/staging"
	"ffservice/internal/streaming"
)

// Kind classifies a call failure.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// Error is a classified call failure. Op names the step that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err. Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindInternal
}

// classify wraps err with the kind implied by the sentinel it carries.
// A done ctx always wins so that failures caused by cancellation are
// reported as such.
func classify(ctx context.Context, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	kind := KindInternal
	switch {
	case ctx.Err() != nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, streaming.ErrClientGone):
		kind = KindCanceled
	case errors.Is(err, staging.ErrMissingHeader),
		errors.Is(err, staging.ErrInvalidExtension),
		errors.Is(err, engine.ErrStreamNotFound),
		errors.Is(err, engine.ErrThumbnailUnavailable):
		kind = KindInvalidArgument
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
