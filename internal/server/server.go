package server

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"ffservice/internal/database"
	"ffservice/internal/logging"
	"ffservice/internal/pipeline"
	"ffservice/internal/rpc"
)

// History records calls. *database.Database implements it.
type History interface {
	BeginCall(ctx context.Context, id, peer string, startedAt time.Time) error
	FinishCall(ctx context.Context, c *database.Call) error
}

// Server implements rpc.TranscodeServer on top of a pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	history  History
}

// New creates a Server. history may be nil.
func New(p *pipeline.Pipeline, history History) *Server {
	return &Server{pipeline: p, history: history}
}

var _ rpc.TranscodeServer = (*Server)(nil)

// Transcode handles one VideoService/Transcode call.
func (s *Server) Transcode(stream rpc.TranscodeStream) error {
	ctx := stream.Context()
	id := uuid.NewString()
	started := time.Now()

	addr := ""
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		addr = p.Addr.String()
	}

	s.begin(id, addr, started)

	sum, err := s.pipeline.Run(ctx, id, stream, stream)

	s.finish(sum, err)

	return toStatus(err)
}

func (s *Server) begin(id, addr string, started time.Time) {
	if s.history == nil {
		return
	}
	// The call context may already be canceled when the call ends, so
	// history writes use their own.
	if err := s.history.BeginCall(context.Background(), id, addr, started); err != nil {
		logging.Warn("Failed to record call %s: %v", id, err)
	}
}

func (s *Server) finish(sum *pipeline.Summary, err error) {
	if s.history == nil || sum == nil {
		return
	}
	c := &database.Call{
		ID:              sum.ID,
		Extension:       sum.Extension,
		TargetWidth:     int(sum.TargetWidth),
		TargetHeight:    int(sum.TargetHeight),
		State:           database.CallStateDone,
		BytesIn:         sum.BytesIn,
		BytesOut:        sum.BytesOut,
		Width:           int(sum.Metadata.Width),
		Height:          int(sum.Metadata.Height),
		DurationSeconds: sum.Metadata.DurationSeconds,
		Degraded:        sum.Degraded,
	}
	if err != nil {
		c.State = database.CallStateFailed
		c.ErrorKind = pipeline.KindOf(err).String()
		c.Error = err.Error()
	}
	if err := s.history.FinishCall(context.Background(), c); err != nil {
		logging.Warn("Failed to record outcome of call %s: %v", sum.ID, err)
	}
}

// toStatus maps a pipeline failure to a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && !errors.As(err, new(*pipeline.Error)) {
		return err
	}
	return status.Error(codeOf(pipeline.KindOf(err)), err.Error())
}

func codeOf(k pipeline.Kind) codes.Code {
	switch k {
	case pipeline.KindInvalidArgument:
		return codes.InvalidArgument
	case pipeline.KindCanceled:
		return codes.Canceled
	default:
		return codes.Internal
	}
}
