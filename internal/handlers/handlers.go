package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"ffservice/internal/database"
	"ffservice/internal/metrics"
)

// HistoryReader is the read side of the call history.
type HistoryReader interface {
	RecentCalls(ctx context.Context, limit int) ([]database.Call, error)
	Stats(ctx context.Context) (metrics.Stats, error)
}

// EngineStatus reports the state of the media engine.
type EngineStatus interface {
	Available() bool
	TranscodingEnabled() bool
	ActiveProcesses() int
}

// WorkerStatus reports how many engine slots are in use.
type WorkerStatus interface {
	Size() int
	Busy() int
}

// MemoryStatus reports heap usage against the configured limit.
type MemoryStatus interface {
	IsPaused() bool
	GetStats() (current, limit int64, usage float64)
}

// Options wires the components the admin handlers report on. History and
// Memory may be nil when those features are disabled.
type Options struct {
	History HistoryReader
	Engine  EngineStatus
	Workers WorkerStatus
	Memory  MemoryStatus
}

type Handlers struct {
	history   HistoryReader
	engine    EngineStatus
	workers   WorkerStatus
	memory    MemoryStatus
	startTime time.Time
	ready     atomic.Bool
}

func New(opts Options) *Handlers {
	return &Handlers{
		history:   opts.History,
		engine:    opts.Engine,
		workers:   opts.Workers,
		memory:    opts.Memory,
		startTime: time.Now(),
	}
}

// SetReady marks the service as accepting calls. It is cleared again when
// shutdown begins so load balancers drain the instance.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is accepting calls.
func (h *Handlers) IsReady() bool {
	return h.ready.Load()
}
