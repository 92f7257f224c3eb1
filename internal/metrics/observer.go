package metrics

import (
	"errors"

	"ffservice/internal/engine"
	"ffservice/internal/staging"
)

// stagingObserver implements staging.Observer using the Prometheus
// metrics declared in this package.
type stagingObserver struct{}

// NewStagingObserver creates an observer that records staging file metrics.
func NewStagingObserver() staging.Observer {
	return &stagingObserver{}
}

func (o *stagingObserver) FileOpened() { StagingFilesOpen.Inc() }

func (o *stagingObserver) FileRemoved() { StagingFilesOpen.Dec() }

func (o *stagingObserver) BytesWritten(n int) {
	StagingBytesWritten.Add(float64(n))
	BytesReceivedTotal.Add(float64(n))
}

func (o *stagingObserver) Error(operation string) {
	StagingErrors.WithLabelValues(operation).Inc()
}

// engineObserver implements engine.Observer.
type engineObserver struct{}

// NewEngineObserver creates an observer that records media engine metrics.
func NewEngineObserver() engine.Observer {
	return &engineObserver{}
}

func (o *engineObserver) ObserveOperation(operation string, durationSeconds float64, err error) {
	EngineOperationDuration.WithLabelValues(operation).Observe(durationSeconds)
	EngineOperationsTotal.WithLabelValues(operation, engineStatus(err)).Inc()
}

func (o *engineObserver) ProcessStarted() { EngineProcessesActive.Inc() }

func (o *engineObserver) ProcessExited() { EngineProcessesActive.Dec() }

func engineStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, engine.ErrThumbnailUnavailable), errors.Is(err, engine.ErrTranscodeUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
