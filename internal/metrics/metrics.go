package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call result labels
const (
	ResultOK              = "ok"
	ResultInvalidArgument = "invalid_argument"
	ResultInternal        = "internal"
	ResultCanceled        = "canceled"
)

// RPC call metrics
var (
	CallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffservice_calls_total",
			Help: "Total number of Transcode calls by result",
		},
		[]string{"result"},
	)

	CallsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffservice_calls_in_flight",
			Help: "Number of Transcode calls currently being handled",
		},
	)

	CallPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ffservice_call_phase_duration_seconds",
			Help:    "Duration of each Transcode call phase in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"phase"}, // "ingest", "process", "emit", "total"
	)

	BytesReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffservice_bytes_received_total",
			Help: "Total number of source bytes received from clients",
		},
	)

	BytesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffservice_bytes_sent_total",
			Help: "Total number of payload bytes sent to clients by frame kind",
		},
		[]string{"kind"},
	)

	FramesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffservice_frames_sent_total",
			Help: "Total number of response frames sent by kind",
		},
		[]string{"kind"},
	)

	SendTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffservice_send_timeouts_total",
			Help: "Total number of response sends aborted by write or idle timeout",
		},
	)
)

// Staging metrics
var (
	StagingFilesOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffservice_staging_files_open",
			Help: "Number of staging and output files currently on disk",
		},
	)

	StagingBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffservice_staging_bytes_written_total",
			Help: "Total number of bytes written to staging files",
		},
	)

	StagingErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffservice_staging_errors_total",
			Help: "Total number of staging file errors by operation",
		},
		[]string{"operation"}, // "create", "write", "remove"
	)
)

// Media engine metrics
var (
	EngineOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffservice_engine_operations_total",
			Help: "Total number of media engine operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	EngineOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ffservice_engine_operation_duration_seconds",
			Help:    "Media engine operation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"operation"},
	)

	EngineWorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffservice_engine_workers_busy",
			Help: "Number of media engine slots currently held by calls",
		},
	)

	EngineQueueWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ffservice_engine_queue_wait_seconds",
			Help:    "Time a call waited for a media engine slot",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	TranscodeFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffservice_transcode_fallback_total",
			Help: "Total number of calls that echoed the source because transcoding was unavailable",
		},
	)

	EngineProcessesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffservice_engine_processes_active",
			Help: "Number of ffmpeg/ffprobe processes currently running",
		},
	)
)

// HTTP admin metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffservice_http_requests_total",
			Help: "Total number of admin HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ffservice_http_request_duration_seconds",
			Help:    "Admin HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffservice_http_requests_in_flight",
			Help: "Number of admin HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffservice_db_queries_total",
			Help: "Total number of call history queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ffservice_db_query_duration_seconds",
			Help:    "Call history query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	HistoryCalls = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ffservice_history_calls",
			Help: "Number of recorded calls in the history database by final state",
		},
		[]string{"state"},
	)

	HistoryBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ffservice_history_bytes",
			Help: "Total bytes recorded in the history database by direction",
		},
		[]string{"direction"}, // "in", "out"
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffservice_memory_usage_ratio",
			Help: "Heap allocation as a ratio of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ffservice_memory_paused",
			Help: "Whether new calls are held because memory usage is critical (1 = held)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ffservice_memory_gc_pauses_total",
			Help: "Number of times calls were held and a GC was forced due to memory pressure",
		},
	)

	MemoryWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ffservice_memory_wait_duration_seconds",
			Help:    "Time calls spent held by memory backpressure",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ffservice_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
