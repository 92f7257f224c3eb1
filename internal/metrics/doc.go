// Package metrics provides Prometheus instrumentation for the transcoding
// service.
//
// All metrics are prefixed with "ffservice_" and registered with the default
// registry through promauto.
//
// # Metric Categories
//
// ## Call Metrics
//
//   - CallsTotal: Counter of Transcode calls by result
//   - CallsInFlight: Gauge of calls being handled
//   - CallPhaseDuration: Histogram of ingest/process/emit/total durations
//   - BytesReceivedTotal, BytesSentTotal, FramesSentTotal
//   - SendTimeoutsTotal: Counter of sends aborted by a timeout
//
// ## Staging Metrics
//
//   - StagingFilesOpen, StagingBytesWritten, StagingErrors
//
// ## Engine Metrics
//
//   - EngineOperationsTotal, EngineOperationDuration
//   - EngineWorkersBusy, EngineQueueWait, EngineProcessesActive
//   - TranscodeFallbackTotal: Counter of calls that echoed the staged source
//
// ## HTTP and Database Metrics
//
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//   - DBQueryTotal, DBQueryDuration
//   - HistoryCalls, HistoryBytes: refreshed by the [Collector]
//
// # Observers
//
// [NewStagingObserver] and [NewEngineObserver] adapt the staging and engine
// packages to these metrics without those packages importing Prometheus.
//
// # Usage
//
//	mux.Handle("/metrics", promhttp.Handler())
//
//	collector := metrics.NewCollector(db, time.Minute)
//	collector.Start()
//	defer collector.Stop()
package metrics
