package metrics

// Phases, frame kinds and engine operations used as label values.
var (
	Phases           = []string{"ingest", "process", "emit", "total"}
	FrameKinds       = []string{"metadata", "thumbnail", "content"}
	EngineOperations = []string{"probe", "thumbnail", "transcode"}
	CallStates       = []string{"done", "failed"}
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, r := range []string{ResultOK, ResultInvalidArgument, ResultInternal, ResultCanceled} {
		CallsTotal.WithLabelValues(r)
	}

	for _, p := range Phases {
		CallPhaseDuration.WithLabelValues(p)
	}

	for _, k := range FrameKinds {
		FramesSentTotal.WithLabelValues(k)
		BytesSentTotal.WithLabelValues(k)
	}

	for _, op := range []string{"create", "write", "remove"} {
		StagingErrors.WithLabelValues(op)
	}

	for _, op := range EngineOperations {
		EngineOperationDuration.WithLabelValues(op)
		for _, status := range []string{"success", "error", "unavailable"} {
			EngineOperationsTotal.WithLabelValues(op, status)
		}
	}

	for _, s := range CallStates {
		HistoryCalls.WithLabelValues(s)
	}
	HistoryBytes.WithLabelValues("in")
	HistoryBytes.WithLabelValues("out")

	for _, op := range []string{"initialize_schema", "begin_call", "finish_call", "recent_calls", "stats", "mark_interrupted"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
