package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"ffservice/internal/logging"
	"ffservice/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

const healthTimeout = 2 * time.Second

// EngineHealth summarizes the media engine.
type EngineHealth struct {
	Available          bool `json:"available"`
	TranscodingEnabled bool `json:"transcodingEnabled"`
	ActiveProcesses    int  `json:"activeProcesses"`
	Workers            int  `json:"workers"`
	WorkersBusy        int  `json:"workersBusy"`
}

// MemoryHealth summarizes heap usage.
type MemoryHealth struct {
	CurrentBytes int64   `json:"currentBytes"`
	LimitBytes   int64   `json:"limitBytes"`
	Usage        float64 `json:"usage"`
	Paused       bool    `json:"paused"`
}

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Error   string `json:"error,omitempty"`

	Engine EngineHealth  `json:"engine"`
	Memory *MemoryHealth `json:"memory,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// History summary
	TotalCalls  int `json:"totalCalls,omitempty"`
	FailedCalls int `json:"failedCalls,omitempty"`
}

// HealthCheck returns the health status of the service. The service is
// degraded when the engine binaries are missing or the history store is
// unreachable; it still answers 200 because degraded calls can complete.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ready := h.IsReady()
	response := HealthResponse{
		Ready:        ready,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
	}

	if h.engine != nil {
		response.Engine.Available = h.engine.Available()
		response.Engine.TranscodingEnabled = h.engine.TranscodingEnabled()
		response.Engine.ActiveProcesses = h.engine.ActiveProcesses()
		if !response.Engine.Available && ready {
			response.Status = statusDegraded
			response.Error = "media engine binaries not found"
		}
	}
	if h.workers != nil {
		response.Engine.Workers = h.workers.Size()
		response.Engine.WorkersBusy = h.workers.Busy()
	}

	if h.memory != nil {
		current, limit, usage := h.memory.GetStats()
		response.Memory = &MemoryHealth{
			CurrentBytes: current,
			LimitBytes:   limit,
			Usage:        usage,
			Paused:       h.memory.IsPaused(),
		}
	}

	if h.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		stats, err := h.history.Stats(ctx)
		if err != nil {
			logging.Warn("health check: history unavailable: %v", err)
			if ready {
				response.Status = statusDegraded
				response.Error = "call history unavailable"
			}
		} else {
			response.TotalCalls = stats.TotalCalls
			response.FailedCalls = stats.FailedCalls
		}
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if not ready at all
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept calls
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.IsReady() {
		writeJSONStatus(w, http.StatusOK, "ready")
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, "not_ready")
}
