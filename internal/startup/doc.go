// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig],
// parsed with github.com/caarlos0/env:
//
//   - LISTEN_ADDR: gRPC listen address (default: :2001)
//   - METRICS_PORT: admin HTTP port serving health, history and metrics (default: 9090)
//   - METRICS_ENABLED: expose /metrics (default: true)
//   - STAGING_DIR: directory for staged uploads and outputs (default: os.TempDir)
//   - CHUNK_SIZE: maximum payload per response frame (default: 1048576)
//   - MAX_RECV_MSG_SIZE: gRPC message size limit (default: 8388608)
//   - TRANSCODING_ENABLED: run ffmpeg instead of echoing the source (default: false)
//   - FFMPEG_PATH, FFPROBE_PATH: engine binaries (default: ffmpeg, ffprobe)
//   - ENGINE_WORKERS: concurrent engine jobs, 0 for CPU based (default: 0)
//   - SEND_TIMEOUT, IDLE_TIMEOUT: response backpressure limits (default: 30s, 60s)
//   - DATABASE_DIR: enables the SQLite call history when set
//   - LOG_LEVEL, LOG_FORMAT, DEBUG: logging (see package logging)
//   - LOG_HEALTH_CHECKS: log health probes (default: false)
//   - GOMEMLIMIT, MEMORY_LIMIT, MEMORY_RATIO: see package memory
//
// [ParseConfig] performs the parsing and validation alone and is what tests
// use.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
// The Log* functions print the banner-style startup and shutdown sections:
// [LogMemoryConfig], [LogDatabaseInit], [LogEngineInit], [LogHTTPRoutes],
// [LogServerStarted], [LogShutdownInitiated] and [LogShutdownComplete].
package startup
