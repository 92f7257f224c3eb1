// Package main provides the entry point for the ffservice server.
//
// ffservice is a gRPC video transcoding service. A client streams a video
// file to VideoService/Transcode as a header frame followed by chunk frames;
// the server stages it on disk, probes the best video stream, extracts an
// RGB24 thumbnail, optionally re-encodes the file with ffmpeg, and streams
// back one metadata frame, the thumbnail frames and the content frames.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables and validates directories
//  2. Memory Configuration: Sets GOMEMLIMIT from GOMEMLIMIT or MEMORY_LIMIT
//  3. Call History: Opens the SQLite database when DATABASE_DIR is set and
//     marks calls left running by a previous process as failed
//  4. Component Initialization:
//     - Media engine: ffprobe/ffmpeg process adapter with a process registry
//     - Worker limiter: bounds concurrent engine work
//     - Memory monitor: holds new engine work while the heap is critical
//     - Metrics collector: exports call history totals
//  5. Servers: gRPC on LISTEN_ADDR (VideoService and grpc.health.v1) and the
//     admin HTTP server on METRICS_PORT
//  6. Graceful Shutdown: SIGINT/SIGTERM drain calls and stop every component
//
// # Admin HTTP Server
//
//   - /health, /healthz: JSON health summary
//   - /livez, /readyz: liveness and readiness probes
//   - /version: build information
//   - /api/calls?limit=N: recent calls, newest first
//   - /metrics: Prometheus metrics (when METRICS_ENABLED)
//
// # Environment Variables
//
//   - LISTEN_ADDR: gRPC listen address (default: :2001)
//   - METRICS_PORT: admin HTTP port (default: 9090)
//   - METRICS_ENABLED: expose /metrics (default: true)
//   - STAGING_DIR: directory for staged uploads and outputs (default: os temp dir)
//   - CHUNK_SIZE: response chunk size in bytes (default: 1048576)
//   - MAX_RECV_MSG_SIZE: gRPC message size limit (default: 8 MiB)
//   - TRANSCODING_ENABLED: re-encode instead of echoing the source (default: false)
//   - FFMPEG_PATH, FFPROBE_PATH: engine binaries
//   - ENGINE_WORKERS: concurrent engine calls (default: 0, CPU based)
//   - SEND_TIMEOUT, IDLE_TIMEOUT: response stream backpressure limits
//   - DATABASE_DIR: enables call history
//   - LOG_LEVEL, LOG_FORMAT, LOG_HEALTH_CHECKS: logging
//   - GOMEMLIMIT, MEMORY_LIMIT, MEMORY_RATIO: soft memory limit
//
// # Graceful Shutdown
//
//  1. Mark the service not ready (HTTP and gRPC health)
//  2. GracefulStop the gRPC server (30s, then Stop)
//  3. Stop the metrics collector
//  4. Kill remaining ffmpeg/ffprobe processes
//  5. Stop the memory monitor
//  6. Shut down the admin HTTP server
//  7. Close the database
//
// # Related Packages
//
//   - [ffservice/internal/pipeline]: per-call state machine
//   - [ffservice/internal/engine]: ffprobe/ffmpeg adapter
//   - [ffservice/internal/server]: gRPC service and interceptors
//   - [ffservice/internal/client]: client stream builder and demultiplexer
//   - [ffservice/cmd/ffclient]: command line client
package main
