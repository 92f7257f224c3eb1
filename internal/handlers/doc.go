// Package handlers provides HTTP request handlers for the admin server.
//
// It includes handlers for:
//   - Health, liveness and readiness probes
//   - Version and build information
//   - Recent call history from the SQLite store
//   - Prometheus metrics
package handlers
