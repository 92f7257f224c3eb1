// Package middleware provides HTTP middleware for the admin server.
//
// It includes:
//   - Structured request logging with optional health check filtering
//   - Prometheus request metrics labeled by gorilla/mux route template
//   - gzip compression of JSON responses such as the call history
package middleware
