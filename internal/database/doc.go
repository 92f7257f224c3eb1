// Package database keeps a SQLite history of Transcode calls.
//
// One row is inserted when a call starts and updated when it finishes with
// its final state, byte counts and the metadata sent to the client. The
// history backs the /api/calls admin endpoint and the history gauges
// exported by the metrics collector.
//
// The connection uses WAL mode and a busy timeout so concurrent calls can
// record without "database is locked" errors.
package database
