// Package pipeline runs a single Transcode call through its three phases.
//
// A call moves Ingesting -> Processing -> Emitting -> Done, or to Failed from
// any phase. Ingestion drains the whole request stream into a staging file
// before the engine is touched; processing holds a [workers.Limiter] slot
// for the duration of engine work; emission streams metadata, thumbnail and
// content through a timeout-protected sender.
//
// Failures are returned as *[Error] with a [Kind] the transport maps to a
// status code. Staging and output files are removed on every path.
package pipeline
