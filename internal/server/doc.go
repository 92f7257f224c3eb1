// Package server implements VideoService on top of the transcoding
// pipeline.
//
// Each Transcode call is given a uuid, recorded in the optional call
// history, and run through pipeline.Run with the gRPC stream as both the
// request source and the frame sink. Pipeline failures are mapped to gRPC
// status codes:
//
//	KindInvalidArgument -> codes.InvalidArgument
//	KindCanceled        -> codes.Canceled
//	KindInternal        -> codes.Internal
//
// The package also provides the stream interceptors installed on the
// server for logging, metrics and panic recovery.
package server
