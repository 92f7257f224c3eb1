// Package client implements the calling side of VideoService/Transcode.
//
// A request stream is one header frame (extension and target dimensions)
// followed by the source bytes in chunk frames. The end of the source is
// signaled only by closing the send side; no empty final chunk is sent.
//
// The response stream is demultiplexed into metadata, thumbnail and
// content. A stream that ends without any metadata frame fails with
// ErrIncompleteResponse, and a non-OK gRPC status is returned unchanged.
//
// TranscodeFile is the file-to-file helper used by cmd/ffclient.
package client
