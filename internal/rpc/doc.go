// Package rpc describes the VideoService gRPC service: the bidirectional
// Transcode method, typed server and client streams, and the options that
// install the wire codec on both ends.
package rpc
