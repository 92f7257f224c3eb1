// Command ffclient sends a video file to an ffservice server and writes the
// transcoded content and thumbnail to disk.
//
// Usage:
//
//	ffclient [-addr host:port] [-w width -h height] <input> <output>
//
// The input extension (for example "mp4") is sent as the container hint.
// On success the content is written to <output>, the raw RGB24 thumbnail to
// <output>.rgb and, when the raster has the expected size, a JPEG preview to
// <output>.jpg. A failed call leaves no output file behind.
//
// Flags:
//
//	-addr     server address (default localhost:2001)
//	-w, -h    target dimensions; both or neither
//	-chunk    upload chunk size in bytes (default 1 MiB)
//	-timeout  overall call timeout (default 30m)
//
// Progress is drawn on stderr only when stderr is a terminal. The exit code
// is 0 on success, 1 when the call fails and 2 on usage errors.
package main
