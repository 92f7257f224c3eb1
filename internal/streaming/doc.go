/*
Package streaming emits the response side of a Transcode call.

# Emitter

[Emitter.Emit] produces, in order, exactly one metadata frame, the thumbnail
raster split into chunks, and the output file read in chunks until end of
file. Receivers must not assume the thumbnail arrives in a single frame.

# Backpressure

gRPC flow control blocks Send while the client is not reading. A
[TimeoutSender] bounds each send and the idle time between sends so a stalled
client releases its call instead of pinning the output file forever:

	ts := streaming.NewTimeoutSender(ctx, stream, streaming.DefaultSenderConfig())
	defer ts.Close()

	e := &streaming.Emitter{ChunkSize: wire.ChunkSize}
	stats, err := e.Emit(ctx, ts, md, thumbnail, output)

Errors:
  - [ErrSendTimeout]: a send or the idle period exceeded its limit
  - [ErrClientGone]: the call context was canceled
  - [ErrStreamCanceled]: the sender was closed
  - [ErrRead]: reading the output file failed
*/
package streaming
