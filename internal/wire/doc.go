/*
Package wire defines the frames exchanged by the Transcode RPC and their
protobuf wire encoding.

A request stream opens with a header frame (file extension plus target
dimensions) followed by payload-only chunk frames of at most ChunkSize bytes.
A response stream carries tagged frames: one MetadataFrame, then zero or more
ThumbnailFrames, then zero or more ContentFrames.

The Go types are tagged variants; the encoding follows the video.proto field
numbers, so any protobuf client of VideoService interoperates:

	message TranscodeRequest {
	  string extension = 1;
	  int32 target_width = 2;
	  int32 target_height = 3;
	  bytes request_chunk = 4;
	}

	message VideoMetadata {
	  int32 width = 1;
	  int32 height = 2;
	  int32 duration_seconds = 3;
	}

	message TranscodeResponse {
	  VideoMetadata metadata = 1;
	  bytes thumbnail = 2;
	  bytes transcoded_chunk = 3;
	}

Codec plugs the encoding into gRPC and delegates any other proto.Message to
the protobuf runtime.
*/
package wire
