// Package mediatypes describes the video containers the service writes.
//
// It is a dependency-free foundation shared by the engine and the call
// pipeline. For each known extension it records the MIME type and the
// ffmpeg encoders that suit the container:
//
//	c := mediatypes.ContainerFor(".webm")
//	// c.VideoCodec == "libvpx-vp9", c.AudioCodec == "libopus"
//
// Unknown extensions fall back to DefaultContainer (H.264 and AAC), so a
// client may send any extension as its container hint.
package mediatypes
