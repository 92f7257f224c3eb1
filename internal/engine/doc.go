// Package engine is the media capability boundary of the service.
//
// The [Engine] interface exposes the four operations a call needs: select
// the video stream of a staged file, extract a scaled thumbnail, compute the
// duration and transcode. [FFmpeg] implements it with ffprobe and ffmpeg
// processes, tracking each one so [FFmpeg.Cleanup] can kill them at
// shutdown.
//
// Thumbnail position is 10% into the stream ([SeekTarget]); duration is
// floor(duration * timeBase) ([DurationSeconds]).
package engine
