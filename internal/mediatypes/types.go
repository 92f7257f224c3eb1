package mediatypes

import "strings"

// Container describes how a video container is written.
type Container struct {
	// Extension is lowercase without the leading dot.
	Extension string
	MimeType  string

	// VideoCodec and AudioCodec are ffmpeg encoder names.
	VideoCodec string
	AudioCodec string

	// VideoArgs are encoder options placed after the codec selection.
	VideoArgs []string
}

var (
	h264Args = []string{"-preset", "fast", "-crf", "23", "-pix_fmt", "yuv420p"}
	vp9Args  = []string{"-crf", "32", "-b:v", "0", "-row-mt", "1"}
)

// Containers maps extensions to their container settings.
var Containers = map[string]Container{
	"mp4":  {MimeType: "video/mp4", VideoCodec: "libx264", AudioCodec: "aac", VideoArgs: h264Args},
	"m4v":  {MimeType: "video/x-m4v", VideoCodec: "libx264", AudioCodec: "aac", VideoArgs: h264Args},
	"mov":  {MimeType: "video/quicktime", VideoCodec: "libx264", AudioCodec: "aac", VideoArgs: h264Args},
	"mkv":  {MimeType: "video/x-matroska", VideoCodec: "libx264", AudioCodec: "aac", VideoArgs: h264Args},
	"3gp":  {MimeType: "video/3gpp", VideoCodec: "libx264", AudioCodec: "aac", VideoArgs: h264Args},
	"ts":   {MimeType: "video/mp2t", VideoCodec: "libx264", AudioCodec: "aac", VideoArgs: h264Args},
	"flv":  {MimeType: "video/x-flv", VideoCodec: "libx264", AudioCodec: "aac", VideoArgs: h264Args},
	"webm": {MimeType: "video/webm", VideoCodec: "libvpx-vp9", AudioCodec: "libopus", VideoArgs: vp9Args},
	"avi":  {MimeType: "video/x-msvideo", VideoCodec: "mpeg4", AudioCodec: "libmp3lame", VideoArgs: []string{"-q:v", "4"}},
	"mpeg": {MimeType: "video/mpeg", VideoCodec: "mpeg2video", AudioCodec: "mp2", VideoArgs: []string{"-q:v", "4"}},
	"mpg":  {MimeType: "video/mpeg", VideoCodec: "mpeg2video", AudioCodec: "mp2", VideoArgs: []string{"-q:v", "4"}},
	"wmv":  {MimeType: "video/x-ms-wmv", VideoCodec: "wmv2", AudioCodec: "wmav2", VideoArgs: []string{"-q:v", "4"}},
}

// DefaultContainer is used for extensions missing from Containers. ffmpeg
// still picks the muxer from the output name.
var DefaultContainer = Container{
	MimeType:   "application/octet-stream",
	VideoCodec: "libx264",
	AudioCodec: "aac",
	VideoArgs:  h264Args,
}

// normalize lowercases ext and strips a leading dot.
func normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ContainerFor returns the settings for ext, which may carry a leading dot
// and any case. Unknown extensions get DefaultContainer.
func ContainerFor(ext string) Container {
	ext = normalize(ext)
	c, ok := Containers[ext]
	if !ok {
		c = DefaultContainer
	}
	c.Extension = ext
	return c
}

// IsVideo reports whether ext names a known video container.
func IsVideo(ext string) bool {
	_, ok := Containers[normalize(ext)]
	return ok
}

// GetMimeType returns the MIME type for ext.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	return ContainerFor(ext).MimeType
}
