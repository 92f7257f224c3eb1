package wire

import "fmt"

// ChunkSize bounds the payload carried by a single chunk frame.
const ChunkSize = 1024 * 1024

// Header is the one-time control record that opens a request stream.
type Header struct {
	Extension    string
	TargetWidth  uint32
	TargetHeight uint32
}

// IsZero reports whether the header carries no information at all.
func (h Header) IsZero() bool {
	return h.Extension == "" && h.TargetWidth == 0 && h.TargetHeight == 0
}

// HasDimensions reports whether both target dimensions are positive.
func (h Header) HasDimensions() bool {
	return h.TargetWidth > 0 && h.TargetHeight > 0
}

// Request is one message of the request stream. Header is nil when the
// message carries only payload; Chunk may be empty.
type Request struct {
	Header *Header
	Chunk  []byte
}

// HeaderFrame builds the opening frame of a request stream.
func HeaderFrame(extension string, width, height uint32) *Request {
	return &Request{Header: &Header{Extension: extension, TargetWidth: width, TargetHeight: height}}
}

// ChunkFrame builds a payload-only request frame.
func ChunkFrame(chunk []byte) *Request {
	return &Request{Chunk: chunk}
}

// Metadata describes the selected video stream of a staged file.
type Metadata struct {
	Width           int32
	Height          int32
	DurationSeconds int64
}

func (m Metadata) String() string {
	return fmt.Sprintf("%dx%d %ds", m.Width, m.Height, m.DurationSeconds)
}

// Kind identifies which payload a ResponseFrame carries.
type Kind int

const (
	KindMetadata Kind = iota + 1
	KindThumbnail
	KindContent
)

func (k Kind) String() string {
	switch k {
	case KindMetadata:
		return "metadata"
	case KindThumbnail:
		return "thumbnail"
	case KindContent:
		return "content"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ResponseFrame is one of MetadataFrame, ThumbnailFrame or ContentFrame.
// The interface is sealed; no other implementations exist.
type ResponseFrame interface {
	Kind() Kind
	isResponseFrame()
}

// MetadataFrame carries the stream metadata. Exactly one is emitted per
// successful call, before any thumbnail or content frame.
type MetadataFrame struct {
	Metadata Metadata
}

// ThumbnailFrame carries a slice of the RGB24 thumbnail raster.
type ThumbnailFrame struct {
	Chunk []byte
}

// ContentFrame carries a slice of the output file.
type ContentFrame struct {
	Chunk []byte
}

func (MetadataFrame) Kind() Kind  { return KindMetadata }
func (ThumbnailFrame) Kind() Kind { return KindThumbnail }
func (ContentFrame) Kind() Kind   { return KindContent }

func (MetadataFrame) isResponseFrame()  {}
func (ThumbnailFrame) isResponseFrame() {}
func (ContentFrame) isResponseFrame()   {}

// Response is one message of the response stream. Messages built by this
// package hold a single frame. Messages decoded from peers that pack several
// fields into one message hold them in the order metadata, thumbnail, content.
type Response struct {
	Frames []ResponseFrame
}

// NewResponse wraps a single frame into a response message.
func NewResponse(f ResponseFrame) *Response {
	return &Response{Frames: []ResponseFrame{f}}
}
