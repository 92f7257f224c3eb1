package wire

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

// Field numbers of the video.proto messages. Keeping them stable keeps the
// service wire-compatible with any protobuf client of VideoService.
const (
	reqExtension    protowire.Number = 1
	reqTargetWidth  protowire.Number = 2
	reqTargetHeight protowire.Number = 3
	reqChunk        protowire.Number = 4

	respMetadata  protowire.Number = 1
	respThumbnail protowire.Number = 2
	respContent   protowire.Number = 3

	metaWidth    protowire.Number = 1
	metaHeight   protowire.Number = 2
	metaDuration protowire.Number = 3
)

// ErrDuplicateKind is returned when a response message would carry the same
// payload kind twice.
var ErrDuplicateKind = errors.New("wire: response carries the same frame kind twice")

// MarshalRequest encodes a request frame.
func MarshalRequest(r *Request) []byte {
	var b []byte
	if h := r.Header; h != nil {
		if h.Extension != "" {
			b = protowire.AppendTag(b, reqExtension, protowire.BytesType)
			b = protowire.AppendString(b, h.Extension)
		}
		if h.TargetWidth != 0 {
			b = protowire.AppendTag(b, reqTargetWidth, protowire.VarintType)
			b = protowire.AppendVarint(b, uint64(clampInt32(int64(h.TargetWidth))))
		}
		if h.TargetHeight != 0 {
			b = protowire.AppendTag(b, reqTargetHeight, protowire.VarintType)
			b = protowire.AppendVarint(b, uint64(clampInt32(int64(h.TargetHeight))))
		}
	}
	if len(r.Chunk) > 0 {
		b = protowire.AppendTag(b, reqChunk, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Chunk)
	}
	return b
}

// UnmarshalRequest decodes a request frame. Non-positive dimensions are
// treated as absent. The chunk is copied out of data.
func UnmarshalRequest(data []byte, r *Request) error {
	*r = Request{}
	var h Header
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("wire: request tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == reqExtension && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return fmt.Errorf("wire: request extension: %w", protowire.ParseError(m))
			}
			h.Extension = v
			n = m
		case (num == reqTargetWidth || num == reqTargetHeight) && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(data)
			if m < 0 {
				return fmt.Errorf("wire: request dimension: %w", protowire.ParseError(m))
			}
			dim := uint32(0)
			if d := int32(v); d > 0 {
				dim = uint32(d)
			}
			if num == reqTargetWidth {
				h.TargetWidth = dim
			} else {
				h.TargetHeight = dim
			}
			n = m
		case num == reqChunk && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return fmt.Errorf("wire: request chunk: %w", protowire.ParseError(m))
			}
			r.Chunk = bytes.Clone(v)
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("wire: request field %d: %w", num, protowire.ParseError(n))
			}
		}
		data = data[n:]
	}
	if !h.IsZero() {
		r.Header = &h
	}
	return nil
}

// MarshalResponse encodes a response message.
func MarshalResponse(r *Response) ([]byte, error) {
	var b []byte
	var seen [KindContent + 1]bool
	for _, f := range r.Frames {
		k := f.Kind()
		if seen[k] {
			return nil, ErrDuplicateKind
		}
		seen[k] = true

		switch f := f.(type) {
		case MetadataFrame:
			b = protowire.AppendTag(b, respMetadata, protowire.BytesType)
			b = protowire.AppendBytes(b, marshalMetadata(f.Metadata))
		case ThumbnailFrame:
			b = protowire.AppendTag(b, respThumbnail, protowire.BytesType)
			b = protowire.AppendBytes(b, f.Chunk)
		case ContentFrame:
			b = protowire.AppendTag(b, respContent, protowire.BytesType)
			b = protowire.AppendBytes(b, f.Chunk)
		}
	}
	return b, nil
}

// UnmarshalResponse decodes a response message. Empty thumbnail and content
// fields produce no frame; an empty metadata message still produces one.
func UnmarshalResponse(data []byte, r *Response) error {
	*r = Response{}
	var (
		meta      *Metadata
		thumbnail []byte
		content   []byte
	)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("wire: response tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		if typ != protowire.BytesType || num < respMetadata || num > respContent {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("wire: response field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}

		v, m := protowire.ConsumeBytes(data)
		if m < 0 {
			return fmt.Errorf("wire: response field %d: %w", num, protowire.ParseError(m))
		}
		data = data[m:]

		switch num {
		case respMetadata:
			md, err := unmarshalMetadata(v)
			if err != nil {
				return err
			}
			meta = &md
		case respThumbnail:
			thumbnail = bytes.Clone(v)
		case respContent:
			content = bytes.Clone(v)
		}
	}

	if meta != nil {
		r.Frames = append(r.Frames, MetadataFrame{Metadata: *meta})
	}
	if len(thumbnail) > 0 {
		r.Frames = append(r.Frames, ThumbnailFrame{Chunk: thumbnail})
	}
	if len(content) > 0 {
		r.Frames = append(r.Frames, ContentFrame{Chunk: content})
	}
	return nil
}

func marshalMetadata(m Metadata) []byte {
	var b []byte
	if m.Width != 0 {
		b = protowire.AppendTag(b, metaWidth, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Width)))
	}
	if m.Height != 0 {
		b = protowire.AppendTag(b, metaHeight, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Height)))
	}
	// duration_seconds is int32 on the wire.
	if d := clampInt32(m.DurationSeconds); d != 0 {
		b = protowire.AppendTag(b, metaDuration, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(d)))
	}
	return b
}

func unmarshalMetadata(data []byte) (Metadata, error) {
	var m Metadata
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return m, fmt.Errorf("wire: metadata tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return m, fmt.Errorf("wire: metadata field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}
		v, m2 := protowire.ConsumeVarint(data)
		if m2 < 0 {
			return m, fmt.Errorf("wire: metadata field %d: %w", num, protowire.ParseError(m2))
		}
		data = data[m2:]
		switch num {
		case metaWidth:
			m.Width = int32(v)
		case metaHeight:
			m.Height = int32(v)
		case metaDuration:
			m.DurationSeconds = int64(int32(v))
		}
	}
	return m, nil
}

func clampInt32(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	default:
		return int32(v)
	}
}

// Codec is a gRPC codec for the VideoService messages. Any other
// proto.Message (the health service, reflection) is delegated to the
// protobuf runtime, so the codec can be forced for a whole server.
type Codec struct{}

// Name returns "proto" so peers see the standard application/grpc+proto
// content type.
func (Codec) Name() string { return "proto" }

// Marshal implements encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *Request:
		return MarshalRequest(m), nil
	case *Response:
		return MarshalResponse(m)
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("wire: cannot marshal %T", v)
	}
}

// Unmarshal implements encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *Request:
		return UnmarshalRequest(data, m)
	case *Response:
		return UnmarshalResponse(data, m)
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("wire: cannot unmarshal into %T", v)
	}
}
