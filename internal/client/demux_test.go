package client

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ffservice/internal/wire"
)

type sliceResponses struct {
	resps []*wire.Response
	end   error
}

func (s *sliceResponses) Recv() (*wire.Response, error) {
	if len(s.resps) == 0 {
		if s.end != nil {
			return nil, s.end
		}
		return nil, io.EOF
	}
	r := s.resps[0]
	s.resps = s.resps[1:]
	return r, nil
}

func responses(frames ...wire.ResponseFrame) *sliceResponses {
	s := &sliceResponses{}
	for _, f := range frames {
		s.resps = append(s.resps, wire.NewResponse(f))
	}
	return s
}

func TestDemux(t *testing.T) {
	md := wire.Metadata{Width: 1920, Height: 1080, DurationSeconds: 10}

	tests := []struct {
		name      string
		src       *sliceResponses
		wantMD    wire.Metadata
		wantThumb string
		wantBody  string
	}{
		{
			name: "canonical order",
			src: responses(
				wire.MetadataFrame{Metadata: md},
				wire.ThumbnailFrame{Chunk: []byte("th")},
				wire.ThumbnailFrame{Chunk: []byte("umb")},
				wire.ContentFrame{Chunk: []byte("con")},
				wire.ContentFrame{Chunk: []byte("tent")},
			),
			wantMD:    md,
			wantThumb: "thumb",
			wantBody:  "content",
		},
		{
			name: "interleaved",
			src: responses(
				wire.MetadataFrame{Metadata: md},
				wire.ContentFrame{Chunk: []byte("a")},
				wire.ThumbnailFrame{Chunk: []byte("x")},
				wire.ContentFrame{Chunk: []byte("b")},
				wire.ThumbnailFrame{Chunk: []byte("y")},
			),
			wantMD:    md,
			wantThumb: "xy",
			wantBody:  "ab",
		},
		{
			name: "last metadata wins",
			src: responses(
				wire.MetadataFrame{Metadata: md},
				wire.MetadataFrame{Metadata: wire.Metadata{Width: 1, Height: 2, DurationSeconds: 3}},
			),
			wantMD: wire.Metadata{Width: 1, Height: 2, DurationSeconds: 3},
		},
		{
			name:   "metadata only",
			src:    responses(wire.MetadataFrame{}),
			wantMD: wire.Metadata{},
		},
		{
			name: "packed message",
			src: &sliceResponses{resps: []*wire.Response{{Frames: []wire.ResponseFrame{
				wire.MetadataFrame{Metadata: md},
				wire.ThumbnailFrame{Chunk: []byte("t")},
			}}}},
			wantMD:    md,
			wantThumb: "t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMD, thumb, body, err := Demux(tt.src)
			if err != nil {
				t.Fatalf("Demux failed: %v", err)
			}
			if gotMD != tt.wantMD {
				t.Errorf("Expected metadata %s, got %s", tt.wantMD, gotMD)
			}
			if string(thumb) != tt.wantThumb {
				t.Errorf("Expected thumbnail %q, got %q", tt.wantThumb, thumb)
			}
			if string(body) != tt.wantBody {
				t.Errorf("Expected content %q, got %q", tt.wantBody, body)
			}
		})
	}
}

func TestDemuxIncomplete(t *testing.T) {
	tests := []struct {
		name string
		src  *sliceResponses
	}{
		{name: "empty stream", src: responses()},
		{name: "content without metadata", src: responses(
			wire.ThumbnailFrame{Chunk: []byte("t")},
			wire.ContentFrame{Chunk: []byte("c")},
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, thumb, body, err := Demux(tt.src)
			if !errors.Is(err, ErrIncompleteResponse) {
				t.Fatalf("Expected ErrIncompleteResponse, got %v", err)
			}
			if md != (wire.Metadata{}) || thumb != nil || body != nil {
				t.Error("Expected no data on failure")
			}
		})
	}
}

func TestDemuxStatusPassthrough(t *testing.T) {
	src := responses(wire.MetadataFrame{Metadata: wire.Metadata{Width: 1}})
	src.end = status.Error(codes.InvalidArgument, "no video stream")

	md, _, _, err := Demux(src)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("Expected InvalidArgument, got %v", err)
	}
	if md != (wire.Metadata{}) {
		t.Errorf("Expected no metadata on failure, got %s", md)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestDemuxWriteError(t *testing.T) {
	d := &Demuxer{Thumbnail: &bytes.Buffer{}, Content: failingWriter{}}
	_, err := d.Consume(responses(
		wire.MetadataFrame{},
		wire.ContentFrame{Chunk: []byte("x")},
	))
	if err == nil {
		t.Error("Expected write error, got nil")
	}
}

func TestDemuxOnFrame(t *testing.T) {
	counts := map[wire.Kind]int{}
	bytesByKind := map[wire.Kind]int{}
	d := &Demuxer{OnFrame: func(k wire.Kind, n int) {
		counts[k]++
		bytesByKind[k] += n
	}}
	_, err := d.Consume(responses(
		wire.MetadataFrame{},
		wire.ThumbnailFrame{Chunk: []byte("abc")},
		wire.ContentFrame{Chunk: []byte("de")},
		wire.ContentFrame{Chunk: []byte("f")},
	))
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if counts[wire.KindMetadata] != 1 || counts[wire.KindThumbnail] != 1 || counts[wire.KindContent] != 2 {
		t.Errorf("Unexpected frame counts: %v", counts)
	}
	if bytesByKind[wire.KindThumbnail] != 3 || bytesByKind[wire.KindContent] != 3 {
		t.Errorf("Unexpected byte counts: %v", bytesByKind)
	}
}

func wireMetadata(w, h int32) wire.Metadata {
	return wire.Metadata{Width: w, Height: h}
}
