package rpc

import (
	"context"

	"google.golang.org/grpc"

	"ffservice/internal/wire"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "video.VideoService"
	// TranscodeMethod is the full method name of the Transcode RPC.
	TranscodeMethod = "/video.VideoService/Transcode"
)

const (
	// DefaultMaxMessageSize matches the server's MAX_RECV_MSG_SIZE default so
	// a client dialed with defaults accepts any chunk size the server allows.
	DefaultMaxMessageSize = 8 * 1024 * 1024
	// MessageOverhead is the room a message needs beyond its chunk payload.
	MessageOverhead = 64 * 1024
)

// TranscodeServer is implemented by the service.
type TranscodeServer interface {
	Transcode(stream TranscodeStream) error
}

// TranscodeStream is the server side of one Transcode call.
type TranscodeStream interface {
	Context() context.Context
	Recv() (*wire.Request, error)
	Send(*wire.Response) error
}

type transcodeServerStream struct {
	grpc.ServerStream
}

func (s *transcodeServerStream) Recv() (*wire.Request, error) {
	m := new(wire.Request)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *transcodeServerStream) Send(m *wire.Response) error {
	return s.ServerStream.SendMsg(m)
}

func transcodeHandler(srv any, stream grpc.ServerStream) error {
	return srv.(TranscodeServer).Transcode(&transcodeServerStream{stream})
}

// ServiceDesc is the grpc.ServiceDesc for VideoService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranscodeServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Transcode",
			Handler:       transcodeHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "video.proto",
}

// RegisterTranscodeServer registers srv on s.
func RegisterTranscodeServer(s grpc.ServiceRegistrar, srv TranscodeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServerOptions installs the wire codec and message size limits.
func ServerOptions(maxMessageSize int) []grpc.ServerOption {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return []grpc.ServerOption{
		grpc.ForceServerCodec(wire.Codec{}),
		grpc.MaxRecvMsgSize(maxMessageSize),
		grpc.MaxSendMsgSize(maxMessageSize),
	}
}

// DialOptions installs the wire codec and message size limits on a client
// connection.
func DialOptions(maxMessageSize int) []grpc.DialOption {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.ForceCodec(wire.Codec{}),
			grpc.MaxCallRecvMsgSize(maxMessageSize),
			grpc.MaxCallSendMsgSize(maxMessageSize),
		),
	}
}

// TranscodeClientStream is the client side of one Transcode call.
type TranscodeClientStream interface {
	Send(*wire.Request) error
	Recv() (*wire.Response, error)
	CloseSend() error
	Context() context.Context
}

type transcodeClientStream struct {
	grpc.ClientStream
}

func (s *transcodeClientStream) Send(m *wire.Request) error {
	return s.ClientStream.SendMsg(m)
}

func (s *transcodeClientStream) Recv() (*wire.Response, error) {
	m := new(wire.Response)
	if err := s.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Client calls VideoService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Transcode opens a Transcode stream. The wire codec is always forced so a
// connection dialed without DialOptions still works.
func (c *Client) Transcode(ctx context.Context, opts ...grpc.CallOption) (TranscodeClientStream, error) {
	opts = append([]grpc.CallOption{grpc.ForceCodec(wire.Codec{})}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], TranscodeMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &transcodeClientStream{stream}, nil
}
