package server

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ffservice/internal/logging"
	"ffservice/internal/metrics"
)

// StreamInterceptors returns the interceptor chain installed on the gRPC
// server: recovery innermost, then metrics, then logging.
func StreamInterceptors(logHealthChecks bool) []grpc.StreamServerInterceptor {
	return []grpc.StreamServerInterceptor{
		LoggingInterceptor(logHealthChecks),
		MetricsInterceptor(),
		RecoveryInterceptor(),
	}
}

// LoggingInterceptor logs every stream with its final status code.
func LoggingInterceptor(logHealthChecks bool) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)

		if !logHealthChecks && isHealthMethod(info.FullMethod) && err == nil {
			return nil
		}

		code := status.Code(err)
		duration := time.Since(start)
		switch code {
		case codes.OK:
			logging.Debug("%s %s (%v)", info.FullMethod, code, duration)
		case codes.Internal, codes.Unknown:
			logging.Error("%s %s (%v): %v", info.FullMethod, code, duration, err)
		default:
			logging.Info("%s %s (%v): %v", info.FullMethod, code, duration, err)
		}
		return err
	}
}

// MetricsInterceptor tracks in-flight and completed calls of streaming
// methods other than the health service.
func MetricsInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if isHealthMethod(info.FullMethod) {
			return handler(srv, ss)
		}

		metrics.CallsInFlight.Inc()
		defer metrics.CallsInFlight.Dec()

		err := handler(srv, ss)
		metrics.CallsTotal.WithLabelValues(resultLabel(status.Code(err))).Inc()
		return err
	}
}

// RecoveryInterceptor turns a handler panic into codes.Internal.
func RecoveryInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("panic in %s: %v\n%s", info.FullMethod, r, debug.Stack())
				err = status.Error(codes.Internal, fmt.Sprintf("internal error: %v", r))
			}
		}()
		return handler(srv, ss)
	}
}

func resultLabel(c codes.Code) string {
	switch c {
	case codes.OK:
		return metrics.ResultOK
	case codes.InvalidArgument:
		return metrics.ResultInvalidArgument
	case codes.Canceled, codes.DeadlineExceeded:
		return metrics.ResultCanceled
	default:
		return metrics.ResultInternal
	}
}

func isHealthMethod(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.Health/")
}
