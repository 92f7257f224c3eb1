package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"ffservice/internal/engine/enginetest"
	"ffservice/internal/handlers"
	"ffservice/internal/pipeline"
	"ffservice/internal/rpc"
	"ffservice/internal/startup"
	"ffservice/internal/workers"
)

func TestSetupRouter(t *testing.T) {
	h := handlers.New(handlers.Options{})
	h.SetReady(true)

	tests := []struct {
		name           string
		metricsEnabled bool
		method         string
		path           string
		wantCode       int
	}{
		{"health", true, http.MethodGet, "/health", http.StatusOK},
		{"healthz", true, http.MethodGet, "/healthz", http.StatusOK},
		{"livez head", true, http.MethodHead, "/livez", http.StatusOK},
		{"readyz", true, http.MethodGet, "/readyz", http.StatusOK},
		{"version", true, http.MethodGet, "/version", http.StatusOK},
		{"calls without history", true, http.MethodGet, "/api/calls", http.StatusServiceUnavailable},
		{"calls wrong method", true, http.MethodPost, "/api/calls", http.StatusMethodNotAllowed},
		{"metrics enabled", true, http.MethodGet, "/metrics", http.StatusOK},
		{"metrics disabled", false, http.MethodGet, "/metrics", http.StatusNotFound},
		{"unknown path", true, http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := wrapAdmin(setupRouter(h, tt.metricsEnabled), false)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantCode {
				t.Errorf("Expected status code %d, got %d", tt.wantCode, w.Code)
			}
		})
	}
}

func TestSetupRouterRoutes(t *testing.T) {
	routes, err := startup.GetRoutes(setupRouter(handlers.New(handlers.Options{}), true))
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}

	want := map[string]bool{"/health": false, "/healthz": false, "/livez": false, "/readyz": false, "/version": false, "/api/calls": false, "/metrics": false}
	for _, r := range routes {
		if _, ok := want[r.Path]; ok {
			want[r.Path] = true
		}
	}
	for path, found := range want {
		if !found {
			t.Errorf("Expected route %s to be registered", path)
		}
	}
}

func TestNewGRPCServerHealth(t *testing.T) {
	p := pipeline.New(pipeline.Config{
		Engine:     &enginetest.Stub{},
		Limiter:    workers.NewLimiter(1),
		StagingDir: t.TempDir(),
	})
	gs, hs := newGRPCServer(&startup.Config{}, p, nil)

	lis := bufconn.Listen(1 << 20)
	go func() {
		_ = gs.Serve(lis)
	}()
	defer gs.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("Health check for %q failed: %v", service, err)
		}
		return resp.GetStatus()
	}

	if got := check(rpc.ServiceName); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("Expected %s SERVING, got %v", rpc.ServiceName, got)
	}

	hs.Shutdown()
	if got := check(rpc.ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("Expected NOT_SERVING after shutdown, got %v", got)
	}
}
