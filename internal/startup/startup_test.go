package startup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"ListenAddr", cfg.ListenAddr, ":2001"},
		{"MetricsPort", cfg.MetricsPort, "9090"},
		{"MetricsEnabled", cfg.MetricsEnabled, true},
		{"StagingDir", cfg.StagingDir, os.TempDir()},
		{"ChunkSize", cfg.ChunkSize, 1048576},
		{"MaxRecvMsgSize", cfg.MaxRecvMsgSize, 8388608},
		{"TranscodingEnabled", cfg.TranscodingEnabled, false},
		{"FFmpegPath", cfg.FFmpegPath, "ffmpeg"},
		{"FFprobePath", cfg.FFprobePath, "ffprobe"},
		{"EngineWorkers", cfg.EngineWorkers, 0},
		{"SendTimeout", cfg.SendTimeout, 30 * time.Second},
		{"IdleTimeout", cfg.IdleTimeout, 60 * time.Second},
		{"MaxStreamDuration", cfg.MaxStreamDuration, time.Duration(0)},
		{"DatabaseDir", cfg.DatabaseDir, ""},
		{"LogHealthChecks", cfg.LogHealthChecks, false},
		{"HistoryEnabled", cfg.HistoryEnabled, false},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: Expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestParseConfigFromEnvironment(t *testing.T) {
	environ := []string{
		"LISTEN_ADDR=127.0.0.1:5000",
		"METRICS_ENABLED=false",
		"CHUNK_SIZE=65536",
		"MAX_RECV_MSG_SIZE=262144",
		"TRANSCODING_ENABLED=true",
		"FFMPEG_PATH=/opt/ffmpeg/bin/ffmpeg",
		"ENGINE_WORKERS=3",
		"SEND_TIMEOUT=5s",
		"IDLE_TIMEOUT=2m",
		"MAX_STREAM_DURATION=1h",
		"MEMORY_LIMIT=536870912",
		"MEMORY_RATIO=0.6",
		"GOMEMLIMIT=400MiB",
	}

	cfg, err := ParseConfig(environ)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:5000" {
		t.Errorf("Expected ListenAddr 127.0.0.1:5000, got %s", cfg.ListenAddr)
	}
	if cfg.MetricsEnabled {
		t.Error("Expected MetricsEnabled=false")
	}
	if cfg.ChunkSize != 65536 || cfg.MaxRecvMsgSize != 262144 {
		t.Errorf("Expected sizes 65536/262144, got %d/%d", cfg.ChunkSize, cfg.MaxRecvMsgSize)
	}
	if !cfg.TranscodingEnabled {
		t.Error("Expected TranscodingEnabled=true")
	}
	if cfg.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("Expected custom ffmpeg path, got %s", cfg.FFmpegPath)
	}
	if cfg.EngineWorkers != 3 {
		t.Errorf("Expected 3 engine workers, got %d", cfg.EngineWorkers)
	}
	if cfg.SendTimeout != 5*time.Second || cfg.IdleTimeout != 2*time.Minute {
		t.Errorf("Expected timeouts 5s/2m, got %s/%s", cfg.SendTimeout, cfg.IdleTimeout)
	}
	if cfg.MaxStreamDuration != time.Hour {
		t.Errorf("Expected MaxStreamDuration 1h, got %s", cfg.MaxStreamDuration)
	}

	ms := cfg.MemorySettings()
	if ms.ContainerLimit != 536870912 || ms.Ratio != 0.6 || ms.GoMemLimit != "400MiB" {
		t.Errorf("Unexpected memory settings: %+v", ms)
	}
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		environ []string
		want    string
	}{
		{name: "unparsable chunk size", environ: []string{"CHUNK_SIZE=big"}, want: "failed to parse environment"},
		{name: "zero chunk size", environ: []string{"CHUNK_SIZE=0"}, want: "CHUNK_SIZE must be positive"},
		{name: "message too small", environ: []string{"CHUNK_SIZE=1048576", "MAX_RECV_MSG_SIZE=1048576"}, want: "MAX_RECV_MSG_SIZE"},
		{name: "negative workers", environ: []string{"ENGINE_WORKERS=-1"}, want: "ENGINE_WORKERS"},
		{name: "bad duration", environ: []string{"SEND_TIMEOUT=soon"}, want: "failed to parse environment"},
		{name: "negative stream duration", environ: []string{"MAX_STREAM_DURATION=-1s"}, want: "MAX_STREAM_DURATION"},
		{name: "ratio out of range", environ: []string{"MEMORY_RATIO=2"}, want: "MEMORY_RATIO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.environ)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestPrepareDirectories(t *testing.T) {
	root := t.TempDir()

	t.Run("staging only", func(t *testing.T) {
		cfg := &Config{StagingDir: filepath.Join(root, "staging")}
		if err := cfg.prepareDirectories(); err != nil {
			t.Fatalf("prepareDirectories failed: %v", err)
		}
		if info, err := os.Stat(cfg.StagingDir); err != nil || !info.IsDir() {
			t.Errorf("Expected staging directory to be created, got %v", err)
		}
		if cfg.HistoryEnabled {
			t.Error("Expected history to stay disabled without DATABASE_DIR")
		}
	})

	t.Run("with database", func(t *testing.T) {
		cfg := &Config{
			StagingDir:  filepath.Join(root, "staging2"),
			DatabaseDir: filepath.Join(root, "db"),
		}
		if err := cfg.prepareDirectories(); err != nil {
			t.Fatalf("prepareDirectories failed: %v", err)
		}
		if !cfg.HistoryEnabled {
			t.Error("Expected history to be enabled")
		}
		if cfg.DatabasePath != filepath.Join(root, "db", "ffservice.db") {
			t.Errorf("Unexpected database path %s", cfg.DatabasePath)
		}
	})

	t.Run("staging is a file", func(t *testing.T) {
		file := filepath.Join(root, "not-a-dir")
		if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg := &Config{StagingDir: file}
		if err := cfg.prepareDirectories(); err == nil {
			t.Error("Expected error when staging path is a file")
		}
	})
}

func TestEnabledString(t *testing.T) {
	if enabledString(true) != "ENABLED" {
		t.Errorf("Expected ENABLED, got %s", enabledString(true))
	}
	if enabledString(false) != "DISABLED" {
		t.Errorf("Expected DISABLED, got %s", enabledString(false))
	}
}

func TestGetRoutes(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", nil).Methods("GET", "HEAD")
	r.HandleFunc("/api/calls", nil).Methods("GET")
	r.PathPrefix("/metrics").Handler(nil)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("Expected 4 routes, got %d: %+v", len(routes), routes)
	}

	var wildcard bool
	for _, route := range routes {
		if route.Path == "/metrics" && route.Method == "*" {
			wildcard = true
		}
	}
	if !wildcard {
		t.Error("Expected route without methods to be reported as *")
	}
}

func TestCheckBinaryMissing(t *testing.T) {
	if err := checkBinary("definitely-not-a-real-binary-ffservice"); err == nil {
		t.Error("Expected error for missing binary")
	}
}

func TestLogEngineInitMissingBinaries(t *testing.T) {
	ok := LogEngineInit(EngineInfo{
		FFmpegPath:  "missing-ffmpeg-ffservice",
		FFprobePath: "missing-ffprobe-ffservice",
		Workers:     1,
	})
	if ok {
		t.Error("Expected LogEngineInit to report missing binaries")
	}
}
