package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"ffservice/internal/logging"
	"ffservice/internal/memory"
)

// minMessageOverhead is the room a gRPC message needs beyond its chunk.
const minMessageOverhead = 64 * 1024

// Config holds all application configuration
type Config struct {
	ListenAddr     string `env:"LISTEN_ADDR"     envDefault:":2001"`
	MetricsPort    string `env:"METRICS_PORT"    envDefault:"9090"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`

	StagingDir     string `env:"STAGING_DIR"`
	ChunkSize      int    `env:"CHUNK_SIZE"        envDefault:"1048576"`
	MaxRecvMsgSize int    `env:"MAX_RECV_MSG_SIZE" envDefault:"8388608"`

	TranscodingEnabled bool   `env:"TRANSCODING_ENABLED" envDefault:"false"`
	FFmpegPath         string `env:"FFMPEG_PATH"         envDefault:"ffmpeg"`
	FFprobePath        string `env:"FFPROBE_PATH"        envDefault:"ffprobe"`
	EngineWorkers      int    `env:"ENGINE_WORKERS"      envDefault:"0"`

	SendTimeout       time.Duration `env:"SEND_TIMEOUT"        envDefault:"30s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT"        envDefault:"60s"`
	MaxStreamDuration time.Duration `env:"MAX_STREAM_DURATION" envDefault:"0"`

	DatabaseDir string `env:"DATABASE_DIR"`

	LogHealthChecks bool `env:"LOG_HEALTH_CHECKS" envDefault:"false"`

	GoMemLimit  string  `env:"GOMEMLIMIT"`
	MemoryLimit int64   `env:"MEMORY_LIMIT"`
	MemoryRatio float64 `env:"MEMORY_RATIO"`

	// Derived
	DatabasePath   string
	HistoryEnabled bool
}

// MemorySettings returns the memory-related part of the configuration.
func (c *Config) MemorySettings() memory.Settings {
	return memory.Settings{
		GoMemLimit:     c.GoMemLimit,
		ContainerLimit: c.MemoryLimit,
		Ratio:          c.MemoryRatio,
	}
}

// ParseConfig reads the configuration from environ (as returned by
// os.Environ) and checks its values. It touches no directories.
func ParseConfig(environ []string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.StagingDir == "" {
		cfg.StagingDir = os.TempDir()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkSize > 0 && c.MaxRecvMsgSize < c.ChunkSize+minMessageOverhead {
		errs = append(errs, fmt.Errorf("MAX_RECV_MSG_SIZE (%d) must exceed CHUNK_SIZE (%d) by at least %d bytes",
			c.MaxRecvMsgSize, c.ChunkSize, minMessageOverhead))
	}
	if c.EngineWorkers < 0 {
		errs = append(errs, fmt.Errorf("ENGINE_WORKERS must not be negative, got %d", c.EngineWorkers))
	}
	if c.SendTimeout < 0 || c.IdleTimeout < 0 || c.MaxStreamDuration < 0 {
		errs = append(errs, errors.New("SEND_TIMEOUT, IDLE_TIMEOUT and MAX_STREAM_DURATION must not be negative"))
	}
	if c.MemoryRatio < 0 || c.MemoryRatio > 1 {
		errs = append(errs, fmt.Errorf("MEMORY_RATIO must be within 0.0-1.0, got %.2f", c.MemoryRatio))
	}
	return errors.Join(errs...)
}

// LoadConfig loads and validates configuration from environment variables
// and prepares the staging and database directories.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg, err := ParseConfig(os.Environ())
	if err != nil {
		return nil, err
	}

	logging.Info("  LISTEN_ADDR:         %s", cfg.ListenAddr)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  STAGING_DIR:         %s", cfg.StagingDir)
	logging.Info("  CHUNK_SIZE:          %d", cfg.ChunkSize)
	logging.Info("  MAX_RECV_MSG_SIZE:   %d", cfg.MaxRecvMsgSize)
	logging.Info("  TRANSCODING_ENABLED: %v", cfg.TranscodingEnabled)
	logging.Info("  FFMPEG_PATH:         %s", cfg.FFmpegPath)
	logging.Info("  FFPROBE_PATH:        %s", cfg.FFprobePath)
	logging.Info("  ENGINE_WORKERS:      %d", cfg.EngineWorkers)
	logging.Info("  SEND_TIMEOUT:        %s", cfg.SendTimeout)
	logging.Info("  IDLE_TIMEOUT:        %s", cfg.IdleTimeout)
	logging.Info("  MAX_STREAM_DURATION: %s", cfg.MaxStreamDuration)
	logging.Info("  DATABASE_DIR:        %s", valueOrUnset(cfg.DatabaseDir))
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := cfg.prepareDirectories(); err != nil {
		return nil, err
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Transcoding:  %s", enabledString(cfg.TranscodingEnabled))
	logging.Info("    Call history: %s", enabledString(cfg.HistoryEnabled))
	logging.Info("    Metrics:      %s", enabledString(cfg.MetricsEnabled))

	return cfg, nil
}

// prepareDirectories resolves and checks the staging directory (required)
// and the database directory (optional, enables call history).
func (c *Config) prepareDirectories() error {
	stagingDir, err := filepath.Abs(c.StagingDir)
	if err != nil {
		return fmt.Errorf("failed to resolve staging directory path: %w", err)
	}
	c.StagingDir = stagingDir
	logging.Info("  Staging directory (absolute): %s", stagingDir)

	if err := ensureDirectory(stagingDir, "staging"); err != nil {
		return fmt.Errorf("staging directory error: %w", err)
	}
	if err := testWriteAccess(stagingDir); err != nil {
		return fmt.Errorf("staging directory is not writable: %w", err)
	}
	logging.Info("  [OK] Staging directory is writable")

	if c.DatabaseDir == "" {
		logging.Info("  DATABASE_DIR not set, call history disabled")
		return nil
	}

	databaseDir, err := filepath.Abs(c.DatabaseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	c.DatabaseDir = databaseDir
	logging.Info("  Database directory (absolute): %s", databaseDir)

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(databaseDir); err != nil {
		return fmt.Errorf("database directory is not writable: %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	c.DatabasePath = filepath.Join(databaseDir, "ffservice.db")
	c.HistoryEnabled = true
	return nil
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
