package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"ffservice/internal/database"
	"ffservice/internal/engine"
	"ffservice/internal/handlers"
	"ffservice/internal/logging"
	"ffservice/internal/memory"
	"ffservice/internal/metrics"
	"ffservice/internal/middleware"
	"ffservice/internal/pipeline"
	"ffservice/internal/rpc"
	"ffservice/internal/server"
	"ffservice/internal/startup"
	"ffservice/internal/streaming"
	"ffservice/internal/workers"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = time.Minute
)

// app holds the long-lived components so shutdown can stop them in order.
type app struct {
	config    *startup.Config
	db        *database.Database
	engine    *engine.FFmpeg
	monitor   *memory.Monitor
	collector *metrics.Collector
	handlers  *handlers.Handlers
	health    *health.Server
	grpc      *grpc.Server
	admin     *http.Server
}

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	defer logging.Sync()

	startup.LogMemoryConfig(memory.Configure(config.MemorySettings()))

	a := &app{config: config}

	// Initialize call history
	if config.HistoryEnabled {
		dbStart := time.Now()
		a.db, err = database.New(context.Background(), config.DatabasePath)
		if err != nil {
			startup.LogFatal("Failed to initialize database: %v", err)
		}
		interrupted, err := a.db.MarkInterrupted(context.Background())
		if err != nil {
			logging.Warn("Failed to mark interrupted calls: %v", err)
		}
		startup.LogDatabaseInit(time.Since(dbStart), interrupted)
	}

	// Initialize media engine
	a.engine = engine.New(engine.Config{
		FFmpegPath:         config.FFmpegPath,
		FFprobePath:        config.FFprobePath,
		TranscodingEnabled: config.TranscodingEnabled,
		Observer:           metrics.NewEngineObserver(),
	})
	limiter := workers.NewLimiter(config.EngineWorkers)
	startup.LogEngineInit(startup.EngineInfo{
		FFmpegPath:         config.FFmpegPath,
		FFprobePath:        config.FFprobePath,
		TranscodingEnabled: config.TranscodingEnabled,
		Workers:            limiter.Size(),
	})

	a.monitor = memory.NewMonitor(memory.DefaultConfig())
	a.monitor.Start()

	p := pipeline.New(pipeline.Config{
		Engine:     a.engine,
		Limiter:    limiter,
		Admission:  a.monitor,
		StagingDir: config.StagingDir,
		ChunkSize:  config.ChunkSize,
		Sender: streaming.SenderConfig{
			SendTimeout: config.SendTimeout,
			IdleTimeout: config.IdleTimeout,
			MaxDuration: config.MaxStreamDuration,
		},
		StagingObserver: metrics.NewStagingObserver(),
	})

	// Metrics
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	hopts := handlers.Options{Engine: a.engine, Workers: limiter, Memory: a.monitor}
	if a.db != nil {
		hopts.History = a.db
		a.collector = metrics.NewCollector(a.db, collectorInterval)
		a.collector.Start()
	}
	a.handlers = handlers.New(hopts)

	// gRPC server
	var history server.History
	if a.db != nil {
		history = a.db
	}
	a.grpc, a.health = newGRPCServer(config, p, history)

	lis, err := net.Listen("tcp", config.ListenAddr)
	if err != nil {
		startup.LogFatal("Failed to listen on %s: %v", config.ListenAddr, err)
	}

	// Admin HTTP server
	router := setupRouter(a.handlers, config.MetricsEnabled)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)
	a.admin = &http.Server{
		Addr:         ":" + config.MetricsPort,
		Handler:      wrapAdmin(router, config.LogHealthChecks),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.grpc.Serve(lis); err != nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := a.admin.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		a.waitForShutdown(gctx)
		return nil
	})

	a.handlers.SetReady(true)
	startup.LogServerStarted(startup.ServerConfig{
		ListenAddr:      config.ListenAddr,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := g.Wait(); err != nil {
		startup.LogFatal("Server error: %v", err)
	}
}

// newGRPCServer builds the gRPC server with VideoService and the standard
// health service registered.
func newGRPCServer(config *startup.Config, p *pipeline.Pipeline, history server.History) (*grpc.Server, *health.Server) {
	opts := rpc.ServerOptions(config.MaxRecvMsgSize)
	opts = append(opts, grpc.ChainStreamInterceptor(server.StreamInterceptors(config.LogHealthChecks)...))

	gs := grpc.NewServer(opts...)
	rpc.RegisterTranscodeServer(gs, server.New(p, history))

	hs := health.NewServer()
	hs.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/calls", h.ListCalls).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	return r
}

func wrapAdmin(router http.Handler, logHealthChecks bool) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = logHealthChecks
	logged := middleware.Logger(loggingConfig)(router)
	return middleware.Compression(middleware.DefaultCompressionConfig())(logged)
}

// waitForShutdown blocks until a signal arrives or ctx ends, then stops
// every component.
func (a *app) waitForShutdown(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	reason := "server error"
	select {
	case sig := <-sigChan:
		reason = sig.String()
	case <-ctx.Done():
	}
	a.shutdown(reason)
}

func (a *app) shutdown(reason string) {
	startup.LogShutdownInitiated(reason)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.handlers.SetReady(false)
	a.health.Shutdown()

	startup.LogShutdownStep("Draining gRPC calls")
	stopped := make(chan struct{})
	go func() {
		a.grpc.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		startup.LogShutdownStepComplete("gRPC server stopped")
	case <-ctx.Done():
		logging.Warn("gRPC drain timed out, closing remaining calls")
		a.grpc.Stop()
	}

	if a.collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		a.collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownStep("Stopping media engine processes")
	a.engine.Cleanup()
	startup.LogShutdownStepComplete("Media engine cleanup complete")

	a.monitor.Stop()

	startup.LogShutdownStep("Shutting down admin HTTP server")
	if err := a.admin.Shutdown(ctx); err != nil {
		logging.Warn("Admin server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Admin HTTP server stopped")
	}

	if a.db != nil {
		startup.LogShutdownStep("Closing database")
		if err := a.db.Close(); err != nil {
			logging.Warn("Database close error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Database closed")
		}
	}

	startup.LogShutdownComplete()
}
