package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/AgentOS/bundlemgr/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/bundle"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/installer"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/notify"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/preinstall"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/domain/usage"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/storage"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	config     *config.Config
	logger     *logging.Logger
	db         *storage.DB
	registry   *bundle.Manager
	hub        *notify.Hub
	installer  *installer.Installer
	preinstall *preinstall.Table
	usage      *usage.Tracker
	local      *notify.LocalBroadcaster
	tracer     *tracing.Tracer
	metrics    *monitoring.Metrics
	gatherer   prometheus.Gatherer
	router     *gin.Engine
	http       *http.Server

	stopUptime chan struct{}
	closeOnce  sync.Once
	closeErr   error
}

// NewServer opens storage, restores every table and builds the router
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	log := logger.Logger

	log.Info("Initializing bundle manager",
		zap.String("port", cfg.Server.Port),
		zap.String("db", cfg.Storage.Path),
		zap.Bool("compress", cfg.Storage.Compress),
	)

	// Metrics first (needed by other components)
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetricsWithRegistry(reg)
	tracer := tracing.New("bundlemgr", log)

	db, err := storage.Open(ctx, storage.Options{Path: cfg.Storage.Path, Compress: cfg.Storage.Compress}, log)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	db.SetObserver(metrics)

	s := &Server{
		config:     cfg,
		logger:     logger,
		db:         db,
		tracer:     tracer,
		metrics:    metrics,
		gatherer:   reg,
		stopUptime: make(chan struct{}),
	}
	if err := s.build(ctx); err != nil {
		s.Close()
		return nil, err
	}

	go metrics.RunUptime(s.stopUptime)
	log.Info("Server initialized successfully", zap.Int("bundles", len(s.registry.GetBundleNames())))
	return s, nil
}

func (s *Server) build(ctx context.Context) error {
	cfg := s.config
	log := s.logger.Logger

	s.registry = bundle.NewManager(storage.NewBundleStore(s.db), log).WithMetrics(s.metrics)
	if err := s.registry.LoadDataFromPersistentStorage(ctx); err != nil {
		return fmt.Errorf("failed to restore bundles: %w", err)
	}

	broadcaster, err := s.broadcaster()
	if err != nil {
		return err
	}
	s.hub = notify.NewHub(broadcaster, cfg.Events.Source, log).WithMetrics(s.metrics)

	s.preinstall = preinstall.NewTable(storage.NewPreInstallStore(s.db), log)
	if err := s.preinstall.LoadAll(ctx); err != nil {
		return fmt.Errorf("failed to restore preinstall table: %w", err)
	}
	if cfg.PreInstall.Dir != "" {
		res, err := preinstall.NewSeeder(s.preinstall, cfg.PreInstall.Dir, log).Seed(ctx)
		if err != nil {
			log.Warn("Failed to seed preinstall table", zap.String("dir", cfg.PreInstall.Dir), zap.Error(err))
		} else {
			log.Info("Preinstall table seeded",
				zap.Int("files", res.Files),
				zap.Int("loaded", res.Loaded),
				zap.Int("skipped", res.Skipped),
				zap.Int("failed", res.Failed))
		}
	}

	s.usage = usage.NewTracker(storage.NewUsageStore(s.db), log)
	if err := s.usage.Load(ctx); err != nil {
		return fmt.Errorf("failed to restore usage records: %w", err)
	}

	s.installer = installer.New(s.registry, s.hub, log).
		WithPreInstall(s.preinstall).
		WithUsage(s.usage).
		WithMetrics(s.metrics).
		WithTracer(s.tracer)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers := api.NewHandlers(api.Deps{
		Registry:   s.registry,
		Installer:  s.installer,
		Hub:        s.hub,
		PreInstall: s.preinstall,
		Usage:      s.usage,
		Metrics:    s.metrics,
		Log:        log,
	})

	opts := api.RouterOptions{
		CORS:     middleware.DefaultCORSConfig(),
		Gatherer: s.gatherer,
		Tracer:   s.tracer,
		Log:      log,
	}
	if cfg.RateLimit.Enabled {
		log.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		opts.RateLimit = &rl
	}
	s.router = api.NewRouter(handlers, opts)

	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// broadcaster always delivers in process; a configured sink is added behind
// a circuit breaker
func (s *Server) broadcaster() (notify.Broadcaster, error) {
	s.local = notify.NewLocalBroadcaster()
	if s.config.Events.Sink == "" {
		return s.local, nil
	}

	log := s.logger.Logger
	sink, err := notify.NewSinkBroadcaster(notify.SinkConfig{
		Target:     s.config.Events.Sink,
		MaxRetries: s.config.Events.Retries,
		Timeout:    5 * time.Second,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create event sink: %w", err)
	}
	breaker := resilience.New("event-sink", resilience.Settings{
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})
	log.Info("Event sink configured", zap.String("target", s.config.Events.Sink))
	return notify.MultiBroadcaster{s.local, notify.NewGuardedBroadcaster(sink, breaker)}, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Events returns the in-process broadcaster for local subscribers
func (s *Server) Events() *notify.LocalBroadcaster {
	return s.local
}

// Run serves HTTP until Shutdown
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests, then releases every resource
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to drain http server: %w", err))
		}
	}
	if err := s.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases storage, tracing and background loops
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopUptime)
		if s.hub != nil {
			s.hub.UnregisterBundleStatusCallback()
		}
		s.tracer.Close()
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close storage", zap.Error(err))
			s.closeErr = fmt.Errorf("failed to close storage: %w", err)
		}
		s.logger.Close()
	})
	return s.closeErr
}
