// Package main is econfed's entry point: the HTTP federation API and its
// supporting CLI commands (serve, catalog reload, query).
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gorm.io/gorm"

	"github.com/econdata/econfed/api/handlers"
	"github.com/econdata/econfed/config"
	"github.com/econdata/econfed/internal/breaker"
	"github.com/econdata/econfed/internal/cache"
	"github.com/econdata/econfed/internal/catalog"
	"github.com/econdata/econfed/internal/learned"
	"github.com/econdata/econfed/internal/metrics"
	"github.com/econdata/econfed/internal/orchestrate"
	"github.com/econdata/econfed/internal/ratelimit"
	"github.com/econdata/econfed/internal/resolve"
	"github.com/econdata/econfed/internal/routing"
	"github.com/econdata/econfed/internal/server"
	"github.com/econdata/econfed/internal/telemetry"
	"github.com/econdata/econfed/internal/tlsutil"
	"github.com/econdata/econfed/providers"
	"github.com/econdata/econfed/providers/httpbase"
)

// Server wires every econfed component together and runs the HTTP and
// metrics listeners.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	otel   *telemetry.Providers

	catalog      *catalog.Catalog
	router       *routing.Router
	resolver     *resolve.Resolver
	registry     *providers.Registry
	db           *gorm.DB
	learnedStore *learned.Store
	redisCache   *cache.Manager
	seriesCache  *cache.SeriesCache
	orchestrator *orchestrate.Orchestrator
	rateLimiter  *ratelimit.Limiter
	collector    *metrics.Collector

	healthHandler   *handlers.HealthHandler
	queryHandler    *handlers.QueryHandler
	seriesHandler   *handlers.SeriesHandler
	conceptsHandler *handlers.ConceptsHandler

	httpManager    *server.Manager
	metricsManager *server.Manager

	rateLimiterCancel   context.CancelFunc
	catalogReloadCancel context.CancelFunc
}

// NewServer constructs a Server from cfg. All wiring happens in Start; the
// constructor only stores dependencies it cannot build without one (the
// already-initialized logger and telemetry providers).
func NewServer(cfg *config.Config, logger *zap.Logger, otel *telemetry.Providers) *Server {
	return &Server{cfg: cfg, logger: logger, otel: otel}
}

// Start builds every internal component, registers HTTP routes, and starts
// both the API and metrics listeners without blocking.
func (s *Server) Start() error {
	s.catalog = catalog.New(s.cfg.Catalog.Dir)
	if err := s.catalog.Load(); err != nil {
		return fmt.Errorf("failed to load concept catalog: %w", err)
	}

	s.router = routing.New(s.catalog)
	s.resolver = resolve.New(s.catalog, 512)

	db, err := openDatabase(s.cfg.Database, s.logger)
	if err != nil {
		s.logger.Warn("learned-mapping store unavailable, resolver will skip its database tier", zap.Error(err))
	} else {
		s.db = db
		s.learnedStore = learned.New(db, s.logger)
		s.resolver.SetLearnedStore(s.learnedStore)
	}

	httpbase.SetDefaultPool(tlsutil.PoolConfig{
		MaxIdleConns:        s.cfg.HTTP.MaxIdleConns,
		MaxIdleConnsPerHost: s.cfg.HTTP.MaxIdleConnsPerHost,
		IdleConnTimeout:     s.cfg.HTTP.IdleConnTimeout,
		DialTimeout:         s.cfg.HTTP.DialTimeout,
	})
	s.registry = buildRegistry(s.cfg.Providers)
	s.collector = metrics.NewCollector("econfed", s.logger)

	if s.cfg.Cache.EnableRedis {
		redisCache, err := cache.NewManager(cache.Config{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			DefaultTTL:   s.cfg.Cache.DefaultTTL,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
		}, s.logger)
		if err != nil {
			s.logger.Warn("redis cache tier unavailable, running local-only", zap.Error(err))
		} else {
			s.redisCache = redisCache
		}
	}

	s.seriesCache = cache.NewSeriesCache(s.redisCache, cache.SeriesCacheConfig{
		LocalMaxSize: s.cfg.Cache.LocalMaxSize,
		LocalTTL:     s.cfg.Cache.LocalTTL,
		DefaultTTL:   s.cfg.Cache.DefaultTTL,
		ProviderTTL:  s.cfg.Cache.ProviderTTL,
		EnableLocal:  s.cfg.Cache.EnableLocal,
		EnableRedis:  s.cfg.Cache.EnableRedis,
	}, s.logger)

	s.orchestrator = orchestrate.New(s.registry, s.router, s.catalog, s.resolver, s.seriesCache,
		breaker.DefaultConfig(), nil, s.logger)

	s.rateLimiter = ratelimit.New(s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst)
	rlCtx, rlCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rlCancel
	go s.rateLimiter.Run(rlCtx)

	s.initCatalogReload()
	s.initHandlers()

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("econfed started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Int("concepts_loaded", len(s.catalog.All())),
	)
	return nil
}

// initCatalogReload polls the concept catalog directory for changes and
// reloads it in place, clearing the resolver's cache so stale resolutions
// don't outlive a concept's edited provider mapping. A whole-process config
// reload with restart-required change classification would be unneeded
// machinery for reloading one YAML directory, so this is its own small
// polling loop instead.
func (s *Server) initCatalogReload() {
	if !s.cfg.Catalog.WatchReload {
		return
	}
	interval := s.cfg.Catalog.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.catalogReloadCancel = cancel
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.catalog.Reload(); err != nil {
					s.logger.Warn("catalog reload failed", zap.Error(err))
					continue
				}
				s.resolver.ClearCache()
			}
		}
	}()
}

func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	if s.redisCache != nil {
		s.healthHandler.RegisterCheck(handlers.NewCacheHealthCheck("redis", func(ctx context.Context) error {
			_, err := s.redisCache.Get(ctx, "econfed:healthcheck")
			if err != nil && err != cache.ErrCacheMiss {
				return err
			}
			return nil
		}))
	}
	if s.db != nil {
		s.healthHandler.RegisterCheck(handlers.NewCacheHealthCheck("database", func(ctx context.Context) error {
			sqlDB, err := s.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}))
	}
	s.queryHandler = handlers.NewQueryHandler(s.orchestrator, s.logger)
	s.seriesHandler = handlers.NewSeriesHandler(s.orchestrator, s.logger)
	s.conceptsHandler = handlers.NewConceptsHandler(s.catalog, s.logger)
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("POST /v1/query", s.queryHandler.HandleQuery)
	mux.HandleFunc("GET /v1/series/{provider}/{code}", s.seriesHandler.HandleGet)
	mux.HandleFunc("GET /v1/concepts", s.conceptsHandler.HandleList)

	skipAuthPaths := []string{"/health", "/ready", "/version"}
	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		SecurityHeaders(),
		s.rateLimiter.Middleware,
		JWTAuth(s.cfg.Server.JWTSecret, skipAuthPaths, s.logger),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
		Component:       "query_api",
	}
	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	return s.httpManager.Start()
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
		Component:       "metrics_server",
	}
	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	return s.metricsManager.Start()
}

// WaitForShutdown blocks until the HTTP server receives a termination
// signal, then runs Shutdown.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops the catalog reload loop and both listeners.
func (s *Server) Shutdown() {
	s.logger.Info("shutting down")
	if s.catalogReloadCancel != nil {
		s.catalogReloadCancel()
	}
	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	ctx := context.Background()
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}
	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				s.logger.Error("database close error", zap.Error(err))
			}
		}
	}
	s.logger.Info("shutdown complete")
}
