package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coffeefinder/internal/config"
	dbRedis "github.com/kailas-cloud/coffeefinder/internal/db/redis"
	logpkg "github.com/kailas-cloud/coffeefinder/internal/logger"
	"github.com/kailas-cloud/coffeefinder/internal/metrics"
	"github.com/kailas-cloud/coffeefinder/internal/repository/catalogfile"
	"github.com/kailas-cloud/coffeefinder/internal/repository/overpasscache"
	venuerepo "github.com/kailas-cloud/coffeefinder/internal/repository/venue"
	chiTransport "github.com/kailas-cloud/coffeefinder/internal/transport/chi"
	"github.com/kailas-cloud/coffeefinder/internal/transport/nominatim"
	"github.com/kailas-cloud/coffeefinder/internal/transport/overpass"
	cataloguc "github.com/kailas-cloud/coffeefinder/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/coffeefinder/internal/usecase/health"
	"github.com/kailas-cloud/coffeefinder/internal/usecase/rank"
	searchuc "github.com/kailas-cloud/coffeefinder/internal/usecase/search"
	"github.com/kailas-cloud/coffeefinder/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting coffeefinder API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register domain metrics explicitly (no init())
	metrics.RegisterDomainMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database is optional: the file and plain overpass sources run without it.
	var store *dbRedis.Store
	if cfg.Database.Enabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
	}

	source, err := buildSource(&cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to build catalog source", zap.Error(err))
	}

	catalogSvc := cataloguc.New(source, logger)
	if _, err := catalogSvc.Refresh(ctx); err != nil {
		// Keep serving: /health reports the missing catalog and the refresh loop retries.
		logger.Error("Initial catalog load failed", zap.Error(err))
	}
	go catalogSvc.Run(ctx, time.Duration(cfg.Catalog.RefreshIntervalSec)*time.Second)

	ranker, err := rank.New(cfg.Ranking.Weights)
	if err != nil {
		logger.Fatal("Invalid ranking weights", zap.Error(err))
	}
	w := ranker.Weights()
	logger.Info("Ranking weights",
		zap.Float64("rating", w.Rating),
		zap.Float64("overlap", w.Overlap),
		zap.Float64("distance", w.Distance),
	)

	// Pass nil interface (not typed nil pointer!) when geocoding is disabled.
	var geocoder searchuc.Geocoder
	if cfg.Geocoder.Enabled {
		geocoder = nominatim.NewClient(&nominatim.Config{
			BaseURL:           cfg.Geocoder.BaseURL,
			UserAgent:         cfg.Geocoder.UserAgent,
			Timeout:           time.Duration(cfg.Geocoder.TimeoutSec) * time.Second,
			RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
			Breaker:           cfg.BreakerSettings(),
			Logger:            logger,
		})
	}

	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}

	searchSvc := searchuc.New(catalogSvc, ranker, geocoder)
	healthSvc := healthuc.New(catalogSvc, pinger)

	server := chiTransport.NewServer(searchSvc, catalogSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:           cfg.Auth.APIKeys,
		RateLimitRequests: cfg.RateLimit.Requests,
		RateLimitWindow:   time.Duration(cfg.RateLimit.WindowSec) * time.Second,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildSource assembles the configured catalog source.
// Overpass: Client -> Cache (when a database is configured) -> Source.
func buildSource(cfg *config.Config, store *dbRedis.Store, logger *zap.Logger) (cataloguc.Source, error) {
	switch cfg.Catalog.Source {
	case config.SourceFile:
		loader, err := catalogfile.NewLoader(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("catalog file: %w", err)
		}
		return loader, nil

	case config.SourceRedis:
		if store == nil {
			return nil, errors.New("redis catalog source requires a database")
		}
		return venuerepo.New(store), nil

	case config.SourceOverpass:
		var fetcher overpass.Fetcher = overpass.NewClient(&overpass.Config{
			BaseURL:   cfg.Overpass.BaseURL,
			UserAgent: cfg.Overpass.UserAgent,
			Timeout:   time.Duration(cfg.Overpass.TimeoutSec) * time.Second,
			Breaker:   cfg.BreakerSettings(),
			Logger:    logger,
		})
		if store != nil && cfg.Overpass.CacheTTLSec > 0 {
			fetcher = overpasscache.New(fetcher, store,
				time.Duration(cfg.Overpass.CacheTTLSec)*time.Second, metrics.OverpassCacheTotal, logger)
		}
		req := cfg.OverpassRequest()
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("overpass request: %w", err)
		}
		return overpass.NewSource(fetcher, req), nil

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}
