package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/BioInfo/chronoscope/internal/api"
	"github.com/BioInfo/chronoscope/internal/config"
	"github.com/BioInfo/chronoscope/internal/db"
	"github.com/BioInfo/chronoscope/internal/gallery"
	"github.com/BioInfo/chronoscope/internal/health"
	"github.com/BioInfo/chronoscope/internal/jobs"
	"github.com/BioInfo/chronoscope/internal/journal"
	"github.com/BioInfo/chronoscope/internal/middleware"
	"github.com/BioInfo/chronoscope/internal/progress"
	"github.com/BioInfo/chronoscope/internal/tracing"
)

const (
	redisPingTimeout     = 5 * time.Second
	journalKeyPrefix     = "chronoscope:"
	journalObjectPrefix  = "journal/"
	rateLimitCleanupTick = time.Minute
)

// app is the assembled server: the HTTP handler plus the background work
// and connections main has to run and release.
type app struct {
	handler    http.Handler
	store      *gallery.Store
	jobMetrics *jobs.Metrics
	limiter    *middleware.InMemoryRateLimitStore

	db    *sql.DB
	redis *redis.Client
}

// newApp connects the optional backends and builds the handler chain.
// Without DATABASE_URL the gallery is kept in memory; without REDIS_URL the
// journal, gallery lock and rate limits are process-local.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{jobMetrics: jobs.NewMetrics()}

	httpMetrics := middleware.NewMetrics()
	galleryMetrics := gallery.NewMetrics()
	progressMetrics := progress.NewMetrics()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for name, r := range map[string]interface{ Register(prometheus.Registerer) error }{
		"http":     httpMetrics,
		"gallery":  galleryMetrics,
		"progress": progressMetrics,
		"jobs":     a.jobMetrics,
	} {
		if err := r.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register %s metrics: %w", name, err)
		}
	}

	checks := map[string]health.Checker{}

	var repo gallery.Repository = gallery.NewInMemoryRepository()
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.db = conn
		repo = gallery.NewPostgresRepository(conn, logger)
		checks["database"] = health.NewDBChecker(conn)
		logger.Info("gallery using postgres")
	} else {
		logger.Info("gallery using in-memory storage")
	}

	var (
		locker         gallery.Locker = gallery.NewFIFOLocker()
		journalStorage journal.Storage
		rateStore      middleware.RateLimitStore
	)
	if cfg.RedisURL != "" {
		client, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		locker = gallery.NewRedisLocker(client, locker, logger)
		journalStorage = journal.NewRedisStorage(client, journalKeyPrefix, 0)
		rateStore = middleware.NewRedisRateLimitStore(client,
			middleware.WithRateLimitMetrics(httpMetrics),
			middleware.WithRateLimitLogger(logger),
		)
		checks["redis"] = health.NewRedisChecker(client)
	} else {
		a.limiter = middleware.NewInMemoryRateLimitStore()
		journalStorage = journal.NewMemoryStorage()
		rateStore = a.limiter
	}

	if cfg.JournalBucket != "" {
		journalStorage = journal.NewObjectStorage(journal.ObjectStorageConfig{
			Bucket:          cfg.JournalBucket,
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Prefix:          journalObjectPrefix,
		})
		logger.Info("journal using object storage", "bucket", cfg.JournalBucket)
	}

	a.store = gallery.NewStore(repo,
		gallery.WithLocker(locker),
		gallery.WithMetrics(galleryMetrics),
		gallery.WithLogger(logger),
	)
	if err := gallery.Migrate(ctx, a.store, a.jobMetrics); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open gallery: %w", err)
	}
	checks["gallery"] = health.NewSchemaChecker(a.store, gallery.SchemaVersion)

	j := journal.New(journalStorage, journal.WithLogger(logger))
	sim := progress.NewSimulator(progress.Config{
		Interval: cfg.ProgressInterval(),
		Metrics:  progressMetrics,
		Logger:   logger,
	})

	mux := api.NewRouter(api.RouterConfig{
		Health: api.NewHealthHandlers(checks),
		Scenes: api.NewSceneHandlers(api.SceneHandlersConfig{
			Simulator:      sim,
			Journal:        j,
			Metrics:        httpMetrics,
			AllowedOrigins: cfg.CORSAllowedOrigins,
		}),
		Waypoints:  api.NewWaypointHandlers(),
		Gallery:    api.NewGalleryHandlers(a.store, j, a.jobMetrics),
		Journal:    api.NewJournalHandlers(j),
		WriteLimit: middleware.RateLimiter(rateStore, middleware.DefaultWriteLimit(), middleware.IPKeyFunc(), httpMetrics),
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	// RequestID -> Tracing -> Logging -> HTTPMetrics -> CORS -> RateLimiter
	var handler http.Handler = mux
	handler = middleware.RateLimiter(rateStore, middleware.DefaultGlobalLimit(), middleware.IPKeyFunc(), httpMetrics)(handler)
	handler = middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins})(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Tracing(tracing.DefaultServiceName)(handler)
	a.handler = middleware.RequestID(handler)

	return a, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// runBackground starts the periodic jobs; they stop when ctx is done.
func (a *app) runBackground(ctx context.Context, cfg *config.Config) {
	go gallery.RunPeriodicDedupe(ctx, a.store, cfg.DedupeInterval(), a.jobMetrics)
	if a.limiter != nil {
		go a.limiter.RunCleanup(ctx, rateLimitCleanupTick)
	}
}

// Close releases the backend connections.
func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
