// Package main - entry point for the transcript service HTTP API.
//
// The API serves assembled student records: it scrapes the university result
// and attendance feeds on demand, reconciles repeats, computes quality points
// and aggregates, and exposes the record as JSON and CSV.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-saqi/aistudio-uafcgpa/config"
	"github.com/m-saqi/aistudio-uafcgpa/internal/application/command"
	"github.com/m-saqi/aistudio-uafcgpa/internal/application/query"
	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/external/lms"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/persistence/postgres"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/persistence/redis"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/service"
	httpapi "github.com/m-saqi/aistudio-uafcgpa/internal/interface/http"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/circuitbreaker"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting transcript service API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug))

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbCfg := postgres.DefaultConfig(cfg.Database.URL)
	dbCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	dbCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	dbCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	dbCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	dbConn, err := postgres.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var profileCache transcript.Cache = redis.NoopProfileCache{}
	var attendanceCache *redis.AttendanceCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = connectRedis(cfg)
		if err != nil {
			// The service stays up without Redis; every read just goes to
			// Postgres and every scrape goes to the feed.
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			profileCache = redis.NewProfileCache(redisCache, log)
			attendanceCache = redis.NewAttendanceCache(redisCache, log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	profileRepo := postgres.NewProfileRepository(dbConn, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. FEED CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing feed client...")
	feedAdapter := service.NewLMSFeedAdapter(newFeedClient(cfg, log), attendanceCache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. TRACK REGISTRY
	// ─────────────────────────────────────────────────────────────────────────
	secondaryCodes := cfg.Track.SecondaryCodes
	if len(secondaryCodes) == 0 {
		secondaryCodes = transcript.DefaultBEdCodes()
	}
	tracks := transcript.NewTrackRegistry(secondaryCodes)
	log.Info("track registry loaded", logger.Int("codes", tracks.Size()))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION HANDLERS (CQRS)
	// ─────────────────────────────────────────────────────────────────────────
	undo := command.NewUndoStore()

	deps := httpapi.Dependencies{
		ImportResult:     command.NewImportResultHandler(profileRepo, profileCache, feedAdapter, tracks, log),
		MergeAttendance:  command.NewMergeAttendanceHandler(profileRepo, profileCache, feedAdapter, log),
		AddCourse:        command.NewAddCourseHandler(profileRepo, profileCache, log),
		SetCourseDeleted: command.NewSetCourseDeletedHandler(profileRepo, profileCache, log),
		MoveCourse:       command.NewMoveCourseHandler(profileRepo, profileCache, log),
		AddForecast:      command.NewAddForecastHandler(profileRepo, profileCache, log),
		RemoveSemester:   command.NewRemoveSemesterHandler(profileRepo, profileCache, undo, log),
		RestoreSemester:  command.NewRestoreSemesterHandler(profileRepo, profileCache, undo, log),
		GetProfile:       query.NewGetProfileHandler(profileRepo, profileCache, tracks, cfg.LMS.ProfileCacheTTL, log),
		GetStatus:        query.NewGetStatusHandler(feedAdapter, log),
		Profiles:         profileRepo,
		Registrations:    profileRepo,
		Logger:           log,
		Health:           &healthChecker{db: dbConn, cache: redisCache},
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpapi.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.AdminKeyHash = cfg.HTTP.AdminKeyHash

	server := httpapi.NewServer(serverCfg, deps)

	log.Info("starting HTTP server", logger.String("address", serverCfg.Address()))
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("transcript service API stopped")
	return nil
}

// setupLogger builds the process logger from the observability settings.
func setupLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})
}

// connectRedis prefers the URL form and falls back to host/port settings.
func connectRedis(cfg *config.Config) (*redis.Cache, error) {
	if cfg.Redis.URL != "" {
		return redis.NewCacheFromURL(cfg.Redis.URL)
	}

	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
	return redis.NewCache(redisCfg)
}

// newFeedClient wires the retrier and breaker from configuration.
func newFeedClient(cfg *config.Config, log *logger.Logger) *lms.Client {
	clientCfg := lms.DefaultClientConfig(cfg.LMS.BaseURL)
	clientCfg.APIKey = cfg.LMS.APIKey
	clientCfg.Timeout = cfg.LMS.RequestTimeout
	clientCfg.Logger = log
	clientCfg.Retrier = retry.New(
		retry.WithMaxAttempts(cfg.LMS.MaxRetries),
		retry.WithInitialDelay(cfg.LMS.RetryBaseDelay),
		retry.WithMaxDelay(cfg.LMS.RetryMaxDelay),
	)
	clientCfg.Breaker = circuitbreaker.New(
		"lms-feed",
		circuitbreaker.WithFailureThreshold(cfg.LMS.CircuitBreakerThreshold),
		circuitbreaker.WithTimeout(cfg.LMS.CircuitBreakerTimeout),
		circuitbreaker.WithMaxHalfOpenRequests(cfg.LMS.CircuitBreakerHalfOpenMax),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		}),
	)
	return lms.NewClient(clientCfg)
}

// healthChecker reports backing-store reachability for the ready endpoint.
type healthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

func (h *healthChecker) CheckDatabase(ctx context.Context) error {
	return h.db.Ping(ctx)
}

func (h *healthChecker) CheckCache(ctx context.Context) error {
	if h.cache == nil {
		return nil
	}
	return h.cache.Ping(ctx)
}
