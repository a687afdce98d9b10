// Package main - entry point for the transcript service background worker.
//
// The worker keeps stored records fresh: on a fixed interval it walks every
// stored registration number and re-imports the result feed, so repeat
// resolution and aggregates pick up newly published results without anyone
// opening the profile.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/m-saqi/aistudio-uafcgpa/config"
	"github.com/m-saqi/aistudio-uafcgpa/internal/application/command"
	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/external/lms"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/persistence/postgres"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/persistence/redis"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/service"
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
	log.Info("starting transcript service worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.Duration("refresh_interval", cfg.Worker.RefreshInterval),
		logger.Int("max_concurrent", cfg.Worker.MaxConcurrentJobs))

	if !cfg.Worker.Enabled {
		log.Info("worker is disabled, exiting")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnection(ctx, postgres.DefaultConfig(cfg.Database.URL))
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
	var profileCache transcript.Cache = redis.NoopProfileCache{}

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err := connectRedis(cfg)
		if err != nil {
			log.Warn("failed to connect to Redis, cache invalidation disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			profileCache = redis.NewProfileCache(redisCache, log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES AND FEED CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	profileRepo := postgres.NewProfileRepository(dbConn, log)
	feedAdapter := service.NewLMSFeedAdapter(newFeedClient(cfg, log), nil, log)

	secondaryCodes := cfg.Track.SecondaryCodes
	if len(secondaryCodes) == 0 {
		secondaryCodes = transcript.DefaultBEdCodes()
	}
	tracks := transcript.NewTrackRegistry(secondaryCodes)

	importer := command.NewImportResultHandler(profileRepo, profileCache, feedAdapter, tracks, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. REFRESH LOOP
	// ─────────────────────────────────────────────────────────────────────────
	worker := &refreshWorker{
		profiles:   profileRepo,
		importer:   importer,
		interval:   cfg.Worker.RefreshInterval,
		maxJobs:    cfg.Worker.MaxConcurrentJobs,
		jobTimeout: cfg.Worker.JobTimeout,
		log:        log.With(logger.Component("refresh-worker")),
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.run(workerCtx)
	}()

	log.Info("transcript service worker is running")

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	stopWorker()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(cfg.App.ShutdownTimeout):
		log.Warn("shutdown timeout reached, abandoning in-flight jobs")
	}

	log.Info("transcript service worker stopped")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH WORKER
// ══════════════════════════════════════════════════════════════════════════════

// refreshWorker re-imports every stored profile on a fixed interval.
type refreshWorker struct {
	profiles   *postgres.ProfileRepository
	importer   *command.ImportResultHandler
	interval   time.Duration
	maxJobs    int
	jobTimeout time.Duration
	log        *logger.Logger
}

// run executes one pass immediately and then on every tick until the context
// is cancelled.
func (w *refreshWorker) run(ctx context.Context) {
	w.refreshAll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refreshAll(ctx)
		}
	}
}

// refreshAll walks the stored registrations with bounded concurrency. A
// failed registration is logged and skipped; one dead feed answer must not
// stall the rest of the pass.
func (w *refreshWorker) refreshAll(ctx context.Context) {
	start := time.Now()

	registrations, err := w.profiles.ListRegistrations(ctx)
	if err != nil {
		w.log.Error("failed to list registrations", logger.Err(err))
		return
	}
	if len(registrations) == 0 {
		w.log.Debug("no stored profiles to refresh")
		return
	}

	w.log.Info("refresh pass started", logger.Int("profiles", len(registrations)))

	sem := make(chan struct{}, w.maxJobs)
	var wg sync.WaitGroup
	var refreshed, failed atomic.Int64

	for _, registration := range registrations {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(registration string) {
			defer wg.Done()
			defer func() { <-sem }()

			jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
			defer cancel()

			_, err := w.importer.Handle(jobCtx, command.ImportResultCommand{Registration: registration})
			if err != nil {
				failed.Add(1)
				w.log.Warn("profile refresh failed",
					logger.Registration(registration),
					logger.Err(err))
				return
			}
			refreshed.Add(1)
		}(registration)
	}

	wg.Wait()

	w.log.Info("refresh pass complete",
		logger.F("refreshed", refreshed.Load()),
		logger.F("failed", failed.Load()),
		logger.Duration("elapsed", time.Since(start)))
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

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
