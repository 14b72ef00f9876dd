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

	"homni_backend/internal/adapters"
	"homni_backend/internal/auth"
	"homni_backend/internal/budget"
	budgetrepo "homni_backend/internal/budget/repository"
	"homni_backend/internal/companies"
	"homni_backend/internal/email"
	"homni_backend/internal/events"
	apphttp "homni_backend/internal/http"
	"homni_backend/internal/http/router"
	"homni_backend/internal/leads"
	"homni_backend/internal/notification"
	"homni_backend/internal/scheduler"
	"homni_backend/internal/system"
	"homni_backend/migrations"
	"homni_backend/platform/cache"
	"homni_backend/platform/config"
	"homni_backend/platform/db"
	"homni_backend/platform/httpkit"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"
	"homni_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const errorTrackerWindow = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.MigrationsEnabled {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool, migrations.FS)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	redisClient := initRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	queueClient, closeQueue := initQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	appMetrics := metrics.New()
	errorTracker := httpkit.NewErrorTracker(errorTrackerWindow)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(email.NewSender(cfg), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	authModule := auth.NewModule(pool, cfg, eventBus, val, log)
	companiesModule := companies.NewModule(pool, adapters.NewRoleGranter(authModule.Service()), val, log)
	companyResolver := adapters.NewCompanyResolver(companiesModule.Directory())

	var budgetCache budget.AccountCache
	if redisClient != nil {
		budgetCache = budget.NewRedisCache(redisClient, cfg.GetBudgetCacheTTL())
	}
	tracker := budget.NewTracker(budgetrepo.New(pool), budgetCache, eventBus, cfg, log)
	tracker.SetMetrics(appMetrics)
	budgetModule := budget.NewModule(tracker, companyResolver, val)

	leadsModule := leads.NewModule(leads.Deps{
		Pool:      pool,
		Bus:       eventBus,
		Validator: val,
		Config:    cfg,
		Metrics:   appMetrics,
		Log:       log,
		Budget:    adapters.NewBudgetGate(tracker),
		Companies: companyResolver,
	})
	if queueClient != nil {
		leadsModule.SetDistributionQueue(adapters.NewDistributionQueue(queueClient))
	}

	if n, err := leadsModule.CanonicalizeStatuses(ctx); err != nil {
		log.Error("failed to rewrite legacy lead statuses", "error", err)
	} else if n > 0 {
		log.Info("legacy lead statuses rewritten", "leads", n)
	}

	// Anti-Corruption Layer: auth reaches leads only through the linker port
	authModule.Service().SetLeadLinker(adapters.NewLeadLinker(leadsModule.ManagementService()))

	systemModule := system.NewModule(db.NewPoolAdapter(pool), errorTracker, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Metrics:  appMetrics,
		Errors:   errorTracker,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			systemModule,
			authModule,
			companiesModule,
			budgetModule,
			leadsModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRedis connects the budget cache. The API keeps working on the database
// alone when Redis is missing or unreachable.
func initRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; budget cache disabled")
		return nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("redis unavailable; budget cache disabled", "error", err)
		return nil
	}
	return client
}

func initQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; new leads are distributed in-process")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
