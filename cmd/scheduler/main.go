package main

import (
	"context"
	"errors"
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
	"homni_backend/internal/leads"
	"homni_backend/internal/notification"
	"homni_backend/internal/scheduler"
	"homni_backend/platform/cache"
	"homni_backend/platform/config"
	"homni_backend/platform/db"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"
	"homni_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	appMetrics := metrics.New()
	val := validator.New()

	// Assignment e-mails are sent from the process that assigns.
	notificationModule := notification.New(email.NewSender(cfg), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	var budgetCache budget.AccountCache
	if redisClient, err := cache.NewRedisClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure()); err != nil {
		log.Warn("redis unavailable for budget cache", "error", err)
	} else {
		defer func() { _ = redisClient.Close() }()
		budgetCache = budget.NewRedisCache(redisClient, cfg.GetBudgetCacheTTL())
	}
	tracker := budget.NewTracker(budgetrepo.New(pool), budgetCache, eventBus, cfg, log)
	tracker.SetMetrics(appMetrics)

	authModule := auth.NewModule(pool, cfg, eventBus, val, log)
	companiesModule := companies.NewModule(pool, adapters.NewRoleGranter(authModule.Service()), val, log)

	leadsModule := leads.NewModule(leads.Deps{
		Pool:      pool,
		Bus:       eventBus,
		Validator: val,
		Config:    cfg,
		Metrics:   appMetrics,
		Log:       log,
		Budget:    adapters.NewBudgetGate(tracker),
		Companies: adapters.NewCompanyResolver(companiesModule.Directory()),
	})

	worker, err := scheduler.NewWorker(cfg, scheduler.WorkerDeps{
		Distributor: leadsModule.Distributor(),
		Budget:      tracker,
		Roles:       authModule.Service(),
	}, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, cfg.GetBudgetLocation(), log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
