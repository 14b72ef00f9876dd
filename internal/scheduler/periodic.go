package scheduler

import (
	"context"
	"fmt"
	"time"

	"homni_backend/platform/config"
	"homni_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic schedules. Sweep catches leads that found no company on creation.
const (
	distributeSweepCron = "@every 5m"
	budgetResetCron     = "@every 15m"
	rolesCleanupCron    = "@every 1h"
)

type periodicEntry struct {
	cronspec string
	task     func() *asynq.Task
	unique   time.Duration
}

var periodicEntries = []periodicEntry{
	{cronspec: distributeSweepCron, task: NewDistributeSweepTask, unique: 5 * time.Minute},
	{cronspec: budgetResetCron, task: NewBudgetResetTask, unique: 15 * time.Minute},
	{cronspec: rolesCleanupCron, task: NewRolesCleanupTask, unique: time.Hour},
}

// Periodic enqueues the recurring maintenance tasks.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, loc *time.Location, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: loc,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("periodic task enqueue failed", "error", err)
			}
		},
	})

	queue := queueName(cfg)
	for _, entry := range periodicEntries {
		if _, err := s.Register(entry.cronspec, entry.task(), asynq.Queue(queue), asynq.Unique(entry.unique)); err != nil {
			return nil, fmt.Errorf("register %s: %w", entry.task().Type(), err)
		}
	}

	return &Periodic{scheduler: s, log: log}, nil
}

// Run blocks until ctx is cancelled.
func (p *Periodic) Run(ctx context.Context) {
	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}
