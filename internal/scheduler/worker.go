package scheduler

import (
	"context"
	"fmt"

	"homni_backend/internal/leads/distribution"
	"homni_backend/platform/apperr"
	"homni_backend/platform/config"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadDistributor assigns leads to companies.
type LeadDistributor interface {
	DistributeByID(ctx context.Context, leadID uuid.UUID) (*uuid.UUID, error)
	DistributeLeads(ctx context.Context) (distribution.Result, error)
}

// BudgetResetter zeroes spend of windows that have ended.
type BudgetResetter interface {
	ResetWindows(ctx context.Context) (int64, error)
}

// RoleJanitor removes expired role grants.
type RoleJanitor interface {
	CleanupExpiredRoles(ctx context.Context) (int64, error)
}

// WorkerDeps are the services the task handlers call.
type WorkerDeps struct {
	Distributor LeadDistributor
	Budget      BudgetResetter
	Roles       RoleJanitor
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	deps   WorkerDeps
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, deps WorkerDeps, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(deps, log)
	w.server = server
	return w, nil
}

func newWorker(deps WorkerDeps, log *logger.Logger) *Worker {
	w := &Worker{mux: asynq.NewServeMux(), deps: deps, log: log}

	w.mux.HandleFunc(TaskDistributeLead, w.handleDistributeLead)
	w.mux.HandleFunc(TaskDistributeSweep, w.handleDistributeSweep)
	w.mux.HandleFunc(TaskBudgetResetWindow, w.handleBudgetReset)
	w.mux.HandleFunc(TaskRolesCleanup, w.handleRolesCleanup)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleDistributeLead(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDistributeLeadPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("%w: invalid lead id %q", asynq.SkipRetry, payload.LeadID)
	}

	companyID, err := w.deps.Distributor.DistributeByID(ctx, leadID)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		w.log.Warn("distribute task for missing lead", "leadId", leadID)
		return nil
	case err != nil:
		return err
	case companyID == nil:
		// Picked up by the next sweep once a company has budget.
		w.log.Info("lead left unassigned", "leadId", leadID)
	default:
		w.log.Info("lead distributed", "leadId", leadID, "companyId", *companyID)
	}
	return nil
}

func (w *Worker) handleDistributeSweep(ctx context.Context, _ *asynq.Task) error {
	result, err := w.deps.Distributor.DistributeLeads(ctx)
	if err != nil {
		return err
	}
	w.log.Info("distribution sweep finished",
		"assigned", result.AssignedCount,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return nil
}

func (w *Worker) handleBudgetReset(ctx context.Context, _ *asynq.Task) error {
	n, err := w.deps.Budget.ResetWindows(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		w.log.Info("budget windows reset", "companies", n)
	}
	return nil
}

func (w *Worker) handleRolesCleanup(ctx context.Context, _ *asynq.Task) error {
	_, err := w.deps.Roles.CleanupExpiredRoles(ctx)
	return err
}
