package budget

import (
	"context"
	"errors"
	"time"

	"homni_backend/internal/budget/repository"
	"homni_backend/internal/events"
	"homni_backend/platform/apperr"
	"homni_backend/platform/config"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"

	"github.com/google/uuid"
)

// Store is the persistence the tracker needs.
type Store interface {
	Get(ctx context.Context, companyID uuid.UUID) (repository.Account, error)
	SetLimits(ctx context.Context, companyID uuid.UUID, limits repository.Limits) (repository.Account, error)
	RecordSpend(ctx context.Context, params repository.SpendParams) (repository.Account, error)
	ResetWindows(ctx context.Context, today time.Time) (int64, error)
	ListTransactions(ctx context.Context, companyID uuid.UUID, limit int) ([]repository.Transaction, error)
}

// Tracker reads and records company spend.
type Tracker struct {
	store   Store
	cache   AccountCache
	bus     events.Bus
	log     *logger.Logger
	metrics *metrics.Metrics
	loc     *time.Location
	now     func() time.Time
}

// NewTracker creates a tracker. cache may be nil when Redis is not configured.
func NewTracker(store Store, cache AccountCache, bus events.Bus, cfg config.BudgetConfig, log *logger.Logger) *Tracker {
	if cache == nil {
		cache = noopCache{}
	}
	return &Tracker{
		store: store,
		cache: cache,
		bus:   bus,
		log:   log,
		loc:   cfg.GetBudgetLocation(),
		now:   time.Now,
	}
}

// SetMetrics enables spend counters.
func (t *Tracker) SetMetrics(m *metrics.Metrics) {
	t.metrics = m
}

// Today is the current calendar date in the budget timezone.
func (t *Tracker) Today() time.Time {
	return DateOf(t.now().In(t.loc))
}

// GetBudgetStatus returns the derived status. The raw row may come from the
// cache; the status itself is always recomputed.
func (t *Tracker) GetBudgetStatus(ctx context.Context, companyID uuid.UUID) (Status, error) {
	account, err := t.account(ctx, companyID)
	if err != nil {
		return Status{}, err
	}
	return ComputeStatus(account, t.now(), t.loc), nil
}

func (t *Tracker) account(ctx context.Context, companyID uuid.UUID) (repository.Account, error) {
	if account, ok, err := t.cache.Get(ctx, companyID); err != nil {
		t.log.Warn("budget cache read failed", "companyId", companyID, "error", err)
	} else if ok {
		return account, nil
	}

	account, err := t.store.Get(ctx, companyID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Account{}, apperr.NotFound("budget not found")
	}
	if err != nil {
		t.log.DatabaseError("budget.get", err)
		return repository.Account{}, apperr.Unavailable(err)
	}

	if err := t.cache.Set(ctx, account); err != nil {
		t.log.Warn("budget cache write failed", "companyId", companyID, "error", err)
	}
	return account, nil
}

// RecordSpend always records the amount, even past a limit. The returned
// status tells the caller whether the company is now over budget.
func (t *Tracker) RecordSpend(ctx context.Context, companyID uuid.UUID, amount int64) (Status, error) {
	if amount <= 0 {
		return Status{}, apperr.Validation("amount must be positive")
	}

	account, err := t.store.RecordSpend(ctx, repository.SpendParams{
		CompanyID: companyID,
		Amount:    amount,
		Kind:      repository.KindManual,
		Today:     t.Today(),
	})
	if errors.Is(err, repository.ErrNotFound) {
		return Status{}, apperr.NotFound("budget not found")
	}
	if err != nil {
		t.log.DatabaseError("budget.record_spend", err)
		return Status{}, apperr.Unavailable(err)
	}

	t.invalidate(ctx, companyID)
	if t.metrics != nil {
		t.metrics.BudgetSpend.WithLabelValues(repository.KindManual).Add(float64(amount))
	}

	status := ComputeStatus(account, t.now(), t.loc)
	t.publishIfCrossed(ctx, status, amount)
	return status, nil
}

// AfterDebit is called once a transactional debit made elsewhere has
// committed. It drops the cached row and reports a crossed limit.
func (t *Tracker) AfterDebit(ctx context.Context, companyID uuid.UUID, amount int64, kind string) {
	t.invalidate(ctx, companyID)
	if t.metrics != nil {
		t.metrics.BudgetSpend.WithLabelValues(kind).Add(float64(amount))
	}

	status, err := t.GetBudgetStatus(ctx, companyID)
	if err != nil {
		t.log.Warn("budget status after debit unavailable", "companyId", companyID, "error", err)
		return
	}
	t.publishIfCrossed(ctx, status, amount)
}

// SetLimits replaces the budget amounts of a company.
func (t *Tracker) SetLimits(ctx context.Context, companyID uuid.UUID, limits repository.Limits) (Status, error) {
	if limits.CurrentBudget < 0 || limits.DailyBudget < 0 || limits.MonthlyBudget < 0 {
		return Status{}, apperr.Validation("budget amounts cannot be negative")
	}
	if limits.DailyBudget > limits.MonthlyBudget {
		return Status{}, apperr.Validation("daily budget cannot exceed monthly budget")
	}

	account, err := t.store.SetLimits(ctx, companyID, limits)
	if err != nil {
		t.log.DatabaseError("budget.set_limits", err)
		return Status{}, apperr.Unavailable(err)
	}
	t.invalidate(ctx, companyID)
	return ComputeStatus(account, t.now(), t.loc), nil
}

// ResetWindows zeroes spend of windows that ended before now.
func (t *Tracker) ResetWindows(ctx context.Context) (int64, error) {
	n, err := t.store.ResetWindows(ctx, t.Today())
	if err != nil {
		t.log.DatabaseError("budget.reset_windows", err)
		return 0, apperr.Unavailable(err)
	}
	return n, nil
}

// ListTransactions returns the newest ledger entries of a company.
func (t *Tracker) ListTransactions(ctx context.Context, companyID uuid.UUID, limit int) ([]repository.Transaction, error) {
	items, err := t.store.ListTransactions(ctx, companyID, limit)
	if err != nil {
		t.log.DatabaseError("budget.list_transactions", err)
		return nil, apperr.Unavailable(err)
	}
	return items, nil
}

// Invalidate drops the cached row of a company.
func (t *Tracker) Invalidate(ctx context.Context, companyID uuid.UUID) {
	t.invalidate(ctx, companyID)
}

func (t *Tracker) invalidate(ctx context.Context, companyID uuid.UUID) {
	if err := t.cache.Delete(ctx, companyID); err != nil {
		t.log.Warn("budget cache invalidation failed", "companyId", companyID, "error", err)
	}
}

// publishIfCrossed emits BudgetExceeded when status is over a limit that the
// last amount pushed it past.
func (t *Tracker) publishIfCrossed(ctx context.Context, status Status, amount int64) {
	if !status.IsBudgetExceeded {
		return
	}
	wasExceeded := status.DailySpent-amount >= status.DailyBudget || status.MonthlySpent-amount >= status.MonthlyBudget
	if wasExceeded {
		return
	}

	if t.metrics != nil {
		t.metrics.BudgetExceeded.Inc()
	}
	if t.bus == nil {
		return
	}
	t.bus.Publish(ctx, events.BudgetExceeded{
		BaseEvent:     events.NewBaseEvent(),
		CompanyID:     status.CompanyID,
		DailySpent:    status.DailySpent,
		DailyBudget:   status.DailyBudget,
		MonthlySpent:  status.MonthlySpent,
		MonthlyBudget: status.MonthlyBudget,
	})
}
