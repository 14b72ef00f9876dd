package adapters

import (
	"context"
	"time"

	"homni_backend/internal/budget"
	"homni_backend/internal/leads/ports"

	"github.com/google/uuid"
)

// BudgetGate exposes the budget tracker to lead distribution and purchases.
type BudgetGate struct {
	tracker *budget.Tracker
}

func NewBudgetGate(tracker *budget.Tracker) *BudgetGate {
	return &BudgetGate{tracker: tracker}
}

func (g *BudgetGate) GetBudget(ctx context.Context, companyID uuid.UUID) (ports.Budget, error) {
	status, err := g.tracker.GetBudgetStatus(ctx, companyID)
	if err != nil {
		return ports.Budget{}, err
	}
	return ports.Budget{
		Exceeded:         status.IsBudgetExceeded,
		RemainingDaily:   status.RemainingDaily,
		RemainingMonthly: status.RemainingMonthly,
	}, nil
}

func (g *BudgetGate) Today() time.Time {
	return g.tracker.Today()
}

func (g *BudgetGate) AfterDebit(ctx context.Context, companyID uuid.UUID, amount int64, kind string) {
	g.tracker.AfterDebit(ctx, companyID, amount, kind)
}

// Compile-time check.
var _ ports.BudgetGate = (*BudgetGate)(nil)
