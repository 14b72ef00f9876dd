package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Budget is the part of a company budget the leads domain cares about.
type Budget struct {
	Exceeded         bool
	RemainingDaily   int64
	RemainingMonthly int64
}

// CanAfford reports whether both windows can absorb amount.
func (b Budget) CanAfford(amount int64) bool {
	return !b.Exceeded && amount <= b.RemainingDaily && amount <= b.RemainingMonthly
}

// BudgetGate exposes budget state to distribution and purchases.
type BudgetGate interface {
	GetBudget(ctx context.Context, companyID uuid.UUID) (Budget, error)
	// Today is the current date in the budget timezone, used for window roll-over.
	Today() time.Time
	// AfterDebit runs once a debit committed inside a leads transaction.
	AfterDebit(ctx context.Context, companyID uuid.UUID, amount int64, kind string)
}
