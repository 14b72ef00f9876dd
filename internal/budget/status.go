// Package budget tracks daily and monthly spend per company and exposes the
// exceeded and remaining state that gates lead distribution.
package budget

import (
	"time"

	"homni_backend/internal/budget/repository"

	"github.com/google/uuid"
)

// Status is the derived budget state of a company. It is computed from the
// raw account on every read.
type Status struct {
	CompanyID        uuid.UUID `json:"companyId"`
	CurrentBudget    int64     `json:"currentBudget"`
	DailyBudget      int64     `json:"dailyBudget"`
	MonthlyBudget    int64     `json:"monthlyBudget"`
	DailySpent       int64     `json:"dailySpent"`
	MonthlySpent     int64     `json:"monthlySpent"`
	RemainingDaily   int64     `json:"remainingDaily"`
	RemainingMonthly int64     `json:"remainingMonthly"`
	IsBudgetExceeded bool      `json:"isBudgetExceeded"`
	NextResetDate    time.Time `json:"nextResetDate"`
}

// CanAfford reports whether both windows can absorb amount.
func (s Status) CanAfford(amount int64) bool {
	if s.IsBudgetExceeded {
		return false
	}
	return amount <= s.RemainingDaily && amount <= s.RemainingMonthly
}

// ComputeStatus derives the status at now. Spend from windows that ended
// before now counts as zero, so a missed reset never blocks a company.
func ComputeStatus(a repository.Account, now time.Time, loc *time.Location) Status {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := DateOf(local)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	dailySpent := a.DailySpent
	if a.DailyWindowStart.Before(today) {
		dailySpent = 0
	}
	monthlySpent := a.MonthlySpent
	if a.MonthlyWindowStart.Before(monthStart) {
		monthlySpent = 0
	}

	s := Status{
		CompanyID:        a.CompanyID,
		CurrentBudget:    a.CurrentBudget,
		DailyBudget:      a.DailyBudget,
		MonthlyBudget:    a.MonthlyBudget,
		DailySpent:       dailySpent,
		MonthlySpent:     monthlySpent,
		RemainingDaily:   clampZero(a.DailyBudget - dailySpent),
		RemainingMonthly: clampZero(a.MonthlyBudget - monthlySpent),
		NextResetDate:    NextReset(local, loc),
	}
	s.IsBudgetExceeded = dailySpent >= a.DailyBudget || monthlySpent >= a.MonthlyBudget
	return s
}

// NextReset returns the next local midnight after now.
func NextReset(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}

// DateOf returns the calendar date of t as UTC midnight, the representation
// used for DATE columns.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clampZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
