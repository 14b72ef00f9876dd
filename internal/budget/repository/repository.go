// Package repository persists company budgets and the spend ledger.
package repository

import (
	"context"
	"errors"
	"time"

	"homni_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("budget not found")
	ErrBudgetExhausted = errors.New("budget cannot cover amount")
)

// Spend kinds recorded in budget_transactions.
const (
	KindLeadAssignment  = "lead_assignment"
	KindContactPurchase = "contact_purchase"
	KindManual          = "manual"
)

// Account is the raw budget row of a company.
type Account struct {
	CompanyID          uuid.UUID `json:"companyId"`
	CurrentBudget      int64     `json:"currentBudget"`
	DailyBudget        int64     `json:"dailyBudget"`
	MonthlyBudget      int64     `json:"monthlyBudget"`
	DailySpent         int64     `json:"dailySpent"`
	MonthlySpent       int64     `json:"monthlySpent"`
	DailyWindowStart   time.Time `json:"dailyWindowStart"`
	MonthlyWindowStart time.Time `json:"monthlyWindowStart"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Limits are the admin-controlled budget amounts.
type Limits struct {
	CurrentBudget int64
	DailyBudget   int64
	MonthlyBudget int64
}

// SpendParams describes one spend. Today is the calendar date in the budget
// timezone and decides whether stale windows roll over first.
type SpendParams struct {
	CompanyID uuid.UUID
	LeadID    *uuid.UUID
	Amount    int64
	Kind      string
	Today     time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `company_id, current_budget, daily_budget, monthly_budget, daily_spent, monthly_spent,
	daily_window_start, monthly_window_start, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.CompanyID, &a.CurrentBudget, &a.DailyBudget, &a.MonthlyBudget, &a.DailySpent, &a.MonthlySpent,
		&a.DailyWindowStart, &a.MonthlyWindowStart, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return a, err
}

func (r *Repository) Get(ctx context.Context, companyID uuid.UUID) (Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM company_budgets WHERE company_id = $1`, companyID))
}

// Ensure creates an empty budget row for a company if none exists.
func Ensure(ctx context.Context, q db.Querier, companyID uuid.UUID) error {
	_, err := q.Exec(ctx, `INSERT INTO company_budgets (company_id) VALUES ($1) ON CONFLICT (company_id) DO NOTHING`, companyID)
	return err
}

func (r *Repository) SetLimits(ctx context.Context, companyID uuid.UUID, limits Limits) (Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		INSERT INTO company_budgets (company_id, current_budget, daily_budget, monthly_budget)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id) DO UPDATE SET
			current_budget = EXCLUDED.current_budget,
			daily_budget = EXCLUDED.daily_budget,
			monthly_budget = EXCLUDED.monthly_budget,
			updated_at = now()
		RETURNING `+accountColumns,
		companyID, limits.CurrentBudget, limits.DailyBudget, limits.MonthlyBudget))
}

// RecordSpend adds an amount unconditionally and writes a ledger row.
func (r *Repository) RecordSpend(ctx context.Context, params SpendParams) (Account, error) {
	var account Account
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		account, err = scanAccount(tx.QueryRow(ctx, `
			UPDATE company_budgets SET
				daily_spent = (CASE WHEN daily_window_start < $3::date THEN 0 ELSE daily_spent END) + $2,
				monthly_spent = (CASE WHEN monthly_window_start < date_trunc('month', $3::date)::date THEN 0 ELSE monthly_spent END) + $2,
				daily_window_start = GREATEST(daily_window_start, $3::date),
				monthly_window_start = GREATEST(monthly_window_start, date_trunc('month', $3::date)::date),
				updated_at = now()
			WHERE company_id = $1
			RETURNING `+accountColumns,
			params.CompanyID, params.Amount, params.Today))
		if err != nil {
			return err
		}
		return insertLedger(ctx, tx, params)
	})
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

// Debit spends an amount only when both windows can cover it, and writes a
// ledger row. It is meant to run inside the caller's transaction so the spend
// commits or rolls back with the work it pays for.
func Debit(ctx context.Context, q db.Querier, params SpendParams) error {
	tag, err := q.Exec(ctx, `
		UPDATE company_budgets SET
			daily_spent = (CASE WHEN daily_window_start < $3::date THEN 0 ELSE daily_spent END) + $2,
			monthly_spent = (CASE WHEN monthly_window_start < date_trunc('month', $3::date)::date THEN 0 ELSE monthly_spent END) + $2,
			daily_window_start = GREATEST(daily_window_start, $3::date),
			monthly_window_start = GREATEST(monthly_window_start, date_trunc('month', $3::date)::date),
			updated_at = now()
		WHERE company_id = $1
			AND (CASE WHEN daily_window_start < $3::date THEN 0 ELSE daily_spent END) + $2 <= daily_budget
			AND (CASE WHEN monthly_window_start < date_trunc('month', $3::date)::date THEN 0 ELSE monthly_spent END) + $2 <= monthly_budget
	`, params.CompanyID, params.Amount, params.Today)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBudgetExhausted
	}
	return insertLedger(ctx, q, params)
}

func insertLedger(ctx context.Context, q db.Querier, params SpendParams) error {
	_, err := q.Exec(ctx, `
		INSERT INTO budget_transactions (company_id, lead_id, amount, kind)
		VALUES ($1, $2, $3, $4)
	`, params.CompanyID, params.LeadID, params.Amount, params.Kind)
	return err
}

// ResetWindows zeroes spend for windows that started before today (daily) or
// before this month (monthly). Returns the number of rows touched.
func (r *Repository) ResetWindows(ctx context.Context, today time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE company_budgets SET
			daily_spent = CASE WHEN daily_window_start < $1::date THEN 0 ELSE daily_spent END,
			daily_window_start = GREATEST(daily_window_start, $1::date),
			monthly_spent = CASE WHEN monthly_window_start < date_trunc('month', $1::date)::date THEN 0 ELSE monthly_spent END,
			monthly_window_start = GREATEST(monthly_window_start, date_trunc('month', $1::date)::date),
			updated_at = now()
		WHERE daily_window_start < $1::date
			OR monthly_window_start < date_trunc('month', $1::date)::date
	`, today)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Transaction is one ledger entry.
type Transaction struct {
	ID        uuid.UUID  `json:"id"`
	CompanyID uuid.UUID  `json:"companyId"`
	LeadID    *uuid.UUID `json:"leadId,omitempty"`
	Amount    int64      `json:"amount"`
	Kind      string     `json:"kind"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (r *Repository) ListTransactions(ctx context.Context, companyID uuid.UUID, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, company_id, lead_id, amount, kind, created_at
		FROM budget_transactions
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Transaction, 0)
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.LeadID, &t.Amount, &t.Kind, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
