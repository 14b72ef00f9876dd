// Package distribution assigns new leads to eligible companies.
//
// A company is eligible for a lead when it is active, carries the lead's
// category as a tag, is not paused, can pay the lead price without exceeding
// either budget window, and has not been assigned the lead before. Among
// eligible companies the one assigned least recently wins; ties go to the
// lowest company id. Each lead goes to exactly one company.
package distribution

import (
	"context"
	"errors"
	"strings"

	budgetrepo "homni_backend/internal/budget/repository"
	"homni_backend/internal/events"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/ports"
	"homni_backend/internal/leads/repository"
	"homni_backend/platform/apperr"
	"homni_backend/platform/config"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"

	"github.com/google/uuid"
)

// Result summarizes a batch run.
type Result struct {
	AssignedCount int               `json:"assignedCount"`
	Leads         []repository.Lead `json:"-"`
	Skipped       int               `json:"skipped"`
	Failed        int               `json:"failed"`
}

// Engine runs distribution.
type Engine struct {
	store   repository.DistributionStore
	budget  ports.BudgetGate
	cfg     config.DistributionConfig
	bus     events.Bus
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewEngine(store repository.DistributionStore, budget ports.BudgetGate, cfg config.DistributionConfig, bus events.Bus, m *metrics.Metrics, log *logger.Logger) *Engine {
	return &Engine{store: store, budget: budget, cfg: cfg, bus: bus, metrics: m, log: log}
}

// DistributeLeads assigns every unassigned lead it can, oldest first. A lead
// that cannot be placed, or fails, does not stop the batch.
func (e *Engine) DistributeLeads(ctx context.Context) (Result, error) {
	leads, err := e.store.ListUnassigned(ctx, e.cfg.GetDistributionBatchSize())
	if err != nil {
		e.log.DatabaseError("leads.distribution.list_unassigned", err)
		return Result{}, apperr.Unavailable(err)
	}

	result := Result{Leads: make([]repository.Lead, 0)}
	for _, lead := range leads {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		assigned, err := e.distribute(ctx, lead)
		switch {
		case err != nil:
			result.Failed++
			e.log.Error("lead distribution failed", "leadId", lead.ID, "error", err)
		case assigned == nil:
			result.Skipped++
		default:
			result.AssignedCount++
			result.Leads = append(result.Leads, *assigned)
		}
	}

	e.log.Info("lead distribution finished",
		"candidates", len(leads), "assigned", result.AssignedCount, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// DistributeOne assigns a single lead and returns the chosen company, or nil
// when no company is eligible or another run assigned the lead first.
func (e *Engine) DistributeOne(ctx context.Context, lead repository.Lead) (*uuid.UUID, error) {
	assigned, err := e.distribute(ctx, lead)
	if err != nil || assigned == nil {
		return nil, err
	}
	return assigned.CompanyID, nil
}

// DistributeByID loads a lead and distributes it.
func (e *Engine) DistributeByID(ctx context.Context, leadID uuid.UUID) (*uuid.UUID, error) {
	lead, err := e.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		e.log.DatabaseError("leads.distribution.get", err)
		return nil, apperr.Unavailable(err)
	}
	return e.DistributeOne(ctx, lead)
}

func (e *Engine) distribute(ctx context.Context, lead repository.Lead) (*repository.Lead, error) {
	if !domain.CanDistribute(lead.Status) || lead.CompanyID != nil {
		return nil, nil
	}

	candidates, err := e.eligibleCompanies(ctx, lead)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		e.countUnassigned()
		e.log.Info("no eligible company for lead", "leadId", lead.ID, "category", lead.Category)
		return nil, nil
	}

	price := e.cfg.GetLeadPrice()
	for _, c := range candidates {
		assigned, err := e.store.AssignToCompany(ctx, repository.AssignParams{
			LeadID:    lead.ID,
			CompanyID: c.CompanyID,
			Cost:      price,
			Today:     e.budget.Today(),
		})
		switch {
		case errors.Is(err, repository.ErrLeadTaken):
			if e.metrics != nil {
				e.metrics.AssignmentRaces.Inc()
			}
			e.log.Info("lead already assigned by another run", "leadId", lead.ID)
			return nil, nil
		case errors.Is(err, repository.ErrBudgetExhausted):
			e.log.Info("company budget exhausted during assignment", "leadId", lead.ID, "companyId", c.CompanyID)
			continue
		case err != nil:
			return nil, err
		}

		e.afterAssign(ctx, assigned, c, price)
		return &assigned, nil
	}

	e.countUnassigned()
	return nil, nil
}

// eligibleCompanies returns candidates in selection order.
func (e *Engine) eligibleCompanies(ctx context.Context, lead repository.Lead) ([]repository.Candidate, error) {
	candidates, err := e.store.ListCandidates(ctx, lead.Category)
	if err != nil {
		return nil, err
	}
	previous, err := e.store.ListAssignedCompanyIDs(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]struct{}, len(previous))
	for _, id := range previous {
		seen[id] = struct{}{}
	}

	price := e.cfg.GetLeadPrice()
	out := make([]repository.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Status != "active" || c.DistributionPaused || !hasTag(c.Tags, lead.Category) {
			continue
		}
		if _, ok := seen[c.CompanyID]; ok {
			continue
		}
		b, err := e.budget.GetBudget(ctx, c.CompanyID)
		if err != nil {
			e.log.Warn("budget lookup failed, skipping company", "companyId", c.CompanyID, "error", err)
			continue
		}
		if b.Exceeded || !b.CanAfford(price) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (e *Engine) afterAssign(ctx context.Context, lead repository.Lead, c repository.Candidate, price int64) {
	e.budget.AfterDebit(ctx, c.CompanyID, price, budgetrepo.KindLeadAssignment)
	if e.metrics != nil {
		e.metrics.LeadsAssigned.Inc()
	}
	e.log.Info("lead assigned", "leadId", lead.ID, "companyId", c.CompanyID, "cost", price)

	if e.bus == nil {
		return
	}
	email := ""
	if c.ContactEmail != nil {
		email = *c.ContactEmail
	}
	e.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		CompanyID:    c.CompanyID,
		Cost:         price,
		LeadTitle:    lead.Title,
		Category:     lead.Category,
		CompanyName:  c.Name,
		CompanyEmail: email,
	})
}

func (e *Engine) countUnassigned() {
	if e.metrics != nil {
		e.metrics.LeadsUnassigned.Inc()
	}
}

func hasTag(tags []string, category string) bool {
	for _, t := range tags {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(category)) {
			return true
		}
	}
	return false
}
