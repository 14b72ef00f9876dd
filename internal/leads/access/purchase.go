package access

import (
	"context"
	"errors"
	"time"

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

// PurchaseStore is the write side of contact purchases.
type PurchaseStore interface {
	Store
	PurchaseContactAccess(ctx context.Context, params repository.PurchaseParams) (repository.ContactGrant, error)
	CompanyMatchesCategory(ctx context.Context, companyID uuid.UUID, category string) (bool, error)
}

// Service sells contact access to companies.
type Service struct {
	resolver *Resolver
	store    PurchaseStore
	budget   ports.BudgetGate
	pricing  config.PricingConfig
	bus      events.Bus
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

func NewService(resolver *Resolver, store PurchaseStore, budget ports.BudgetGate, pricing config.PricingConfig, bus events.Bus, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		resolver: resolver,
		store:    store,
		budget:   budget,
		pricing:  pricing,
		bus:      bus,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Result is the access a company holds after a purchase.
type Result struct {
	Level     domain.AccessLevel
	Charged   int64
	ExpiresAt *time.Time
}

// Price returns the cost of a purchasable level.
func (s *Service) Price(level domain.AccessLevel) int64 {
	if level == domain.AccessFull {
		return s.pricing.GetFullAccessPrice()
	}
	return s.pricing.GetContactAccessPrice()
}

// PurchaseAccess buys level on a lead for a company. Buying a level the
// company already holds charges nothing.
func (s *Service) PurchaseAccess(ctx context.Context, leadID, companyID uuid.UUID, level domain.AccessLevel) (Result, error) {
	if !level.IsPurchasable() {
		return Result{}, apperr.Validation("only contact or full access can be purchased")
	}

	lead, err := s.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return Result{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		s.log.DatabaseError("leads.purchase.get", err)
		return Result{}, apperr.Unavailable(err)
	}

	current := s.resolver.ResolveLead(ctx, lead, companyID)
	if current.AtLeast(level) {
		return Result{Level: current}, nil
	}

	if domain.IsTerminalStatus(lead.Status) {
		return Result{}, apperr.Conflict("lead is closed")
	}

	assignee := lead.CompanyID != nil && *lead.CompanyID == companyID
	if !assignee {
		matches, err := s.store.CompanyMatchesCategory(ctx, companyID, lead.Category)
		if err != nil {
			s.log.DatabaseError("leads.purchase.eligibility", err)
			return Result{}, apperr.Unavailable(err)
		}
		if !matches {
			return Result{}, apperr.Forbidden("company is not eligible for this lead")
		}
	}

	price := s.Price(level)
	b, err := s.budget.GetBudget(ctx, companyID)
	if err != nil {
		return Result{}, err
	}
	if !b.CanAfford(price) {
		return Result{}, apperr.Conflict("budget exhausted").WithDetails(map[string]any{"price": price})
	}

	var expiresAt *time.Time
	if ttl := s.pricing.GetContactGrantTTL(); ttl > 0 {
		t := s.now().Add(ttl)
		expiresAt = &t
	}

	grant, err := s.store.PurchaseContactAccess(ctx, repository.PurchaseParams{
		LeadID:    leadID,
		CompanyID: companyID,
		Level:     level,
		Price:     price,
		ExpiresAt: expiresAt,
		Today:     s.budget.Today(),
	})
	if errors.Is(err, repository.ErrBudgetExhausted) {
		return Result{}, apperr.Conflict("budget exhausted").WithDetails(map[string]any{"price": price})
	}
	if err != nil {
		s.log.DatabaseError("leads.purchase", err)
		return Result{}, apperr.Unavailable(err)
	}

	s.budget.AfterDebit(ctx, companyID, price, budgetrepo.KindContactPurchase)
	if s.metrics != nil {
		s.metrics.ContactPurchases.WithLabelValues(string(level)).Inc()
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.ContactAccessPurchased{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    leadID,
			CompanyID: companyID,
			Level:     string(grant.Level),
			Price:     price,
		})
	}

	return Result{
		Level:     domain.MaxAccess(current, grant.Level),
		Charged:   price,
		ExpiresAt: grant.ExpiresAt,
	}, nil
}
