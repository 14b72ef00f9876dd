// Package access resolves how much of a lead's contact information a company
// may see, and sells higher access levels.
package access

import (
	"context"
	"time"

	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/repository"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the read side the resolver needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	GetContactGrant(ctx context.Context, leadID, companyID uuid.UUID) (*repository.ContactGrant, error)
}

// Resolver computes effective access levels. It never writes.
type Resolver struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

func NewResolver(store Store, log *logger.Logger) *Resolver {
	return &Resolver{store: store, log: log, now: time.Now}
}

// Resolve returns the higher of the assignment level and any unexpired
// purchased grant. Missing ids and lookup failures yield none.
func (r *Resolver) Resolve(ctx context.Context, leadID, companyID uuid.UUID) domain.AccessLevel {
	if leadID == uuid.Nil || companyID == uuid.Nil {
		return domain.AccessNone
	}

	lead, err := r.store.GetByID(ctx, leadID)
	if err != nil {
		r.log.Warn("contact access lookup failed", "leadId", leadID, "companyId", companyID, "source", "lead", "error", err)
		return domain.AccessNone
	}
	return r.resolveFor(ctx, lead, companyID)
}

// ResolveLead is Resolve for a lead the caller already loaded.
func (r *Resolver) ResolveLead(ctx context.Context, lead repository.Lead, companyID uuid.UUID) domain.AccessLevel {
	if lead.ID == uuid.Nil || companyID == uuid.Nil {
		return domain.AccessNone
	}
	return r.resolveFor(ctx, lead, companyID)
}

// Refresh re-runs the computation against the store.
func (r *Resolver) Refresh(ctx context.Context, leadID, companyID uuid.UUID) domain.AccessLevel {
	return r.Resolve(ctx, leadID, companyID)
}

func (r *Resolver) resolveFor(ctx context.Context, lead repository.Lead, companyID uuid.UUID) domain.AccessLevel {
	assigned := domain.AccessNone
	if lead.CompanyID != nil && *lead.CompanyID == companyID {
		assigned = domain.AccessBasic
	}

	grant, err := r.store.GetContactGrant(ctx, lead.ID, companyID)
	if err != nil {
		r.log.Warn("contact access lookup failed", "leadId", lead.ID, "companyId", companyID, "source", "grant", "error", err)
		return domain.AccessNone
	}

	purchased := domain.AccessNone
	if grant != nil && grant.Active(r.now()) {
		purchased = grant.Level
	}

	return domain.MaxAccess(assigned, purchased)
}
