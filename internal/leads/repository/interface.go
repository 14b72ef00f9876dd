package repository

import (
	"context"

	"homni_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
	ListStatusHistory(ctx context.Context, leadID uuid.UUID) ([]StatusChange, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	LinkAnonymousLeads(ctx context.Context, userID uuid.UUID, email string) (int, error)
}

// StatusUpdater applies user-driven transitions.
type StatusUpdater interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (Lead, error)
}

// DistributionStore is what the distribution engine reads and writes.
type DistributionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	ListUnassigned(ctx context.Context, limit int) ([]Lead, error)
	ListCandidates(ctx context.Context, category string) ([]Candidate, error)
	ListAssignedCompanyIDs(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error)
	AssignToCompany(ctx context.Context, params AssignParams) (Lead, error)
}

// AccessStore backs the contact-access resolver.
type AccessStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	GetContactGrant(ctx context.Context, leadID, companyID uuid.UUID) (*ContactGrant, error)
	PurchaseContactAccess(ctx context.Context, params PurchaseParams) (ContactGrant, error)
	CompanyMatchesCategory(ctx context.Context, companyID uuid.UUID, category string) (bool, error)
}

// StatusRewriter moves legacy status values in storage onto the canonical set.
type StatusRewriter interface {
	ListNonCanonicalStatuses(ctx context.Context) ([]string, error)
	RewriteStatus(ctx context.Context, raw string, status domain.Status) (int64, error)
}

// LeadsRepository defines the complete interface for leads data operations.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	StatusUpdater
	DistributionStore
	AccessStore
	StatusRewriter
}

var _ LeadsRepository = (*Repository)(nil)
