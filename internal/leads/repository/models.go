package repository

import (
	"time"

	"homni_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Lead is a stored service request. Status is always canonical.
type Lead struct {
	ID            uuid.UUID
	Title         string
	Description   string
	Category      string
	LeadType      string
	Status        domain.Status
	PipelineStage domain.PipelineStage
	CustomerName  *string
	CustomerEmail *string
	CustomerPhone *string
	ServiceType   *string
	SubmittedBy   *uuid.UUID
	CompanyID     *uuid.UUID
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateLeadParams struct {
	Title         string
	Description   string
	Category      string
	LeadType      string
	Status        domain.Status
	CustomerName  *string
	CustomerEmail *string
	CustomerPhone *string
	ServiceType   *string
	SubmittedBy   *uuid.UUID
	Metadata      map[string]any
}

// ListParams filters lead lists. Scope fields restrict the result to what an
// actor may see; nil scope fields mean unrestricted.
type ListParams struct {
	Status      *domain.Status
	Category    string
	CompanyID   *uuid.UUID
	SubmittedBy *uuid.UUID
	Offset      int
	Limit       int
}

// StatusChange is one row of a lead's status history.
type StatusChange struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	FromStatus domain.Status
	ToStatus   domain.Status
	ActorID    *uuid.UUID
	CreatedAt  time.Time
}

// AssignParams describes a distribution assignment.
type AssignParams struct {
	LeadID    uuid.UUID
	CompanyID uuid.UUID
	Cost      int64
	Today     time.Time
}

// UpdateStatusParams describes a user-driven transition. From is the status
// the caller observed and is checked atomically.
type UpdateStatusParams struct {
	LeadID  uuid.UUID
	From    domain.Status
	To      domain.Status
	ActorID uuid.UUID
}

// ContactGrant is a purchased access level.
type ContactGrant struct {
	LeadID      uuid.UUID
	CompanyID   uuid.UUID
	Level       domain.AccessLevel
	PurchasedAt time.Time
	ExpiresAt   *time.Time
}

// Active reports whether the grant still applies at now.
func (g ContactGrant) Active(now time.Time) bool {
	return g.ExpiresAt == nil || now.Before(*g.ExpiresAt)
}

type PurchaseParams struct {
	LeadID    uuid.UUID
	CompanyID uuid.UUID
	Level     domain.AccessLevel
	Price     int64
	ExpiresAt *time.Time
	Today     time.Time
}

// Candidate is a company whose tags match a lead category.
type Candidate struct {
	CompanyID          uuid.UUID
	Name               string
	Status             string
	Tags               []string
	ContactEmail       *string
	DistributionPaused bool
	LastAssignedAt     *time.Time
}
