// Package ports defines the interfaces that the leads domain requires from
// other bounded contexts. Implementations live in internal/adapters and are
// wired by the composition root, so leads never imports companies or budget
// services directly.
package ports

import (
	"context"

	"homni_backend/internal/shared/roles"

	"github.com/google/uuid"
)

// Actor is the caller of a lead operation.
type Actor struct {
	UserID    uuid.UUID
	Roles     []roles.Role
	CompanyID *uuid.UUID
}

// IsAdmin reports whether the actor administers the platform.
func (a Actor) IsAdmin() bool {
	return roles.IsAdmin(a.Roles)
}

// BelongsTo reports whether the actor is a member of companyID.
func (a Actor) BelongsTo(companyID *uuid.UUID) bool {
	return a.CompanyID != nil && companyID != nil && *a.CompanyID == *companyID
}

// CompanyResolver finds the company a user works for.
type CompanyResolver interface {
	// CompanyIDForUser returns nil when the user is not a company member.
	CompanyIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
}
