// Package leads provides the lead lifecycle bounded context.
// This file defines the public API of the context. Other domains should
// depend on these interfaces, not on the concrete services.
package leads

import (
	"context"

	"homni_backend/internal/leads/distribution"

	"github.com/google/uuid"
)

// Linker attaches leads submitted without an account to a user.
type Linker interface {
	LinkAnonymousLeads(ctx context.Context, userID uuid.UUID, email string) (int, error)
}

// Distributor runs lead distribution. The scheduler worker calls it.
type Distributor interface {
	DistributeByID(ctx context.Context, leadID uuid.UUID) (*uuid.UUID, error)
	DistributeLeads(ctx context.Context) (distribution.Result, error)
}

var _ Distributor = (*distribution.Engine)(nil)
