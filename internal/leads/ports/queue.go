package ports

import (
	"context"

	"github.com/google/uuid"
)

// DistributionQueue hands a newly created lead to the background worker.
type DistributionQueue interface {
	EnqueueDistributeLead(ctx context.Context, leadID uuid.UUID) error
}
