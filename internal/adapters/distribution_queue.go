package adapters

import (
	"context"

	"homni_backend/internal/leads/ports"
	"homni_backend/internal/scheduler"

	"github.com/google/uuid"
)

// DistributionQueue defers distribution of new leads to the asynq worker.
type DistributionQueue struct {
	client *scheduler.Client
}

func NewDistributionQueue(client *scheduler.Client) *DistributionQueue {
	return &DistributionQueue{client: client}
}

func (q *DistributionQueue) EnqueueDistributeLead(ctx context.Context, leadID uuid.UUID) error {
	return q.client.EnqueueDistributeLead(ctx, leadID)
}

var _ ports.DistributionQueue = (*DistributionQueue)(nil)
