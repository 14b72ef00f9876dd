// Package transitions applies user-driven lead status changes.
package transitions

import (
	"context"
	"errors"
	"fmt"

	"homni_backend/internal/events"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/ports"
	"homni_backend/internal/leads/repository"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"

	"github.com/google/uuid"
)

const opUpdateStatus = "leads.UpdateStatus"

// Service handles status transitions.
type Service struct {
	repo    repository.StatusUpdater
	bus     events.Bus
	metrics *metrics.Metrics
	log     *logger.Logger
}

func New(repo repository.StatusUpdater, bus events.Bus, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, metrics: m, log: log}
}

// UpdateStatus moves a lead to rawStatus on behalf of actor.
//
// Only admins and members of the assigned company may change a lead. The
// write is a compare-and-swap on the status the service read, so two
// concurrent updates cannot both apply against the same starting state.
func (s *Service) UpdateStatus(ctx context.Context, leadID uuid.UUID, rawStatus string, actor ports.Actor) (repository.Lead, error) {
	target, ok := domain.ParseStatus(rawStatus)
	if !ok {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown status %q", rawStatus)).WithOp(opUpdateStatus)
	}

	lead, err := s.repo.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		s.log.DatabaseError("leads.transitions.get", err)
		return repository.Lead{}, apperr.Unavailable(err)
	}

	if !actor.IsAdmin() && !actor.BelongsTo(lead.CompanyID) {
		return repository.Lead{}, apperr.Forbidden("only the assigned company can update this lead").WithOp(opUpdateStatus)
	}

	if lead.Status == target {
		return lead, nil
	}
	if !domain.CanTransition(lead.Status, target) {
		return repository.Lead{}, apperr.Conflict(fmt.Sprintf("cannot move lead from %s to %s", lead.Status, target)).
			WithOp(opUpdateStatus).
			WithDetails(map[string]any{"from": lead.Status, "to": target, "allowed": domain.NextStatuses(lead.Status)})
	}

	updated, err := s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		LeadID:  lead.ID,
		From:    lead.Status,
		To:      target,
		ActorID: actor.UserID,
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		return repository.Lead{}, apperr.Conflict("lead status changed concurrently").WithOp(opUpdateStatus)
	}
	if err != nil {
		s.log.DatabaseError("leads.transitions.update", err)
		return repository.Lead{}, apperr.Unavailable(err)
	}

	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(target)).Inc()
	}
	s.log.Info("lead status changed", "leadId", lead.ID, "from", lead.Status, "to", target, "actorId", actor.UserID)
	s.publish(ctx, lead.Status, updated, actor.UserID)

	return updated, nil
}

func (s *Service) publish(ctx context.Context, from domain.Status, lead repository.Lead, actorID uuid.UUID) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		CompanyID:     lead.CompanyID,
		ActorID:       actorID,
		OldStatus:     string(from),
		NewStatus:     string(lead.Status),
		PipelineStage: string(lead.PipelineStage),
		LeadTitle:     lead.Title,
		CustomerName:  deref(lead.CustomerName),
		CustomerEmail: deref(lead.CustomerEmail),
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
