package transitions

import (
	"context"
	"errors"
	"testing"

	"homni_backend/internal/events"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/leadstest"
	"homni_backend/internal/leads/ports"
	"homni_backend/internal/leads/repository"
	"homni_backend/internal/shared/roles"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"

	"github.com/google/uuid"
)

const statusChangedEvent = "leads.status.changed"

func setup(t *testing.T, status domain.Status) (*Service, *leadstest.Store, *leadstest.Bus, repository.Lead, ports.Actor) {
	t.Helper()
	store := leadstest.New()
	bus := &leadstest.Bus{}
	companyID := uuid.New()
	name := "Kari Nordmann"
	lead := repository.Lead{
		ID:           uuid.New(),
		Title:        "Innboforsikring",
		Category:     "Forsikring",
		Status:       status,
		CompanyID:    &companyID,
		CustomerName: &name,
	}
	store.PutLead(lead)
	stored, _ := store.GetByID(context.Background(), lead.ID)
	member := ports.Actor{UserID: uuid.New(), Roles: []roles.Role{roles.CompanyUser}, CompanyID: &companyID}
	return New(store, bus, metrics.New(), logger.Discard()), store, bus, stored, member
}

func TestUpdateStatusFollowsTransitionTable(t *testing.T) {
	for _, from := range domain.AllStatuses {
		for _, to := range domain.AllStatuses {
			if from == to || from == domain.StatusNew {
				continue
			}
			svc, _, _, lead, actor := setup(t, from)
			_, err := svc.UpdateStatus(context.Background(), lead.ID, string(to), actor)
			allowed := domain.CanTransition(from, to)
			if allowed && err != nil {
				t.Fatalf("%s -> %s: unexpected error %v", from, to, err)
			}
			if !allowed && !apperr.Is(err, apperr.KindConflict) {
				t.Fatalf("%s -> %s: expected conflict, got %v", from, to, err)
			}
		}
	}
}

func TestUpdateStatusWritesStageHistoryAndEvent(t *testing.T) {
	svc, store, bus, lead, actor := setup(t, domain.StatusAssigned)

	updated, err := svc.UpdateStatus(context.Background(), lead.ID, "Vunnet", actor)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.StatusWon || updated.PipelineStage != domain.PipelineStageWon {
		t.Fatalf("unexpected lead: %+v", updated)
	}

	history, _ := store.ListStatusHistory(context.Background(), lead.ID)
	if len(history) != 1 || history[0].FromStatus != domain.StatusAssigned || history[0].ToStatus != domain.StatusWon {
		t.Fatalf("unexpected history: %+v", history)
	}

	published := bus.Named(statusChangedEvent)
	if len(published) != 1 {
		t.Fatalf("expected one event, got %d", len(published))
	}
	e := published[0].(events.LeadStatusChanged)
	if e.OldStatus != "assigned" || e.NewStatus != "won" || e.CustomerName != "Kari Nordmann" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	tests := []struct {
		status domain.Status
		input  string
	}{
		{domain.StatusAssigned, "assigned"},
		{domain.StatusInProgress, "in_progress"},
		{domain.StatusWon, "won"},
		{domain.StatusWon, "✅ Vunnet"},
		{domain.StatusLost, "lost"},
		{domain.StatusCompleted, "completed"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			svc, store, bus, lead, actor := setup(t, tt.status)

			got, err := svc.UpdateStatus(context.Background(), lead.ID, tt.input, actor)
			if err != nil || got.Status != tt.status {
				t.Fatalf("expected idempotent success, got %v %v", got.Status, err)
			}
			if history, _ := store.ListStatusHistory(context.Background(), lead.ID); len(history) != 0 {
				t.Fatalf("no history expected, got %d rows", len(history))
			}
			if len(bus.Named(statusChangedEvent)) != 0 {
				t.Fatal("no event expected")
			}
		})
	}
}

func TestUpdateStatusRejections(t *testing.T) {
	svc, _, _, lead, member := setup(t, domain.StatusAssigned)
	ctx := context.Background()

	tests := []struct {
		name   string
		leadID uuid.UUID
		status string
		actor  ports.Actor
		want   apperr.Kind
	}{
		{"unknown target", lead.ID, "archived", member, apperr.KindValidation},
		{"missing lead", uuid.New(), "won", member, apperr.KindNotFound},
		{"other company", lead.ID, "won", ports.Actor{UserID: uuid.New(), Roles: []roles.Role{roles.CompanyAdmin}, CompanyID: ptr(uuid.New())}, apperr.KindForbidden},
		{"customer", lead.ID, "won", ports.Actor{UserID: uuid.New(), Roles: []roles.Role{roles.User}}, apperr.KindForbidden},
		{"distribution only", lead.ID, "new", member, apperr.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateStatus(ctx, tt.leadID, tt.status, tt.actor)
			if !apperr.Is(err, tt.want) {
				t.Fatalf("expected %s, got %v", tt.want, err)
			}
		})
	}
}

func TestAdminMayUpdateAnyLead(t *testing.T) {
	svc, _, _, lead, _ := setup(t, domain.StatusAssigned)
	admin := ports.Actor{UserID: uuid.New(), Roles: []roles.Role{roles.Admin}}

	if _, err := svc.UpdateStatus(context.Background(), lead.ID, "lost", admin); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestConcurrentUpdateLosesCAS(t *testing.T) {
	svc, store, _, lead, actor := setup(t, domain.StatusAssigned)

	store.BeforeWrite = func() {
		store.BeforeWrite = nil
		if _, err := store.UpdateStatus(context.Background(), repository.UpdateStatusParams{
			LeadID: lead.ID, From: domain.StatusAssigned, To: domain.StatusLost, ActorID: uuid.New(),
		}); err != nil {
			t.Errorf("competing update: %v", err)
		}
	}

	_, err := svc.UpdateStatus(context.Background(), lead.ID, "won", actor)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	current, _ := store.GetByID(context.Background(), lead.ID)
	if current.Status != domain.StatusLost || current.PipelineStage != domain.PipelineStageLost {
		t.Fatalf("competing write must survive intact: %+v", current)
	}
}

func TestStoreFailureIsUnavailable(t *testing.T) {
	svc, store, _, lead, actor := setup(t, domain.StatusAssigned)
	store.ErrGetLead = errors.New("connection refused")

	_, err := svc.UpdateStatus(context.Background(), lead.ID, "won", actor)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
