package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/leadstest"
	"homni_backend/internal/leads/repository"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

const unexpectedLevelFmt = "expected %s, got %s"

func newLead(store *leadstest.Store, companyID *uuid.UUID) uuid.UUID {
	id := uuid.New()
	status := domain.StatusNew
	if companyID != nil {
		status = domain.StatusAssigned
	}
	store.PutLead(repository.Lead{ID: id, Title: "Bilforsikring", Category: "Forsikring", Status: status, CompanyID: companyID})
	return id
}

func TestResolveNoneWithoutGrantOrAssignment(t *testing.T) {
	store := leadstest.New()
	r := NewResolver(store, logger.Discard())
	leadID := newLead(store, nil)

	if got := r.Resolve(context.Background(), leadID, uuid.New()); got != domain.AccessNone {
		t.Fatalf(unexpectedLevelFmt, domain.AccessNone, got)
	}
	if got := r.Resolve(context.Background(), uuid.Nil, uuid.New()); got != domain.AccessNone {
		t.Fatalf(unexpectedLevelFmt, domain.AccessNone, got)
	}
	if got := r.Resolve(context.Background(), leadID, uuid.Nil); got != domain.AccessNone {
		t.Fatalf(unexpectedLevelFmt, domain.AccessNone, got)
	}
}

func TestResolveAssigneeHasAtLeastBasic(t *testing.T) {
	store := leadstest.New()
	r := NewResolver(store, logger.Discard())
	companyID := uuid.New()
	leadID := newLead(store, &companyID)

	if got := r.Resolve(context.Background(), leadID, companyID); got != domain.AccessBasic {
		t.Fatalf(unexpectedLevelFmt, domain.AccessBasic, got)
	}

	store.PutGrant(repository.ContactGrant{LeadID: leadID, CompanyID: companyID, Level: domain.AccessFull})
	if got := r.Refresh(context.Background(), leadID, companyID); got != domain.AccessFull {
		t.Fatalf(unexpectedLevelFmt, domain.AccessFull, got)
	}
}

func TestResolveExpiredGrantNeverGrantsContact(t *testing.T) {
	store := leadstest.New()
	r := NewResolver(store, logger.Discard())
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	assignee := uuid.New()
	leadID := newLead(store, &assignee)
	outsider := uuid.New()
	expired := now.Add(-time.Minute)

	for _, companyID := range []uuid.UUID{assignee, outsider} {
		store.PutGrant(repository.ContactGrant{LeadID: leadID, CompanyID: companyID, Level: domain.AccessFull, ExpiresAt: &expired})
	}

	if got := r.Resolve(context.Background(), leadID, assignee); got != domain.AccessBasic {
		t.Fatalf("expired grant should degrade assignee to basic, got %s", got)
	}
	if got := r.Resolve(context.Background(), leadID, outsider); got != domain.AccessNone {
		t.Fatalf("expired grant should degrade outsider to none, got %s", got)
	}

	future := now.Add(time.Hour)
	store.PutGrant(repository.ContactGrant{LeadID: leadID, CompanyID: outsider, Level: domain.AccessContact, ExpiresAt: &future})
	if got := r.Resolve(context.Background(), leadID, outsider); got != domain.AccessContact {
		t.Fatalf(unexpectedLevelFmt, domain.AccessContact, got)
	}
}

func TestResolveFailsClosedOnLookupError(t *testing.T) {
	store := leadstest.New()
	r := NewResolver(store, logger.Discard())
	companyID := uuid.New()
	leadID := newLead(store, &companyID)
	store.PutGrant(repository.ContactGrant{LeadID: leadID, CompanyID: companyID, Level: domain.AccessFull})

	store.ErrGrant = errors.New("connection reset")
	if got := r.Resolve(context.Background(), leadID, companyID); got != domain.AccessNone {
		t.Fatalf(unexpectedLevelFmt, domain.AccessNone, got)
	}

	store.ErrGrant = nil
	store.ErrGetLead = errors.New("connection reset")
	if got := r.Resolve(context.Background(), leadID, companyID); got != domain.AccessNone {
		t.Fatalf(unexpectedLevelFmt, domain.AccessNone, got)
	}
}
