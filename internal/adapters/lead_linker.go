package adapters

import (
	"context"

	authsvc "homni_backend/internal/auth/service"
	"homni_backend/internal/leads"

	"github.com/google/uuid"
)

// LeadLinker hands a user's anonymous submissions over to their account.
type LeadLinker struct {
	leads leads.Linker
}

func NewLeadLinker(l leads.Linker) *LeadLinker {
	return &LeadLinker{leads: l}
}

func (l *LeadLinker) LinkLeads(ctx context.Context, userID uuid.UUID, email string) (int, error) {
	return l.leads.LinkAnonymousLeads(ctx, userID, email)
}

var _ authsvc.LeadLinker = (*LeadLinker)(nil)
