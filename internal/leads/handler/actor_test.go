package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"homni_backend/internal/leads/access"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/leadstest"
	"homni_backend/internal/leads/repository"
	"homni_backend/internal/leads/transitions"
	"homni_backend/platform/httpkit"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"
	"homni_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type staticCompanies struct {
	byUser map[uuid.UUID]uuid.UUID
	err    error
}

func (s staticCompanies) CompanyIDForUser(_ context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	if s.err != nil {
		return nil, s.err
	}
	id, ok := s.byUser[userID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func newStatusEngine(store *leadstest.Store, companies staticCompanies, userID uuid.UUID, tokenRoles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	h := New(Deps{
		Transitions: transitions.New(store, &leadstest.Bus{}, metrics.New(), log),
		Resolver:    access.NewResolver(store, log),
		Companies:   companies,
		Validator:   validator.New(),
	})

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, userID)
		c.Set(httpkit.ContextRolesKey, tokenRoles)
		c.Next()
	})
	engine.PATCH("/leads/:id/status", h.UpdateStatus)
	return engine
}

func patchStatus(engine http.Handler, leadID uuid.UUID, status string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/leads/"+leadID.String()+"/status", strings.NewReader(`{"status":"`+status+`"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)
	return rec
}

func TestMembershipIsResolvedWithoutCompanyRoleInToken(t *testing.T) {
	store := leadstest.New()
	companyID := store.AddCompany("Trygg Forsikring AS", []string{"Forsikring"}, 100_000, 1_000_000)
	lead := repository.Lead{ID: uuid.New(), Title: "Innbo", Category: "Forsikring", Status: domain.StatusAssigned, CompanyID: &companyID}
	store.PutLead(lead)

	// A freshly registered company owner still carries the "user" token.
	owner := uuid.New()
	engine := newStatusEngine(store, staticCompanies{byUser: map[uuid.UUID]uuid.UUID{owner: companyID}}, owner, "user")

	rec := patchStatus(engine, lead.ID, "in_progress")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got, _ := store.GetByID(context.Background(), lead.ID)
	if got.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", got.Status)
	}
}

func TestActorResolution(t *testing.T) {
	store := leadstest.New()
	companyID := store.AddCompany("Trygg Forsikring AS", []string{"Forsikring"}, 100_000, 1_000_000)

	tests := []struct {
		name      string
		companies staticCompanies
		roles     []string
		want      int
	}{
		{"not a member", staticCompanies{}, []string{"company_admin"}, http.StatusForbidden},
		{"lookup failure", staticCompanies{err: errors.New("connection refused")}, []string{"user"}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := repository.Lead{ID: uuid.New(), Title: "Innbo", Category: "Forsikring", Status: domain.StatusAssigned, CompanyID: &companyID}
			store.PutLead(lead)

			engine := newStatusEngine(store, tt.companies, uuid.New(), tt.roles...)
			if rec := patchStatus(engine, lead.ID, "won"); rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
