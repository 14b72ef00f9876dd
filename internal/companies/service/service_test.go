package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"homni_backend/internal/companies/repository"
	"homni_backend/internal/companies/transport"
	"homni_backend/internal/shared/roles"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	companies map[uuid.UUID]repository.Company
	members   map[uuid.UUID]uuid.UUID
	err       error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{companies: map[uuid.UUID]repository.Company{}, members: map[uuid.UUID]uuid.UUID{}}
}

func (r *fakeRepo) Create(_ context.Context, p repository.CreateParams) (repository.Company, error) {
	if r.err != nil {
		return repository.Company{}, r.err
	}
	if _, ok := r.members[p.UserID]; ok {
		return repository.Company{}, repository.ErrAlreadyMember
	}
	c := repository.Company{
		ID: uuid.New(), Name: p.Name, Status: "active", UserID: p.UserID, Tags: p.Tags,
		ContactEmail: p.ContactEmail, ContactPhone: p.ContactPhone, SubscriptionPlan: "free",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	r.companies[c.ID] = c
	r.members[p.UserID] = c.ID
	return c, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return repository.Company{}, repository.ErrNotFound
	}
	return c, nil
}

func (r *fakeRepo) GetByMember(ctx context.Context, userID uuid.UUID) (repository.Company, error) {
	id, ok := r.members[userID]
	if !ok {
		return repository.Company{}, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *fakeRepo) CompanyIDForUser(_ context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	id, ok := r.members[userID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (r *fakeRepo) Update(_ context.Context, id uuid.UUID, p repository.UpdateParams) (repository.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return repository.Company{}, repository.ErrNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Tags != nil {
		c.Tags = p.Tags
	}
	r.companies[id] = c
	return c, nil
}

func (r *fakeRepo) SetDistributionPaused(_ context.Context, id uuid.UUID, paused bool) (repository.Company, error) {
	c := r.companies[id]
	c.DistributionPaused = paused
	r.companies[id] = c
	return c, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id uuid.UUID, status string) (repository.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return repository.Company{}, repository.ErrNotFound
	}
	c.Status = status
	r.companies[id] = c
	return c, nil
}

func (r *fakeRepo) List(context.Context, repository.ListParams) ([]repository.Company, int, error) {
	out := make([]repository.Company, 0, len(r.companies))
	for _, c := range r.companies {
		out = append(out, c)
	}
	return out, len(out), nil
}

type grantRecorder struct {
	granted map[uuid.UUID][]roles.Role
	err     error
}

func (g *grantRecorder) GrantRole(_ context.Context, userID uuid.UUID, role roles.Role) error {
	if g.err != nil {
		return g.err
	}
	if g.granted == nil {
		g.granted = map[uuid.UUID][]roles.Role{}
	}
	g.granted[userID] = append(g.granted[userID], role)
	return nil
}

func TestRegisterGrantsCompanyAdmin(t *testing.T) {
	repo := newFakeRepo()
	granter := &grantRecorder{}
	svc := New(repo, granter, logger.Discard())
	userID := uuid.New()

	email := " Post@Trygg.NO "
	resp, err := svc.Register(context.Background(), userID, transport.RegisterCompanyRequest{
		Name:         "Trygg <i>Forsikring</i> AS",
		Tags:         []string{"Forsikring", " forsikring ", "Takst"},
		ContactEmail: &email,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Name != "Trygg Forsikring AS" {
		t.Fatalf("expected sanitized name, got %q", resp.Name)
	}
	if len(resp.Tags) != 2 || resp.Tags[0] != "forsikring" || resp.Tags[1] != "takst" {
		t.Fatalf("expected deduplicated tags, got %v", resp.Tags)
	}
	if *resp.ContactEmail != "post@trygg.no" {
		t.Fatalf("expected normalized email, got %q", *resp.ContactEmail)
	}
	if got := granter.granted[userID]; len(got) != 1 || got[0] != roles.CompanyAdmin {
		t.Fatalf("expected company_admin grant, got %v", got)
	}

	id, _ := svc.CompanyIDForUser(context.Background(), userID)
	if id == nil || *id != resp.ID {
		t.Fatalf("expected membership of %s, got %v", resp.ID, id)
	}

	_, err = svc.Register(context.Background(), userID, transport.RegisterCompanyRequest{Name: "Again", Tags: []string{"x"}})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second registration should conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := New(newFakeRepo(), &grantRecorder{}, logger.Discard())
	_, err := svc.Register(context.Background(), uuid.New(), transport.RegisterCompanyRequest{Name: "X", Tags: []string{" ", "<b></b>"}})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPauseResumeAndStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &grantRecorder{}, logger.Discard())
	ctx := context.Background()
	userID := uuid.New()
	created, _ := svc.Register(ctx, userID, transport.RegisterCompanyRequest{Name: "Rask Rør", Tags: []string{"rørlegger"}})

	paused, err := svc.PauseDistribution(ctx, userID)
	if err != nil || !paused.DistributionPaused {
		t.Fatalf("pause: %+v %v", paused, err)
	}
	resumed, _ := svc.ResumeDistribution(ctx, userID)
	if resumed.DistributionPaused {
		t.Fatal("resume should clear the pause")
	}

	if _, err := svc.PauseDistribution(ctx, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("non-member should get not found, got %v", err)
	}

	inactive, err := svc.SetStatus(ctx, created.ID, "inactive")
	if err != nil || inactive.Status != "inactive" {
		t.Fatalf("deactivate: %+v %v", inactive, err)
	}
	if _, err := svc.SetStatus(ctx, created.ID, "deleted"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStoreFailureIsUnavailable(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")
	svc := New(repo, &grantRecorder{}, logger.Discard())

	_, err := svc.Register(context.Background(), uuid.New(), transport.RegisterCompanyRequest{Name: "X", Tags: []string{"x"}})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
