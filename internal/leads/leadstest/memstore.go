// Package leadstest provides an in-memory lead store with the same
// compare-and-swap semantics as the Postgres repository, for tests.
package leadstest

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/ports"
	"homni_backend/internal/leads/repository"

	"github.com/google/uuid"
)

type account struct {
	daily, monthly           int64
	dailySpent, monthlySpent int64
}

// Store implements repository.LeadsRepository and ports.BudgetGate.
type Store struct {
	mu          sync.Mutex
	leads       map[uuid.UUID]repository.Lead
	history     []repository.StatusChange
	assignments map[uuid.UUID][]uuid.UUID
	grants      map[[2]uuid.UUID]repository.ContactGrant
	companies   map[uuid.UUID]repository.Candidate
	budgets     map[uuid.UUID]*account
	debits      int

	// Err* force the matching lookups to fail.
	ErrGetLead  error
	ErrGrant    error
	ErrBudget   error
	ErrAssign   error
	Now         func() time.Time
	BeforeWrite func()
}

func New() *Store {
	return &Store{
		leads:       make(map[uuid.UUID]repository.Lead),
		assignments: make(map[uuid.UUID][]uuid.UUID),
		grants:      make(map[[2]uuid.UUID]repository.ContactGrant),
		companies:   make(map[uuid.UUID]repository.Candidate),
		budgets:     make(map[uuid.UUID]*account),
		Now:         time.Now,
	}
}

var (
	_ repository.LeadsRepository = (*Store)(nil)
	_ ports.BudgetGate           = (*Store)(nil)
)

// AddCompany registers an active company with the given tags and budget.
func (s *Store) AddCompany(name string, tags []string, daily, monthly int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	email := strings.ToLower(name) + "@example.com"
	s.companies[id] = repository.Candidate{CompanyID: id, Name: name, Status: "active", Tags: tags, ContactEmail: &email}
	s.budgets[id] = &account{daily: daily, monthly: monthly}
	return id
}

// UpdateCompany mutates a registered company.
func (s *Store) UpdateCompany(id uuid.UUID, fn func(c *repository.Candidate)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.companies[id]
	fn(&c)
	s.companies[id] = c
}

// SetSpent overwrites a company's spend on both windows.
func (s *Store) SetSpent(id uuid.UUID, daily, monthly int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[id].dailySpent = daily
	s.budgets[id].monthlySpent = monthly
}

// Spent returns the daily spend of a company.
func (s *Store) Spent(id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgets[id].dailySpent
}

// Debits counts committed budget debits.
func (s *Store) Debits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debits
}

// PutGrant stores a grant directly.
func (s *Store) PutGrant(g repository.ContactGrant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[[2]uuid.UUID{g.LeadID, g.CompanyID}] = g
}

// PutLead stores a lead directly, e.g. one that is already assigned. The
// status is stored as given, so legacy values can be seeded.
func (s *Store) PutLead(lead repository.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead.PipelineStage = domain.StatusToPipeline(lead.Status)
	if lead.Metadata == nil {
		lead.Metadata = map[string]any{}
	}
	s.leads[lead.ID] = lead
	if lead.CompanyID != nil {
		s.assignments[lead.ID] = append(s.assignments[lead.ID], *lead.CompanyID)
	}
}

// read returns lead the way the Postgres repository surfaces a row: the
// stored status passes through the normalizer.
func read(lead repository.Lead) repository.Lead {
	lead.Status = domain.NormalizeStatus(string(lead.Status))
	lead.PipelineStage = domain.StatusToPipeline(lead.Status)
	return lead
}

func (s *Store) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	status := domain.NormalizeStatus(string(params.Status))
	lead := repository.Lead{
		ID:            uuid.New(),
		Title:         params.Title,
		Description:   params.Description,
		Category:      params.Category,
		LeadType:      params.LeadType,
		Status:        status,
		PipelineStage: domain.StatusToPipeline(status),
		CustomerName:  params.CustomerName,
		CustomerEmail: params.CustomerEmail,
		CustomerPhone: params.CustomerPhone,
		ServiceType:   params.ServiceType,
		SubmittedBy:   params.SubmittedBy,
		Metadata:      params.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if lead.Metadata == nil {
		lead.Metadata = map[string]any{}
	}
	s.leads[lead.ID] = lead
	return lead, nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrGetLead != nil {
		return repository.Lead{}, s.ErrGetLead
	}
	lead, ok := s.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return read(lead), nil
}

func (s *Store) List(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]repository.Lead, 0)
	for _, lead := range s.leads {
		if params.Status != nil && lead.Status != *params.Status {
			continue
		}
		if params.Category != "" && !strings.EqualFold(lead.Category, params.Category) {
			continue
		}
		if params.CompanyID != nil && (lead.CompanyID == nil || *lead.CompanyID != *params.CompanyID) {
			continue
		}
		if params.SubmittedBy != nil && (lead.SubmittedBy == nil || *lead.SubmittedBy != *params.SubmittedBy) {
			continue
		}
		items = append(items, read(lead))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, len(items), nil
}

func (s *Store) ListStatusHistory(_ context.Context, leadID uuid.UUID) ([]repository.StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.StatusChange, 0)
	for _, c := range s.history {
		if c.LeadID == leadID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) LinkAnonymousLeads(_ context.Context, userID uuid.UUID, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, lead := range s.leads {
		if lead.SubmittedBy == nil && lead.CustomerEmail != nil && strings.EqualFold(*lead.CustomerEmail, email) {
			uid := userID
			lead.SubmittedBy = &uid
			s.leads[id] = lead
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateStatus(_ context.Context, params repository.UpdateStatusParams) (repository.Lead, error) {
	if s.BeforeWrite != nil {
		s.BeforeWrite()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[params.LeadID]
	if !ok || lead.Status != params.From {
		return repository.Lead{}, repository.ErrStatusConflict
	}
	lead.Status = params.To
	lead.PipelineStage = domain.StatusToPipeline(params.To)
	lead.UpdatedAt = s.Now()
	s.leads[lead.ID] = lead
	actor := params.ActorID
	s.history = append(s.history, repository.StatusChange{
		ID: uuid.New(), LeadID: lead.ID, FromStatus: params.From, ToStatus: params.To, ActorID: &actor, CreatedAt: lead.UpdatedAt,
	})
	return lead, nil
}

func (s *Store) ListUnassigned(_ context.Context, limit int) ([]repository.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]repository.Lead, 0)
	for _, lead := range s.leads {
		if lead.Status == domain.StatusNew && lead.CompanyID == nil {
			items = append(items, read(lead))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListCandidates(_ context.Context, category string) ([]repository.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]repository.Candidate, 0)
	for _, c := range s.companies {
		for _, tag := range c.Tags {
			if strings.EqualFold(tag, category) {
				items = append(items, c)
				break
			}
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].LastAssignedAt, items[j].LastAssignedAt
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return bytes.Compare(items[i].CompanyID[:], items[j].CompanyID[:]) < 0
	})
	return items, nil
}

func (s *Store) ListAssignedCompanyIDs(_ context.Context, leadID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, len(s.assignments[leadID]))
	copy(out, s.assignments[leadID])
	return out, nil
}

func (s *Store) AssignToCompany(_ context.Context, params repository.AssignParams) (repository.Lead, error) {
	if s.BeforeWrite != nil {
		s.BeforeWrite()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrAssign != nil {
		return repository.Lead{}, s.ErrAssign
	}
	lead, ok := s.leads[params.LeadID]
	if !ok || lead.Status != domain.StatusNew || lead.CompanyID != nil {
		return repository.Lead{}, repository.ErrLeadTaken
	}
	if err := s.debitLocked(params.CompanyID, params.Cost); err != nil {
		return repository.Lead{}, err
	}

	companyID := params.CompanyID
	now := s.Now()
	lead.Status = domain.StatusAssigned
	lead.PipelineStage = domain.StatusToPipeline(domain.StatusAssigned)
	lead.CompanyID = &companyID
	lead.UpdatedAt = now
	s.leads[lead.ID] = lead
	s.assignments[lead.ID] = append(s.assignments[lead.ID], companyID)
	s.history = append(s.history, repository.StatusChange{
		ID: uuid.New(), LeadID: lead.ID, FromStatus: domain.StatusNew, ToStatus: domain.StatusAssigned, CreatedAt: now,
	})
	c := s.companies[companyID]
	c.LastAssignedAt = &now
	s.companies[companyID] = c
	return lead, nil
}

func (s *Store) debitLocked(companyID uuid.UUID, amount int64) error {
	b, ok := s.budgets[companyID]
	if !ok || b.dailySpent+amount > b.daily || b.monthlySpent+amount > b.monthly {
		return repository.ErrBudgetExhausted
	}
	b.dailySpent += amount
	b.monthlySpent += amount
	s.debits++
	return nil
}

func (s *Store) GetContactGrant(_ context.Context, leadID, companyID uuid.UUID) (*repository.ContactGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrGrant != nil {
		return nil, s.ErrGrant
	}
	g, ok := s.grants[[2]uuid.UUID{leadID, companyID}]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (s *Store) PurchaseContactAccess(_ context.Context, params repository.PurchaseParams) (repository.ContactGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.debitLocked(params.CompanyID, params.Price); err != nil {
		return repository.ContactGrant{}, err
	}
	g := repository.ContactGrant{
		LeadID:      params.LeadID,
		CompanyID:   params.CompanyID,
		Level:       params.Level,
		PurchasedAt: s.Now(),
		ExpiresAt:   params.ExpiresAt,
	}
	s.grants[[2]uuid.UUID{params.LeadID, params.CompanyID}] = g
	return g, nil
}

func (s *Store) CompanyMatchesCategory(_ context.Context, companyID uuid.UUID, category string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[companyID]
	if !ok || c.Status != "active" {
		return false, nil
	}
	for _, tag := range c.Tags {
		if strings.EqualFold(tag, category) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetBudget(_ context.Context, companyID uuid.UUID) (ports.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrBudget != nil {
		return ports.Budget{}, s.ErrBudget
	}
	b, ok := s.budgets[companyID]
	if !ok {
		return ports.Budget{Exceeded: true}, nil
	}
	return ports.Budget{
		Exceeded:         b.dailySpent >= b.daily || b.monthlySpent >= b.monthly,
		RemainingDaily:   max(0, b.daily-b.dailySpent),
		RemainingMonthly: max(0, b.monthly-b.monthlySpent),
	}, nil
}

func (s *Store) Today() time.Time {
	now := s.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Store) AfterDebit(context.Context, uuid.UUID, int64, string) {}

func (s *Store) ListNonCanonicalStatuses(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	collect := func(st domain.Status) {
		if !st.IsCanonical() {
			seen[string(st)] = struct{}{}
		}
	}
	for _, lead := range s.leads {
		collect(lead.Status)
	}
	for _, c := range s.history {
		collect(c.FromStatus)
		collect(c.ToStatus)
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) RewriteStatus(_ context.Context, raw string, status domain.Status) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, lead := range s.leads {
		if string(lead.Status) == raw {
			lead.Status = status
			lead.PipelineStage = domain.StatusToPipeline(status)
			s.leads[id] = lead
			n++
		}
	}
	for i, c := range s.history {
		if string(c.FromStatus) == raw {
			s.history[i].FromStatus = status
		}
		if string(c.ToStatus) == raw {
			s.history[i].ToStatus = status
		}
	}
	return n, nil
}
