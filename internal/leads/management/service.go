// Package management handles lead submission and the read side of the lead
// lifecycle. Every read is scoped to what the actor may see and rendered at
// the actor's access level.
package management

import (
	"context"
	"errors"
	"strings"

	"homni_backend/internal/events"
	"homni_backend/internal/leads/access"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/ports"
	"homni_backend/internal/leads/repository"
	"homni_backend/internal/leads/transport"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"
	"homni_backend/platform/metrics"
	"homni_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Repository defines the data access interface needed by the management service.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
	CompanyMatchesCategory(ctx context.Context, companyID uuid.UUID, category string) (bool, error)
}

// Service handles lead management operations.
type Service struct {
	repo     Repository
	resolver *access.Resolver
	bus      events.Bus
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// New creates a new lead management service.
func New(repo Repository, resolver *access.Resolver, bus events.Bus, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, bus: bus, metrics: m, log: log}
}

// Create stores a submitted lead as new. submittedBy is nil for the public
// form; such leads are linked to an account later by e-mail.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest, submittedBy *uuid.UUID) (transport.LeadResponse, error) {
	title := sanitize.Text(req.Title)
	category := sanitize.Text(req.Category)
	if title == "" || category == "" {
		return transport.LeadResponse{}, apperr.Validation("title and category are required")
	}

	leadType := req.LeadType
	if leadType == "" {
		leadType = transport.LeadTypePrivate
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	customer := resolveCustomer(req.CustomerName, req.CustomerEmail, req.CustomerPhone, metadata)

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		Title:         title,
		Description:   sanitize.Text(req.Description),
		Category:      category,
		LeadType:      string(leadType),
		Status:        domain.StatusNew,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		ServiceType:   sanitize.TextPtr(req.ServiceType),
		SubmittedBy:   submittedBy,
		Metadata:      metadata,
	})
	if err != nil {
		s.log.DatabaseError("leads.create", err)
		return transport.LeadResponse{}, apperr.Unavailable(err)
	}

	if s.metrics != nil {
		s.metrics.LeadsCreated.Inc()
	}
	s.log.Info("lead created", "leadId", lead.ID, "category", lead.Category, "anonymous", submittedBy == nil)
	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:   events.NewBaseEvent(),
			LeadID:      lead.ID,
			Category:    lead.Category,
			SubmittedBy: lead.SubmittedBy,
		})
	}

	return ToLeadResponse(lead, domain.AccessFull), nil
}

// GetByID returns a lead the actor may see. Leads outside the actor's scope
// are reported as not found.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, actor ports.Actor) (transport.LeadResponse, error) {
	lead, level, err := s.load(ctx, id, actor)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToLeadResponse(lead, level), nil
}

// List returns leads visible to the actor. Admins see everything; companies
// see leads assigned to them; customers see what they submitted.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest, actor ports.Actor) (transport.LeadListResponse, error) {
	params, err := listParams(req)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	switch {
	case actor.IsAdmin():
	case actor.CompanyID != nil:
		params.CompanyID = actor.CompanyID
	default:
		params.CompanyID = nil
		params.SubmittedBy = &actor.UserID
	}
	return s.list(ctx, params, req, actor)
}

// ListMine returns the actor's own leads: assigned ones for company members,
// submitted ones for everybody else.
func (s *Service) ListMine(ctx context.Context, req transport.ListLeadsRequest, actor ports.Actor) (transport.LeadListResponse, error) {
	params, err := listParams(req)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	params.CompanyID = nil
	if actor.CompanyID != nil {
		params.CompanyID = actor.CompanyID
	} else {
		params.SubmittedBy = &actor.UserID
	}
	return s.list(ctx, params, req, actor)
}

func (s *Service) list(ctx context.Context, params repository.ListParams, req transport.ListLeadsRequest, actor ports.Actor) (transport.LeadListResponse, error) {
	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		s.log.DatabaseError("leads.list", err)
		return transport.LeadListResponse{}, apperr.Unavailable(err)
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead, s.levelFor(ctx, lead, actor)))
	}

	page := max(req.Page, 1)
	totalPages := 0
	if total > 0 {
		totalPages = (total + params.Limit - 1) / params.Limit
	}
	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   params.Limit,
		TotalPages: totalPages,
	}, nil
}

// History returns the status changes of a visible lead, oldest first.
func (s *Service) History(ctx context.Context, id uuid.UUID, actor ports.Actor) (transport.StatusHistoryResponse, error) {
	if _, _, err := s.load(ctx, id, actor); err != nil {
		return transport.StatusHistoryResponse{}, err
	}
	changes, err := s.repo.ListStatusHistory(ctx, id)
	if err != nil {
		s.log.DatabaseError("leads.history", err)
		return transport.StatusHistoryResponse{}, apperr.Unavailable(err)
	}
	return toHistoryResponse(changes), nil
}

// AccessLevel reports the actor's effective access to a lead.
func (s *Service) AccessLevel(ctx context.Context, id uuid.UUID, actor ports.Actor) (transport.AccessResponse, error) {
	lead, err := s.get(ctx, id)
	if err != nil {
		return transport.AccessResponse{}, err
	}
	return transport.AccessResponse{
		LeadID:    lead.ID,
		CompanyID: actor.CompanyID,
		Level:     string(s.levelFor(ctx, lead, actor)),
	}, nil
}

// LinkAnonymousLeads attaches leads submitted without an account to userID
// when the customer e-mail matches.
func (s *Service) LinkAnonymousLeads(ctx context.Context, userID uuid.UUID, email string) (int, error) {
	email = sanitize.Email(email)
	if userID == uuid.Nil || email == "" {
		return 0, apperr.Validation("user and email are required")
	}
	n, err := s.repo.LinkAnonymousLeads(ctx, userID, email)
	if err != nil {
		s.log.DatabaseError("leads.link_anonymous", err)
		return 0, apperr.Unavailable(err)
	}
	if n > 0 {
		s.log.Info("linked anonymous leads", "userId", userID, "count", n)
	}
	return n, nil
}

// load fetches a lead and checks that the actor may see it at all. A company
// may also see unassigned leads in its categories, without customer data, so
// it can decide whether to buy access.
func (s *Service) load(ctx context.Context, id uuid.UUID, actor ports.Actor) (repository.Lead, domain.AccessLevel, error) {
	lead, err := s.get(ctx, id)
	if err != nil {
		return repository.Lead{}, domain.AccessNone, err
	}

	level := s.levelFor(ctx, lead, actor)
	if level != domain.AccessNone {
		return lead, level, nil
	}
	if actor.CompanyID != nil {
		ok, err := s.repo.CompanyMatchesCategory(ctx, *actor.CompanyID, lead.Category)
		if err != nil {
			s.log.DatabaseError("leads.category_match", err)
			return repository.Lead{}, domain.AccessNone, apperr.Unavailable(err)
		}
		if ok {
			return lead, domain.AccessNone, nil
		}
	}
	return repository.Lead{}, domain.AccessNone, apperr.NotFound("lead not found")
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		s.log.DatabaseError("leads.get", err)
		return repository.Lead{}, apperr.Unavailable(err)
	}
	return lead, nil
}

// levelFor is the access an actor holds on a lead. Admins and the submitting
// customer always see everything.
func (s *Service) levelFor(ctx context.Context, lead repository.Lead, actor ports.Actor) domain.AccessLevel {
	if actor.IsAdmin() {
		return domain.AccessFull
	}
	if lead.SubmittedBy != nil && *lead.SubmittedBy == actor.UserID {
		return domain.AccessFull
	}
	if actor.CompanyID == nil {
		return domain.AccessNone
	}
	return s.resolver.ResolveLead(ctx, lead, *actor.CompanyID)
}

func listParams(req transport.ListLeadsRequest) (repository.ListParams, error) {
	params := repository.ListParams{
		Category: sanitize.Text(req.Category),
		Limit:    defaultPageSize,
	}
	if req.PageSize > 0 {
		params.Limit = min(req.PageSize, maxPageSize)
	}
	if req.Page > 1 {
		params.Offset = (req.Page - 1) * params.Limit
	}

	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, ok := domain.ParseStatus(raw)
		if !ok {
			return repository.ListParams{}, apperr.Validation("unknown status filter")
		}
		params.Status = &status
	}
	if req.CompanyID != "" {
		id, err := uuid.Parse(req.CompanyID)
		if err != nil {
			return repository.ListParams{}, apperr.Validation("invalid companyId")
		}
		params.CompanyID = &id
	}
	return params, nil
}
