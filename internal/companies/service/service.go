// Package service implements company registration and profile management.
package service

import (
	"context"
	"errors"

	"homni_backend/internal/companies/repository"
	"homni_backend/internal/companies/transport"
	"homni_backend/internal/shared/roles"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"
	"homni_backend/platform/phone"
	"homni_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	companyNotFound = "company not found"
	defaultPageSize = 50
	maxPageSize     = 200
)

// Repository is the persistence the service needs.
type Repository interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Company, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Company, error)
	GetByMember(ctx context.Context, userID uuid.UUID) (repository.Company, error)
	CompanyIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, params repository.UpdateParams) (repository.Company, error)
	SetDistributionPaused(ctx context.Context, id uuid.UUID, paused bool) (repository.Company, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (repository.Company, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.Company, int, error)
}

// RoleGranter gives a user a role. Implemented by the auth context.
type RoleGranter interface {
	GrantRole(ctx context.Context, userID uuid.UUID, role roles.Role) error
}

type Service struct {
	repo  Repository
	roles RoleGranter
	log   *logger.Logger
}

func New(repo Repository, granter RoleGranter, log *logger.Logger) *Service {
	return &Service{repo: repo, roles: granter, log: log}
}

// Register creates a company for userID and makes the user its admin.
func (s *Service) Register(ctx context.Context, userID uuid.UUID, req transport.RegisterCompanyRequest) (transport.CompanyResponse, error) {
	name := sanitize.Text(req.Name)
	tags := sanitize.Tags(req.Tags)
	if name == "" {
		return transport.CompanyResponse{}, apperr.Validation("company name is required")
	}
	if len(tags) == 0 {
		return transport.CompanyResponse{}, apperr.Validation("at least one category tag is required")
	}

	company, err := s.repo.Create(ctx, repository.CreateParams{
		Name:         name,
		UserID:       userID,
		Tags:         tags,
		ContactName:  sanitize.TextPtr(req.ContactName),
		ContactEmail: normalizeEmail(req.ContactEmail),
		ContactPhone: normalizePhone(req.ContactPhone),
		Industry:     sanitize.TextPtr(req.Industry),
		Metadata:     req.Metadata,
	})
	if errors.Is(err, repository.ErrAlreadyMember) {
		return transport.CompanyResponse{}, apperr.Conflict("user already belongs to a company")
	}
	if err != nil {
		s.log.DatabaseError("companies.create", err)
		return transport.CompanyResponse{}, apperr.Unavailable(err)
	}

	if err := s.roles.GrantRole(ctx, userID, roles.CompanyAdmin); err != nil {
		s.log.Error("granting company admin role failed", "userId", userID, "companyId", company.ID, "error", err)
		return transport.CompanyResponse{}, err
	}

	s.log.Info("company registered", "companyId", company.ID, "userId", userID, "tags", tags)
	return toResponse(company), nil
}

func (s *Service) GetMine(ctx context.Context, userID uuid.UUID) (transport.CompanyResponse, error) {
	company, err := s.mine(ctx, userID)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return toResponse(company), nil
}

func (s *Service) UpdateMine(ctx context.Context, userID uuid.UUID, req transport.UpdateCompanyRequest) (transport.CompanyResponse, error) {
	company, err := s.mine(ctx, userID)
	if err != nil {
		return transport.CompanyResponse{}, err
	}

	params := repository.UpdateParams{
		Name:         sanitize.TextPtr(req.Name),
		ContactName:  sanitize.TextPtr(req.ContactName),
		ContactEmail: normalizeEmail(req.ContactEmail),
		ContactPhone: normalizePhone(req.ContactPhone),
		Industry:     sanitize.TextPtr(req.Industry),
		Metadata:     req.Metadata,
	}
	if req.Tags != nil {
		params.Tags = sanitize.Tags(req.Tags)
		if len(params.Tags) == 0 {
			return transport.CompanyResponse{}, apperr.Validation("at least one category tag is required")
		}
	}

	updated, err := s.repo.Update(ctx, company.ID, params)
	if err != nil {
		return transport.CompanyResponse{}, s.mapErr("companies.update", err)
	}
	return toResponse(updated), nil
}

// PauseDistribution stops new leads for the user's company.
func (s *Service) PauseDistribution(ctx context.Context, userID uuid.UUID) (transport.CompanyResponse, error) {
	return s.setPaused(ctx, userID, true)
}

// ResumeDistribution lets the user's company receive leads again.
func (s *Service) ResumeDistribution(ctx context.Context, userID uuid.UUID) (transport.CompanyResponse, error) {
	return s.setPaused(ctx, userID, false)
}

func (s *Service) setPaused(ctx context.Context, userID uuid.UUID, paused bool) (transport.CompanyResponse, error) {
	company, err := s.mine(ctx, userID)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	updated, err := s.repo.SetDistributionPaused(ctx, company.ID, paused)
	if err != nil {
		return transport.CompanyResponse{}, s.mapErr("companies.set_paused", err)
	}
	s.log.Info("company distribution toggled", "companyId", company.ID, "paused", paused)
	return toResponse(updated), nil
}

func (s *Service) List(ctx context.Context, req transport.ListCompaniesRequest) (transport.CompanyListResponse, error) {
	pageSize := defaultPageSize
	if req.PageSize > 0 {
		pageSize = min(req.PageSize, maxPageSize)
	}
	page := max(req.Page, 1)

	items, total, err := s.repo.List(ctx, repository.ListParams{
		Status: req.Status,
		Tag:    sanitize.Text(req.Tag),
		Search: sanitize.Text(req.Search),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		s.log.DatabaseError("companies.list", err)
		return transport.CompanyListResponse{}, apperr.Unavailable(err)
	}

	out := make([]transport.CompanyResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toResponse(c))
	}
	return transport.CompanyListResponse{
		Items:      out,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// SetStatus activates or deactivates a company. Companies are never deleted.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (transport.CompanyResponse, error) {
	if status != "active" && status != "inactive" {
		return transport.CompanyResponse{}, apperr.Validation("status must be active or inactive")
	}
	updated, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return transport.CompanyResponse{}, s.mapErr("companies.set_status", err)
	}
	s.log.Info("company status changed", "companyId", id, "status", status)
	return toResponse(updated), nil
}

// CompanyIDForUser returns the company a user works for, or nil.
func (s *Service) CompanyIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	id, err := s.repo.CompanyIDForUser(ctx, userID)
	if err != nil {
		s.log.DatabaseError("companies.company_for_user", err)
		return nil, apperr.Unavailable(err)
	}
	return id, nil
}

func (s *Service) mine(ctx context.Context, userID uuid.UUID) (repository.Company, error) {
	company, err := s.repo.GetByMember(ctx, userID)
	if err != nil {
		return repository.Company{}, s.mapErr("companies.get_mine", err)
	}
	return company, nil
}

func (s *Service) mapErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(companyNotFound)
	}
	s.log.DatabaseError(op, err)
	return apperr.Unavailable(err)
}

func normalizeEmail(v *string) *string {
	if v == nil {
		return nil
	}
	email := sanitize.Email(*v)
	if email == "" {
		return nil
	}
	return &email
}

func normalizePhone(v *string) *string {
	if v == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*v)
	if normalized == "" {
		return nil
	}
	return &normalized
}

func toResponse(c repository.Company) transport.CompanyResponse {
	return transport.CompanyResponse{
		ID:                 c.ID,
		Name:               c.Name,
		Status:             c.Status,
		OwnerID:            c.UserID,
		Tags:               c.Tags,
		ContactName:        c.ContactName,
		ContactEmail:       c.ContactEmail,
		ContactPhone:       c.ContactPhone,
		Industry:           c.Industry,
		SubscriptionPlan:   c.SubscriptionPlan,
		ModulesAccess:      c.ModulesAccess,
		Metadata:           c.Metadata,
		DistributionPaused: c.DistributionPaused,
		LastAssignedAt:     c.LastAssignedAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
