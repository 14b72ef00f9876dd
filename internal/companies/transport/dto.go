package transport

import (
	"time"

	"github.com/google/uuid"
)

type RegisterCompanyRequest struct {
	Name         string         `json:"name" validate:"required,notblank,max=200"`
	Tags         []string       `json:"tags" validate:"required,min=1,max=50,dive,notblank,max=100"`
	ContactName  *string        `json:"contactName,omitempty" validate:"omitempty,max=200"`
	ContactEmail *string        `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone *string        `json:"contactPhone,omitempty" validate:"omitempty,min=5,max=30"`
	Industry     *string        `json:"industry,omitempty" validate:"omitempty,max=100"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type UpdateCompanyRequest struct {
	Name         *string        `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Tags         []string       `json:"tags,omitempty" validate:"omitempty,max=50,dive,notblank,max=100"`
	ContactName  *string        `json:"contactName,omitempty" validate:"omitempty,max=200"`
	ContactEmail *string        `json:"contactEmail,omitempty" validate:"omitempty,email"`
	ContactPhone *string        `json:"contactPhone,omitempty" validate:"omitempty,min=5,max=30"`
	Industry     *string        `json:"industry,omitempty" validate:"omitempty,max=100"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type ListCompaniesRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=active inactive"`
	Tag      string `form:"tag" validate:"max=100"`
	Search   string `form:"search" validate:"max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

type CompanyResponse struct {
	ID                 uuid.UUID      `json:"id"`
	Name               string         `json:"name"`
	Status             string         `json:"status"`
	OwnerID            uuid.UUID      `json:"ownerId"`
	Tags               []string       `json:"tags"`
	ContactName        *string        `json:"contactName,omitempty"`
	ContactEmail       *string        `json:"contactEmail,omitempty"`
	ContactPhone       *string        `json:"contactPhone,omitempty"`
	Industry           *string        `json:"industry,omitempty"`
	SubscriptionPlan   string         `json:"subscriptionPlan"`
	ModulesAccess      []string       `json:"modulesAccess"`
	Metadata           map[string]any `json:"metadata"`
	DistributionPaused bool           `json:"distributionPaused"`
	LastAssignedAt     *time.Time     `json:"lastAssignedAt,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

type CompanyListResponse struct {
	Items      []CompanyResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}
