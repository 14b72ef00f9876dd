package transport

import (
	"time"

	"github.com/google/uuid"
)

type LeadType string

const (
	LeadTypePrivate  LeadType = "private"
	LeadTypeBusiness LeadType = "business"
)

// Request DTOs
type CreateLeadRequest struct {
	Title         string         `json:"title" validate:"required,notblank,max=200"`
	Description   string         `json:"description" validate:"max=5000"`
	Category      string         `json:"category" validate:"required,notblank,max=100"`
	LeadType      LeadType       `json:"leadType,omitempty" validate:"omitempty,oneof=private business"`
	CustomerName  *string        `json:"customerName,omitempty" validate:"omitempty,max=200"`
	CustomerEmail *string        `json:"customerEmail,omitempty" validate:"omitempty,email"`
	CustomerPhone *string        `json:"customerPhone,omitempty" validate:"omitempty,min=5,max=30"`
	ServiceType   *string        `json:"serviceType,omitempty" validate:"omitempty,max=100"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,notblank"`
}

type PurchaseAccessRequest struct {
	Level string `json:"level" validate:"required,oneof=contact full"`
}

type ListLeadsRequest struct {
	Status    string `form:"status"`
	Category  string `form:"category" validate:"max=100"`
	CompanyID string `form:"companyId" validate:"omitempty,uuid"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}


// Response DTOs

// CustomerResponse holds the customer fields a viewer may see. Masked values
// are returned when the viewer only has basic access.
type CustomerResponse struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Masked bool    `json:"masked"`
}

type LeadResponse struct {
	ID            uuid.UUID         `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Category      string            `json:"category"`
	LeadType      string            `json:"leadType"`
	Status        string            `json:"status"`
	PipelineStage string            `json:"pipelineStage"`
	ServiceType   *string           `json:"serviceType,omitempty"`
	CompanyID     *uuid.UUID        `json:"companyId,omitempty"`
	SubmittedBy   *uuid.UUID        `json:"submittedBy,omitempty"`
	AccessLevel   string            `json:"accessLevel"`
	Customer      *CustomerResponse `json:"customer,omitempty"`
	Metadata      map[string]any    `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type StatusChangeResponse struct {
	FromStatus string     `json:"fromStatus"`
	ToStatus   string     `json:"toStatus"`
	ActorID    *uuid.UUID `json:"actorId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type StatusHistoryResponse struct {
	Items []StatusChangeResponse `json:"items"`
}

type AccessResponse struct {
	LeadID    uuid.UUID  `json:"leadId"`
	CompanyID *uuid.UUID `json:"companyId,omitempty"`
	Level     string     `json:"level"`
}

type PurchaseAccessResponse struct {
	LeadID    uuid.UUID  `json:"leadId"`
	Level     string     `json:"level"`
	Charged   int64      `json:"charged"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type DistributeResponse struct {
	AssignedCount int            `json:"assignedCount"`
	Skipped       int            `json:"skipped"`
	Failed        int            `json:"failed"`
	Leads         []LeadResponse `json:"leads"`
}

type DistributeOneResponse struct {
	LeadID    uuid.UUID  `json:"leadId"`
	Assigned  bool       `json:"assigned"`
	CompanyID *uuid.UUID `json:"companyId,omitempty"`
}

