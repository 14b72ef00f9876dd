// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"homni_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserSignedUp is published when a new user successfully registers.
type UserSignedUp struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

func (e UserSignedUp) EventName() string { return "auth.user.signed_up" }

// UserSignedIn is published after a successful sign-in.
type UserSignedIn struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

func (e UserSignedIn) EventName() string { return "auth.user.signed_in" }

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a lead is submitted, before distribution.
type LeadCreated struct {
	BaseEvent
	LeadID      uuid.UUID  `json:"leadId"`
	Category    string     `json:"category"`
	SubmittedBy *uuid.UUID `json:"submittedBy,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadAssigned is published when distribution hands a lead to a company.
type LeadAssigned struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	CompanyID    uuid.UUID `json:"companyId"`
	Cost         int64     `json:"cost"`
	LeadTitle    string    `json:"leadTitle"`
	Category     string    `json:"category"`
	CompanyName  string    `json:"companyName"`
	CompanyEmail string    `json:"companyEmail"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// LeadStatusChanged is published after a committed status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID        uuid.UUID  `json:"leadId"`
	CompanyID     *uuid.UUID `json:"companyId,omitempty"`
	ActorID       uuid.UUID  `json:"actorId"`
	OldStatus     string     `json:"oldStatus"`
	NewStatus     string     `json:"newStatus"`
	PipelineStage string     `json:"pipelineStage"`
	LeadTitle     string     `json:"leadTitle"`
	CustomerName  string     `json:"customerName,omitempty"`
	CustomerEmail string     `json:"customerEmail,omitempty"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// ContactAccessPurchased is published when a company buys a higher access level.
type ContactAccessPurchased struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	CompanyID uuid.UUID `json:"companyId"`
	Level     string    `json:"level"`
	Price     int64     `json:"price"`
}

func (e ContactAccessPurchased) EventName() string { return "leads.access.purchased" }

// =============================================================================
// Budget Domain Events
// =============================================================================

// BudgetExceeded is published when a spend pushes a company past a limit.
type BudgetExceeded struct {
	BaseEvent
	CompanyID     uuid.UUID `json:"companyId"`
	DailySpent    int64     `json:"dailySpent"`
	DailyBudget   int64     `json:"dailyBudget"`
	MonthlySpent  int64     `json:"monthlySpent"`
	MonthlyBudget int64     `json:"monthlyBudget"`
}

func (e BudgetExceeded) EventName() string { return "budget.exceeded" }
