// Package notification sends e-mails in reaction to lead lifecycle events.
// Delivery failures are logged and never reach the publisher.
package notification

import (
	"context"
	"strings"
	"time"

	"homni_backend/internal/email"
	"homni_backend/internal/events"
	"homni_backend/internal/leads/domain"
	"homni_backend/platform/logger"
)

const sendTimeout = 30 * time.Second

// Config provides the base URL used for links in e-mails.
type Config interface {
	GetAppBaseURL() string
}

// Module is the notification event handler.
type Module struct {
	sender email.Sender
	cfg    Config
	log    *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, cfg Config, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, cfg: cfg, log: log}
}

// RegisterHandlers subscribes to the lead events that produce e-mails.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		m.handleLeadAssigned(ctx, e)
	case events.LeadStatusChanged:
		m.handleLeadStatusChanged(ctx, e)
	}
	return nil
}

func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) {
	if strings.TrimSpace(e.CompanyEmail) == "" {
		m.log.Debug("lead assigned to company without contact email", "leadId", e.LeadID, "companyId", e.CompanyID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := m.sender.SendLeadAssignedEmail(ctx, e.CompanyEmail, email.LeadAssignedData{
		CompanyName: e.CompanyName,
		LeadTitle:   e.LeadTitle,
		Category:    e.Category,
		Cost:        e.Cost,
		LeadURL:     m.leadURL(e.LeadID.String()),
	})
	if err != nil {
		m.log.Error("lead assigned email failed", "leadId", e.LeadID, "companyId", e.CompanyID, "error", err)
		return
	}
	m.log.Info("lead assigned email sent", "leadId", e.LeadID, "companyId", e.CompanyID)
}

func (m *Module) handleLeadStatusChanged(ctx context.Context, e events.LeadStatusChanged) {
	if !domain.IsTerminalStatus(domain.Status(e.NewStatus)) {
		return
	}
	if strings.TrimSpace(e.CustomerEmail) == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := m.sender.SendLeadClosedEmail(ctx, e.CustomerEmail, email.LeadClosedData{
		CustomerName: e.CustomerName,
		LeadTitle:    e.LeadTitle,
		Status:       e.NewStatus,
	})
	if err != nil {
		m.log.Error("lead closed email failed", "leadId", e.LeadID, "status", e.NewStatus, "error", err)
		return
	}
	m.log.Info("lead closed email sent", "leadId", e.LeadID, "status", e.NewStatus)
}

func (m *Module) leadURL(leadID string) string {
	return strings.TrimRight(m.cfg.GetAppBaseURL(), "/") + "/leads/" + leadID
}

var _ events.Handler = (*Module)(nil)
