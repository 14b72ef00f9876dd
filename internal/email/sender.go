// Package email renders and delivers transactional e-mails.
package email

import "context"

// Sender delivers the lead lifecycle e-mails.
type Sender interface {
	SendLeadAssignedEmail(ctx context.Context, toEmail string, data LeadAssignedData) error
	SendLeadClosedEmail(ctx context.Context, toEmail string, data LeadClosedData) error
}

// NoopSender drops every message. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadAssignedEmail(context.Context, string, LeadAssignedData) error { return nil }
func (NoopSender) SendLeadClosedEmail(context.Context, string, LeadClosedData) error     { return nil }

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
