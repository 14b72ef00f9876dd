package notification

import (
	"context"
	"errors"
	"testing"

	"homni_backend/internal/email"
	"homni_backend/internal/events"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

type testNotificationConfig struct{}

func (testNotificationConfig) GetAppBaseURL() string { return "https://app.homni.no/" }

type sentMail struct {
	to       string
	assigned *email.LeadAssignedData
	closed   *email.LeadClosedData
}

type testSender struct {
	sent []sentMail
	err  error
}

func (s *testSender) SendLeadAssignedEmail(_ context.Context, to string, data email.LeadAssignedData) error {
	s.sent = append(s.sent, sentMail{to: to, assigned: &data})
	return s.err
}

func (s *testSender) SendLeadClosedEmail(_ context.Context, to string, data email.LeadClosedData) error {
	s.sent = append(s.sent, sentMail{to: to, closed: &data})
	return s.err
}

func TestLeadAssignedEmailsCompanyContact(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{}, logger.Discard())
	leadID := uuid.New()

	err := m.Handle(context.Background(), events.LeadAssigned{
		LeadID:       leadID,
		CompanyID:    uuid.New(),
		Cost:         25_000,
		LeadTitle:    "Innboforsikring",
		Category:     "forsikring",
		CompanyName:  "Trygg Forsikring AS",
		CompanyEmail: "post@trygg.no",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0].to != "post@trygg.no" {
		t.Fatalf("expected one mail to company, got %+v", sender.sent)
	}
	if got := sender.sent[0].assigned.LeadURL; got != "https://app.homni.no/leads/"+leadID.String() {
		t.Fatalf("unexpected lead url %q", got)
	}
}

func TestLeadAssignedWithoutContactIsSkipped(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testNotificationConfig{}, logger.Discard())

	_ = m.Handle(context.Background(), events.LeadAssigned{LeadID: uuid.New(), CompanyID: uuid.New()})
	if len(sender.sent) != 0 {
		t.Fatalf("expected no mail, got %d", len(sender.sent))
	}
}

func TestStatusChangeEmailsCustomerOnlyWhenTerminal(t *testing.T) {
	cases := []struct {
		status string
		email  string
		want   int
	}{
		{"in_progress", "kari@example.no", 0},
		{"won", "kari@example.no", 1},
		{"lost", "kari@example.no", 1},
		{"completed", "kari@example.no", 1},
		{"won", "", 0},
	}

	for _, tc := range cases {
		t.Run(tc.status+"/"+tc.email, func(t *testing.T) {
			sender := &testSender{}
			m := New(sender, testNotificationConfig{}, logger.Discard())

			_ = m.Handle(context.Background(), events.LeadStatusChanged{
				LeadID:        uuid.New(),
				NewStatus:     tc.status,
				LeadTitle:     "Bilforsikring",
				CustomerEmail: tc.email,
			})
			if len(sender.sent) != tc.want {
				t.Fatalf("expected %d mails, got %d", tc.want, len(sender.sent))
			}
		})
	}
}

func TestSendFailureIsNotPropagated(t *testing.T) {
	sender := &testSender{err: errors.New("smtp down")}
	m := New(sender, testNotificationConfig{}, logger.Discard())

	err := m.Handle(context.Background(), events.LeadStatusChanged{LeadID: uuid.New(), NewStatus: "won", CustomerEmail: "a@example.no"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
