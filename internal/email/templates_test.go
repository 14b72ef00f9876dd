package email

import (
	"strings"
	"testing"
)

func TestRenderLeadAssigned(t *testing.T) {
	html, err := renderLeadAssigned(LeadAssignedData{
		CompanyName: "Trygg Forsikring AS",
		LeadTitle:   "Innboforsikring",
		Category:    "forsikring",
		Cost:        25_000,
		LeadURL:     "https://app.homni.no/leads/1",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{"Trygg Forsikring AS", "Innboforsikring", "kr 250,00", "https://app.homni.no/leads/1"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in rendered mail", want)
		}
	}
}

func TestRenderLeadClosedEscapesInput(t *testing.T) {
	html, err := renderLeadClosed(LeadClosedData{CustomerName: "<script>x</script>", LeadTitle: "Bilforsikring", Status: "won"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("customer name must be escaped")
	}
	if !strings.Contains(html, "vunnet") {
		t.Fatal("expected translated status label")
	}
}

func TestFormatCurrencyNOK(t *testing.T) {
	cases := map[int64]string{
		0:         "kr 0,00",
		5:         "kr 0,05",
		25_000:    "kr 250,00",
		125_050:   "kr 1 250,50",
		123456789: "kr 1 234 567,89",
		-10_000:   "-kr 100,00",
	}
	for in, want := range cases {
		if got := formatCurrencyNOK(in); got != want {
			t.Fatalf("formatCurrencyNOK(%d) = %q, want %q", in, got, want)
		}
	}
}
