package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

// LeadAssignedData is shown to the company that received a lead.
type LeadAssignedData struct {
	CompanyName string
	LeadTitle   string
	Category    string
	Cost        int64
	LeadURL     string
}

// LeadClosedData is shown to the customer once their lead is closed.
type LeadClosedData struct {
	CustomerName string
	LeadTitle    string
	Status       string
}

type leadAssignedEmailData struct {
	baseEmailData
	LeadAssignedData
	CostFormatted string
}

type leadClosedEmailData struct {
	baseEmailData
	LeadClosedData
	StatusLabel string
}

var statusLabels = map[string]string{
	"won":       "vunnet",
	"lost":      "avsluttet uten avtale",
	"completed": "fullført",
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderLeadAssigned(data LeadAssignedData) (string, error) {
	return renderEmailTemplate("lead_assigned.html", leadAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Ny forespørsel",
			Heading:  "Du har fått en ny forespørsel",
			CTALabel: "Se forespørselen",
			CTAURL:   data.LeadURL,
		},
		LeadAssignedData: data,
		CostFormatted:    formatCurrencyNOK(data.Cost),
	})
}

func renderLeadClosed(data LeadClosedData) (string, error) {
	label, ok := statusLabels[data.Status]
	if !ok {
		label = data.Status
	}
	return renderEmailTemplate("lead_closed.html", leadClosedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Forespørselen er avsluttet",
			Heading: "Forespørselen din er avsluttet",
		},
		LeadClosedData: data,
		StatusLabel:    label,
	})
}

// formatCurrencyNOK renders an amount in øre as "kr 1 250,00".
func formatCurrencyNOK(ore int64) string {
	sign := ""
	if ore < 0 {
		sign = "-"
		ore = -ore
	}
	kroner := fmt.Sprintf("%d", ore/100)

	var grouped strings.Builder
	for i, r := range kroner {
		if i > 0 && (len(kroner)-i)%3 == 0 {
			grouped.WriteRune(' ')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%skr %s,%02d", sign, grouped.String(), ore%100)
}
