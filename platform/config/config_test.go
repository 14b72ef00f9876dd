package config

import (
	"strings"
	"testing"
	_ "time/tzdata"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/homni")
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")
	t.Setenv("EMAIL_ENABLED", "false")
	t.Setenv("CORS_ALLOW_ALL", "false")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LeadPrice != 25000 || cfg.ContactAccessPrice != 10000 || cfg.FullAccessPrice != 20000 {
		t.Fatalf("unexpected prices: %d %d %d", cfg.LeadPrice, cfg.ContactAccessPrice, cfg.FullAccessPrice)
	}
	if cfg.GetBudgetLocation().String() != "Europe/Oslo" {
		t.Fatalf("unexpected budget location %s", cfg.GetBudgetLocation())
	}
}

func TestLoadRejectsInvalidPrices(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"LEAD_PRICE", "0"},
		{"CONTACT_ACCESS_PRICE", "0"},
		{"FULL_ACCESS_PRICE", "0"},
		{"CONTACT_ACCESS_PRICE", "-100"},
		{"FULL_ACCESS_PRICE", "200 kr"},
		{"LEAD_PRICE", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected %s=%q to be rejected", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Fatalf("error should name %s, got %v", tt.key, err)
			}
		})
	}
}
