package management

import (
	"strings"

	"homni_backend/platform/phone"
	"homni_backend/platform/sanitize"
)

// Form builders store customer details under varying metadata keys.
var (
	nameKeys  = []string{"customer_name", "customerName", "name", "full_name", "fullName", "navn"}
	emailKeys = []string{"customer_email", "customerEmail", "email", "epost", "e-post"}
	phoneKeys = []string{"customer_phone", "customerPhone", "phone", "telefon", "mobil", "mobile"}
)

type customerFields struct {
	Name  *string
	Email *string
	Phone *string
}

// resolveCustomer prefers explicit values and falls back to metadata.
func resolveCustomer(name, email, phoneNumber *string, metadata map[string]any) customerFields {
	out := customerFields{
		Name:  sanitize.TextPtr(name),
		Email: normalizeEmail(email),
		Phone: normalizePhone(phoneNumber),
	}
	if out.Name == nil {
		out.Name = sanitize.TextPtr(lookupString(metadata, nameKeys))
	}
	if out.Email == nil {
		out.Email = normalizeEmail(lookupString(metadata, emailKeys))
	}
	if out.Phone == nil {
		out.Phone = normalizePhone(lookupString(metadata, phoneKeys))
	}
	return out
}

func lookupString(metadata map[string]any, keys []string) *string {
	for _, key := range keys {
		if v, ok := metadata[key].(string); ok && strings.TrimSpace(v) != "" {
			return &v
		}
	}
	return nil
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
