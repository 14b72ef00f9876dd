package transport

import (
	"strings"
	"unicode/utf8"

	"homni_backend/platform/phone"
)

// MaskName keeps the first name and the initial of the last name part:
// "Kari Nordmann" becomes "Kari N.".
func MaskName(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	last := parts[len(parts)-1]
	initial, _ := utf8.DecodeRuneInString(last)
	return parts[0] + " " + strings.ToUpper(string(initial)) + "."
}

// MaskEmail keeps the first character of the local part and the domain:
// "kari@example.no" becomes "k***@example.no".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	first, _ := utf8.DecodeRuneInString(email)
	return string(first) + "***" + email[at:]
}

// MaskPhone keeps the country code and the last two digits.
func MaskPhone(number string) string {
	return phone.Mask(number)
}
