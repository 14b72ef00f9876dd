// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country prefix.
const DefaultRegion = "NO"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Mask keeps the country prefix and the last two digits of a number and hides
// the rest, e.g. "+4791234567" becomes "+47******67".
func Mask(input string) string {
	normalized := NormalizeE164(input)
	if normalized == "" {
		return ""
	}

	prefix := ""
	digits := normalized
	if number, err := phonenumbers.Parse(normalized, DefaultRegion); err == nil && strings.HasPrefix(normalized, "+") {
		prefix = "+" + strconv.Itoa(int(number.GetCountryCode()))
		digits = phonenumbers.GetNationalSignificantNumber(number)
	}

	if len(digits) <= 2 {
		return prefix + strings.Repeat("*", len(digits))
	}
	return prefix + strings.Repeat("*", len(digits)-2) + digits[len(digits)-2:]
}
