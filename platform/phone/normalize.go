// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion      = "IN"
	defaultCountryCode = "91"
)

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Digits strips everything except 0-9.
func Digits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WithCountryCode returns the digits of input prefixed with 91 unless they
// already start with it. Chat participants are stored in this form.
func WithCountryCode(input string) string {
	d := Digits(input)
	if d == "" {
		return ""
	}
	if strings.HasPrefix(d, defaultCountryCode) && len(d) > 10 {
		return d
	}
	return defaultCountryCode + d
}

// PlusE164 keeps numbers already in +form and prefixes everything else with +91.
func PlusE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "+") {
		return trimmed
	}
	return "+" + defaultCountryCode + Digits(trimmed)
}
