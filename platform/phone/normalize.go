// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "MX"

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

// NormalizeWireID converts a phone number to the bare-digit form the chat
// platform uses as a sender ID (Mexican mobiles arrive as 521 + 10 digits).
func NormalizeWireID(input string) string {
	normalized := NormalizeE164(input)
	return strings.TrimPrefix(normalized, "+")
}

// IsWireID reports whether the input already is a chat-platform sender ID:
// 13 digits with the 521 mobile prefix.
func IsWireID(input string) bool {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) != 13 || !strings.HasPrefix(trimmed, "521") {
		return false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
