package utils

import "strings"

// NormalizePhone strips formatting characters (spaces, dashes, dots,
// parentheses) from a phone number, preserving a leading "+". It does not
// validate the number; the messaging provider is the authority on that.
func NormalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range trimmed {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
			// formatting only, drop
		default:
			// Unexpected character: keep it so the provider can reject the
			// number with a useful error instead of us silently mangling it.
			b.WriteRune(r)
		}
	}
	return b.String()
}
