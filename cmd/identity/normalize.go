package identity

import "strings"

// NormalizeUsername trims surrounding whitespace. Case is preserved and significant.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail trims surrounding whitespace. Case is preserved and significant.
func NormalizeEmail(s string) string {
	return strings.TrimSpace(s)
}
