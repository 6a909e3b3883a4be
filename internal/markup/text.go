package markup

import (
	"strings"
)

const nbsp = "\u00a0"

// Clean replaces non-breaking spaces, collapses runs of whitespace and trims
// the result.
func Clean(s string) string {
	s = strings.ReplaceAll(s, nbsp, " ")
	return strings.Join(strings.Fields(s), " ")
}

// StripControl drops newlines and tabs without touching other spacing.
func StripControl(s string) string {
	return strings.NewReplacer("\n", "", "\r", "", "\t", "").Replace(s)
}
