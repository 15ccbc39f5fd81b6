package payitem

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a DPWH pay-item number for template matching.
// Spacing around parentheses varies between BOQ sources ("900 (1) c",
// "900(1)c", "900 (1)c"), so all whitespace is stripped and letters are
// lower-cased. Normalization is idempotent.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
