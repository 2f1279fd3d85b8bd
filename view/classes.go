package view

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldClass lower-cases, removes diacritics and replaces anything outside
// [a-z0-9_-] with "-", so "Séance 1" becomes "seance-1".
func FoldClass(input string) string {
	// chained transformers carry state, so build one per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, strings.TrimSpace(input))
	if err != nil {
		folded = input
	}
	folded = strings.ToLower(folded)

	var sb strings.Builder
	lastDash := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
			lastDash = false
		default:
			if sb.Len() == 0 || lastDash {
				continue
			}
			sb.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(sb.String(), "-")
}
