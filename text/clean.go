package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Clean normalizes s to NFC, drops control characters, collapses runs of
// whitespace to a single space, and trims the result.
func Clean(s string) string {
	s = norm.NFC.String(s)

	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = sb.Len() > 0
		case unicode.IsControl(r) || r == '\uFFFD' || r == '\u200B':
			continue
		default:
			if space {
				sb.WriteByte(' ')
				space = false
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// FontStyle infers bold and italic flags from a font name such as
// "Helvetica-BoldOblique" or "TimesNewRomanPS-ItalicMT".
func FontStyle(fontName string) (bold, italic bool) {
	n := strings.ToLower(fontName)
	bold = strings.Contains(n, "bold") || strings.Contains(n, "black") ||
		strings.Contains(n, "heavy") || strings.Contains(n, "semibold") ||
		strings.Contains(n, "demi")
	italic = strings.Contains(n, "italic") || strings.Contains(n, "oblique")
	return bold, italic
}
