// Package normalize canonicalizes free text for matching.
//
// Normalization lowercases with Russian casing rules, folds ё to е, strips
// combining marks after canonical decomposition (so й becomes и), and
// collapses separator runs into single spaces.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// separators are collapsed into a single space together with whitespace.
const separators = "-_/.,"

// foldVariants maps letter variants with identical meaning to one form.
var foldVariants = runes.Map(func(r rune) rune {
	switch r {
	case 'ё', 'Ё':
		return 'е'
	}
	return r
})

// Normalize returns the canonical form of text. It never fails and is
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// Casers and transform chains carry state and must not be shared
	// between goroutines, so both are built per call.
	s := cases.Lower(language.Russian).String(text)
	t := transform.Chain(foldVariants, norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		// Only reachable on invalid UTF-8; fall back to the lowercased text.
		folded = s
	}

	return collapse(folded)
}

// Tokens returns the whitespace-separated tokens of the normalized text.
// Empty tokens are discarded.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}

// collapse replaces runs of separators and whitespace with a single space
// and trims both ends.
func collapse(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) || strings.ContainsRune(separators, r) {
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
