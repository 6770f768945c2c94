// Package textnorm folds free text into a canonical form for matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize decomposes text, strips diacritics and punctuation, lowercases it and
// collapses whitespace. It is pure and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Words returns the normalized words of text.
func Words(text string) []string {
	return strings.Fields(Normalize(text))
}

// ContainsWord reports whether the normalized text contains word as a whole word sequence.
// Both arguments are normalized first, so word may span several words.
func ContainsWord(text, word string) bool {
	w := Normalize(word)
	if w == "" {
		return false
	}
	return strings.Contains(" "+Normalize(text)+" ", " "+w+" ")
}
