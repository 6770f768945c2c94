package resolver

import (
	"strings"

	"github.com/Veraticus/spicebot/internal/textnorm"
)

const (
	scoreExact     = 1.0
	scoreSubstring = 0.8
	scoreOverlap   = 0.9
	scorePrefix    = 0.75

	minPrefix = 4
	maxPrefix = 7
)

// Similarity scores how well a user-typed hint matches a category name, from 0 to 1.
// Both strings are normalized. Exact matches score 1; otherwise the best of substring
// containment, shared-word ratio and a shared prefix of four to seven characters applies.
func Similarity(a, b string) float64 {
	na, nb := textnorm.Normalize(a), textnorm.Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return scoreExact
	}

	best := 0.0
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		best = scoreSubstring
	}

	if overlap := wordOverlap(strings.Fields(na), strings.Fields(nb)) * scoreOverlap; overlap > best {
		best = overlap
	}

	if scorePrefix > best && sharePrefix(na, nb) {
		best = scorePrefix
	}

	return best
}

func wordOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	common := 0
	seen := make(map[string]bool, len(b))
	for _, w := range b {
		if set[w] && !seen[w] {
			common++
			seen[w] = true
		}
	}
	return float64(common) / float64(max(len(a), len(b)))
}

func sharePrefix(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	for n := min(maxPrefix, len(ra), len(rb)); n >= minPrefix; n-- {
		if string(ra[:n]) == string(rb[:n]) {
			return true
		}
	}
	return false
}
