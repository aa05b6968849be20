package utils

import (
	"strings"
	"unicode"
)

// ClosestMatch finds the candidate a mistyped name most likely refers to.
// Matching is tried from strictest to loosest: case-insensitive equality,
// equality ignoring punctuation, small edit distance, then containment.
func ClosestMatch(term string, candidates []string) (string, bool) {
	if term == "" || len(candidates) == 0 {
		return "", false
	}

	for _, c := range candidates {
		if strings.EqualFold(c, term) {
			return c, true
		}
	}

	norm := normalizeName(term)
	if norm == "" {
		return "", false
	}
	for _, c := range candidates {
		if normalizeName(c) == norm {
			return c, true
		}
	}

	maxDist := len(norm) / 3
	if maxDist < 2 {
		maxDist = 2
	}
	best, bestDist := "", maxDist+1
	for _, c := range candidates {
		if d := levenshtein(norm, normalizeName(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	if best != "" {
		return best, true
	}

	// "bedrooms" -> "bedroom_count", "pets" -> "guestControls/allowsPets"
	if len(norm) >= 3 {
		best = ""
		for _, c := range candidates {
			cn := normalizeName(c)
			stem := strings.TrimSuffix(norm, "s")
			if strings.Contains(cn, stem) && (best == "" || len(c) < len(best)) {
				best = c
			}
		}
		if best != "" {
			return best, true
		}
	}

	return "", false
}

// normalizeName lowercases and drops everything but letters and digits.
func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
