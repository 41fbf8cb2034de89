// Package matcher decides whether fetched records belong to the subject.
package matcher

import (
	"strings"
	"unicode/utf8"
)

// NameSimilarity is the Jaccard index of the lower-cased whitespace tokens of a and b.
func NameSimilarity(a, b string) float64 {
	left := tokenSet(a)
	right := tokenSet(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	intersection := 0
	for tok := range left {
		if _, ok := right[tok]; ok {
			intersection++
		}
	}
	union := len(left) + len(right) - intersection
	return float64(intersection) / float64(union)
}

// ContentRelevance scores how strongly text is about name. Each occurrence of a
// name token counts once and each occurrence of the full name counts twice; the
// sum is damped by text length and capped at 1.
func ContentRelevance(text, name string) float64 {
	name = strings.TrimSpace(name)
	if text == "" || name == "" {
		return 0
	}

	lowerText := strings.ToLower(text)
	lowerName := strings.ToLower(name)

	hits := 0
	for _, part := range strings.Fields(lowerName) {
		hits += strings.Count(lowerText, part)
	}
	hits += 2 * strings.Count(lowerText, lowerName)

	denominator := 10 + float64(utf8.RuneCountInString(text))/1000
	return min(float64(hits)/denominator, 1)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
