package usecase

import (
	"strings"

	"PersonIntel/internal/domain"
)

// parseStrategy reads "Key: a, b" lines from generated text. Text without any
// platform or search term line is rejected.
func parseStrategy(text, name string) (domain.SearchStrategy, error) {
	var s domain.SearchStrategy
	found := false

	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(cleanLine(line), ":")
		if !ok {
			continue
		}
		values := splitList(value)
		switch normaliseKey(key) {
		case "platforms":
			s.Platforms = lowerAll(values)
			found = found || len(values) > 0
		case "search terms":
			s.SearchTerms = values
			found = found || len(values) > 0
		case "name variations", "alternative spellings":
			s.NameVariations = values
		case "regions":
			s.Regions = values
		case "time period":
			s.TimePeriod = strings.TrimSpace(value)
		}
	}
	if !found {
		return domain.SearchStrategy{}, &domain.ParseError{What: "strategy", Reason: "no platforms or search terms found"}
	}

	fallback := domain.DefaultStrategy(name)
	if len(s.Platforms) == 0 {
		s.Platforms = fallback.Platforms
	}
	if len(s.SearchTerms) == 0 {
		s.SearchTerms = fallback.SearchTerms
	}
	if s.TimePeriod == "" {
		s.TimePeriod = fallback.TimePeriod
	}
	return s, nil
}

// cleanLine strips list markers and markdown emphasis.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*#0123456789. ")
	return strings.ReplaceAll(line, "**", "")
}

func normaliseKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(key), " "))
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' }) {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
