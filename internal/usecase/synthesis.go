package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"PersonIntel/internal/domain"
)

var (
	// The label may be bolded, and a heading label may carry its value on the next line.
	riskLevelExpr  = regexp.MustCompile(`(?i)risk\s*level\**[ \t]*(?:[:\-]|\r?\n)\s*\**\s*\[?\s*([a-z]+)`)
	confidenceExpr = regexp.MustCompile(`(?i)confidence(?:\s*(?:score|level))?\**[ \t]*(?:[:\-]|\r?\n)\s*\**\s*\[?\s*(\d+(?:\.\d+)?)\s*(%?)`)
)

// Verdict is the structured result of the risk assessment.
type Verdict struct {
	Level         domain.RiskLevel
	Confidence    float64
	Justification string
}

// unknownVerdict is the only way to end a run with an unknown risk.
var unknownVerdict = Verdict{Level: domain.RiskUnknown}

// parseVerdict extracts "Risk Level: X" and "Confidence: N%" from text. Both
// must be present. Confidences above 1 are read as percentages.
func parseVerdict(text string) (Verdict, error) {
	levelLocs := riskLevelExpr.FindAllStringSubmatchIndex(text, -1)
	if levelLocs == nil {
		return unknownVerdict, &domain.ParseError{What: "risk assessment", Reason: "no risk level line"}
	}
	var (
		level    domain.RiskLevel
		levelLoc []int
	)
	for _, loc := range levelLocs {
		if l, ok := domain.ParseRiskLevel(text[loc[2]:loc[3]]); ok {
			level, levelLoc = l, loc
			break
		}
	}
	if levelLoc == nil {
		first := levelLocs[0]
		return unknownVerdict, &domain.ParseError{What: "risk assessment", Reason: fmt.Sprintf("unknown risk level %q", text[first[2]:first[3]])}
	}

	confLoc := confidenceExpr.FindStringSubmatchIndex(text)
	if confLoc == nil {
		return unknownVerdict, &domain.ParseError{What: "risk assessment", Reason: "no confidence line"}
	}
	confidence, err := strconv.ParseFloat(text[confLoc[2]:confLoc[3]], 64)
	if err != nil {
		return unknownVerdict, &domain.ParseError{What: "risk assessment", Reason: "confidence is not a number"}
	}
	if text[confLoc[4]:confLoc[5]] == "%" || confidence > 1 {
		confidence /= 100
	}
	confidence = min(max(confidence, 0), 1)

	return Verdict{
		Level:         level,
		Confidence:    confidence,
		Justification: justification(text, lineSpan(text, levelLoc), lineSpan(text, confLoc)),
	}, nil
}

// justification is the text with the two verdict spans removed.
func justification(text string, a, b [2]int) string {
	if b[0] < a[0] {
		a, b = b, a
	}
	if b[0] <= a[1] {
		a[1] = max(a[1], b[1])
		return strings.TrimSpace(text[:a[0]] + text[a[1]:])
	}
	return strings.TrimSpace(text[:a[0]] + text[a[1]:b[0]] + text[b[1]:])
}

// lineSpan widens a match to the whole lines it touches, including the
// trailing newline.
func lineSpan(text string, loc []int) [2]int {
	start := strings.LastIndexByte(text[:loc[0]], '\n') + 1
	matchEnd := loc[0] + len(strings.TrimRight(text[loc[0]:loc[1]], " \t\r\n"))
	end := len(text)
	if i := strings.IndexByte(text[matchEnd:], '\n'); i >= 0 {
		end = matchEnd + i + 1
	}
	return [2]int{start, end}
}

// fallbackSummary concatenates the analyses that came from the collaborator.
func fallbackSummary(name string, analyses map[domain.Family]string, generated map[domain.Family]bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Summary Report for %s\n", name)

	wrote := false
	for _, family := range domain.Families() {
		text := strings.TrimSpace(analyses[family])
		if !generated[family] || text == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n### %s\n%s\n", familyTitle[family], text)
		wrote = true
	}
	if !wrote {
		sb.WriteString("\nNo analysed findings are available for this subject.\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
