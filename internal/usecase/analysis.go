package usecase

import (
	"fmt"
	"strings"

	"PersonIntel/internal/domain"
)

// maxBriefRecords caps how many records of one family go into a prompt.
const maxBriefRecords = 25

// noFindings is the analysis text of a family that produced no records.
var noFindings = map[domain.Family]string{
	domain.FamilySocial:   "No relevant social media profiles were found.",
	domain.FamilyRegistry: "No PEP (Politically Exposed Person) database matches were found.",
	domain.FamilyNews:     "No relevant media mentions were found.",
}

var familyTitle = map[domain.Family]string{
	domain.FamilySocial:   "Social Media",
	domain.FamilyRegistry: "Political Exposure",
	domain.FamilyNews:     "Media Coverage",
}

// unavailableAnalysis is used when the collaborator failed for a family that had records.
func unavailableAnalysis(family domain.Family, records int) string {
	return fmt.Sprintf("%s analysis is unavailable; %d record(s) were collected and are listed in the report.",
		familyTitle[family], records)
}

// brief renders the records of one family as a numbered list.
func brief(records domain.RecordSet, family domain.Family) string {
	var sb strings.Builder
	n := 0
	write := func(format string, args ...any) {
		n++
		fmt.Fprintf(&sb, "%d. "+format+"\n", append([]any{n}, args...)...)
	}

	switch family {
	case domain.FamilySocial:
		for _, p := range limitRecords(records.Social) {
			write("[%s] %s (@%s) followers=%d verified=%t %s", p.Source, p.DisplayName, p.Username, p.Followers, p.Verified, p.URL)
			if p.Location != "" {
				fmt.Fprintf(&sb, "   Location: %s\n", p.Location)
			}
			if p.Bio != "" {
				fmt.Fprintf(&sb, "   Bio: %s\n", p.Bio)
			}
		}
	case domain.FamilyRegistry:
		for _, r := range limitRecords(records.Registry) {
			write("[%s] %s | %s | %s | %s | category=%s risk=%s similarity=%.2f",
				r.Source, r.Name, orDash(r.Position), orDash(r.Organization), orDash(r.Country), orDash(r.Category), r.RiskLevel, r.SimilarityScore)
			if len(r.Sanctions) > 0 {
				fmt.Fprintf(&sb, "   Sanctions: %s\n", strings.Join(r.Sanctions, "; "))
			}
			if len(r.Watchlists) > 0 {
				fmt.Fprintf(&sb, "   Watchlists: %s\n", strings.Join(r.Watchlists, "; "))
			}
			if len(r.RelatedEntities) > 0 {
				fmt.Fprintf(&sb, "   Related: %s\n", strings.Join(r.RelatedEntities, "; "))
			}
		}
	case domain.FamilyNews:
		for _, a := range limitRecords(records.News) {
			date := "undated"
			if a.PublishedAt != nil {
				date = a.PublishedAt.Format("2006-01-02")
			}
			write("[%s] %s (%s) sentiment=%s %s", a.Source, a.Title, date, orDash(string(a.Sentiment)), a.URL)
			if text := articleSnippet(a); text != "" {
				fmt.Fprintf(&sb, "   Summary: %s\n", text)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func limitRecords[R any](records []R) []R {
	if len(records) > maxBriefRecords {
		return records[:maxBriefRecords]
	}
	return records
}

func articleSnippet(a domain.NewsArticle) string {
	if a.Summary != "" {
		return a.Summary
	}
	runes := []rune(a.Content)
	if len(runes) > 200 {
		return string(runes[:200]) + "..."
	}
	return a.Content
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
